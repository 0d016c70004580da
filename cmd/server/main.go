package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	_ "github.com/returnmail/backend/docs"
	apprt "github.com/returnmail/backend/internal/application/returns"
	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/returnmail/backend/internal/domain/shared"
	"github.com/returnmail/backend/internal/infrastructure/audit"
	"github.com/returnmail/backend/internal/infrastructure/auth"
	"github.com/returnmail/backend/internal/infrastructure/cache"
	"github.com/returnmail/backend/internal/infrastructure/carrier"
	"github.com/returnmail/backend/internal/infrastructure/config"
	"github.com/returnmail/backend/internal/infrastructure/logger"
	"github.com/returnmail/backend/internal/infrastructure/mail"
	"github.com/returnmail/backend/internal/infrastructure/migration"
	"github.com/returnmail/backend/internal/infrastructure/persistence"
	"github.com/returnmail/backend/internal/infrastructure/printing"
	"github.com/returnmail/backend/internal/infrastructure/storage"
	"github.com/returnmail/backend/internal/infrastructure/telemetry"
	"github.com/returnmail/backend/internal/interfaces/http/handler"
	"github.com/returnmail/backend/internal/interfaces/http/middleware"
	"github.com/returnmail/backend/internal/interfaces/http/router"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const redisKeyPrefix = "returnmail:"

//go:generate swag init --dir ../../ --generalInfo cmd/server/main.go --output ../../docs

//	@title			Return Mail API
//	@version		1.0
//	@description	Issues prepaid return labels and mails return packets to customers

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.basic	BasicAuth

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.FromAppConfig(cfg))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting return-mail service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("carrier_environment", cfg.Carrier.Environment),
		zap.String("inbound_mode", cfg.Inbound.Mode),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	meter := mp.Meter("github.com/returnmail/backend")

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = lp.Bridge(log, log.Level())

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfigFrom(cfg.Telemetry, cfg.App.Env), log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tp.EnableSpanProfiles()
	}

	var redisClient *redis.Client
	if cfg.Carrier.TokenCache == "redis" || cfg.Carrier.Idempotency == string(carrier.IdempotencyContent) {
		redisClient, err = cache.NewRedisClient(ctx, cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			// The in-memory stores keep a single replica working
			log.Warn("Redis unavailable, falling back to in-memory stores", zap.Error(err))
			redisClient = nil
		} else {
			log.Info("Redis connected", zap.String("host", cfg.Redis.Host))
		}
	}

	var objects *storage.S3ObjectStorage
	if cfg.Storage.Enabled() {
		objects, err = storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
	}

	var db *persistence.Database
	if cfg.Audit.JournalEnabled {
		db = openJournal(cfg, log)
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
	}

	pipelineMetrics, err := telemetry.NewPipelineMetrics(meter)
	if err != nil {
		log.Warn("Pipeline metrics disabled", zap.Error(err))
	}

	deps := apprt.Dependencies{
		Audit:   newAuditSink(cfg, db, log),
		Metrics: pipelineMetrics,
	}
	opts := apprt.Options{
		Missing: cfg.MissingSecrets(),
		Mail: returns.MailOptions{
			Color:            cfg.Mail.Color,
			UseType:          cfg.Mail.UseType,
			AddressPlacement: cfg.Mail.AddressPlacement,
			Description:      cfg.Mail.Description,
		},
		Source: cfg.Audit.Source,
		// The label stage may make a token call, the label call and a document fetch
		StageTimeout: 3 * cfg.External.CallTimeout,
	}

	if len(opts.Missing) > 0 {
		// Requests are refused with a configuration error until the secrets are set
		log.Error("Required secrets are missing, return requests will be refused",
			zap.Strings("missing", opts.Missing))
	} else {
		wirePipeline(ctx, cfg, &deps, &opts, redisClient, objects, log)
	}

	svc, err := apprt.NewService(deps, opts, log)
	if err != nil {
		log.Fatal("Failed to create return pipeline", zap.Error(err))
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	engine := router.NewEngine(router.EngineConfig{
		Logger:         log,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		Meter:          meter,
		CORS:           router.DefaultCORS(cfg.HTTP.CORSAllowOrigins, cfg.HTTP.CORSAllowMethods, cfg.HTTP.CORSAllowHeaders),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		RateLimiter:    limiter,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})

	var pinger handler.Pinger
	if db != nil {
		pinger = db
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion, cfg.App.Env, svc, pinger)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.HTTP.SwaggerEnabled,
			AllowedIPs: cfg.HTTP.SwaggerAllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewReturnsHandler(svc, cfg.App.Name))
	r.Register(systemHandler)
	if db != nil {
		packets, _ := deps.Archive.(returns.PacketReader)
		r.Register(handler.NewJournalHandler(persistence.NewGormAuditJournalRepository(db.DB), deps.Authenticator, packets, cfg.App.Name))
	}
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Profiler stop failed", zap.Error(err))
	}
	if err := lp.Shutdown(shutdownCtx); err != nil {
		log.Error("Logger provider shutdown failed", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	log.Info("Server exited gracefully")
}

// wirePipeline builds the external collaborators. It runs only when every
// required secret is configured.
func wirePipeline(
	ctx context.Context,
	cfg *config.Config,
	deps *apprt.Dependencies,
	opts *apprt.Options,
	redisClient *redis.Client,
	objects *storage.S3ObjectStorage,
	log *zap.Logger,
) {
	authenticator, err := auth.NewAuthenticator(cfg.Inbound)
	if err != nil {
		log.Fatal("Failed to create inbound authenticator", zap.Error(err))
	}
	deps.Authenticator = authenticator

	var (
		tokenStore shared.TokenStore       = cache.NewInMemoryTokenStore()
		ledger     shared.IdempotencyStore = cache.NewInMemoryIdempotencyStore()
		env                                = carrier.Environment(cfg.Carrier.Environment)
	)
	if redisClient != nil {
		if cfg.Carrier.TokenCache == "redis" {
			tokenStore = cache.NewRedisTokenStore(redisClient, redisKeyPrefix+"token:")
		}
		ledger = cache.NewRedisIdempotencyStore(redisClient, redisKeyPrefix+"label:")
	}

	broker, err := carrier.NewTokenBroker(&carrier.TokenConfig{
		TokenURL:     cfg.Carrier.TokenURL,
		AuthorizeURL: cfg.Carrier.AuthorizeURL,
		Environment:  env,
		ClientID:     cfg.Carrier.ClientID,
		ClientSecret: cfg.Carrier.ClientSecret,
		RefreshToken: cfg.Carrier.RefreshToken,
		Scope:        cfg.Carrier.Scope,
		Encoding:     carrier.TokenEncoding(cfg.Carrier.TokenEncoding),
		RefreshSkew:  cfg.Carrier.TokenRefreshSkew,
		DefaultTTL:   cfg.Carrier.TokenDefaultTTL,
		Timeout:      cfg.External.CallTimeout,
	}, tokenStore, log)
	if err != nil {
		log.Fatal("Failed to create carrier token broker", zap.Error(err))
	}
	deps.Tokens = broker

	weights, err := cfg.Carrier.WeightPolicy()
	if err != nil {
		log.Fatal("Invalid carrier weight policy", zap.Error(err))
	}
	keyer := carrier.NewIdempotencyKeyer(carrier.IdempotencyMode(cfg.Carrier.Idempotency), ledger, cfg.Carrier.IdempotencyTTL, log)
	labels, err := carrier.NewLabelClient(&carrier.LabelConfig{
		APIBaseURL:         cfg.Carrier.APIURL,
		Environment:        env,
		ReturnTo:           cfg.Carrier.ReturnTo.Address(),
		MailClass:          cfg.Carrier.MailClass,
		ProcessingCategory: cfg.Carrier.ProcessingCategory,
		RateIndicator:      cfg.Carrier.RateIndicator,
		ImageType:          cfg.Carrier.ImageType,
		LabelType:          cfg.Carrier.LabelType,
		Weights:            weights,
		Timeout:            cfg.External.CallTimeout,
	}, keyer, log)
	if err != nil {
		log.Fatal("Failed to create carrier label client", zap.Error(err))
	}
	deps.Labels = labels

	letters, err := mail.NewLetterClient(&mail.Config{
		APIURL:  cfg.Mail.APIURL,
		APIKey:  cfg.Mail.APIKey,
		Sender:  cfg.Mail.Sender.Address(),
		Options: opts.Mail,
		Timeout: cfg.External.CallTimeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to create letter client", zap.Error(err))
	}
	deps.Mailer = letters

	deps.Composer = printing.NewComposer(log)

	instructions, pages, err := printing.LoadInstructions(ctx, instructionsSource(cfg, objects, log))
	if err != nil {
		log.Fatal("Failed to load instructions document", zap.Error(err))
	}
	opts.Instructions = instructions
	log.Info("Instructions document loaded", zap.Int("pages", pages))

	if cfg.Storage.ArchiveEnabled {
		if objects != nil {
			if err := objects.EnsureBucket(ctx); err != nil {
				log.Fatal("Failed to prepare archive bucket", zap.Error(err))
			}
			deps.Archive = storage.NewS3Archive(objects, cfg.Storage.ArchivePrefix, log)
		} else {
			local, err := printing.NewFileSystemArchive(&printing.FileSystemArchiveConfig{
				BasePath: cfg.Storage.ArchivePath,
				Logger:   log,
			})
			if err != nil {
				log.Fatal("Failed to create packet archive", zap.Error(err))
			}
			if retention := cfg.Storage.ArchiveRetention; retention > 0 {
				go func() {
					if _, err := local.CleanupOlderThan(context.Background(), retention); err != nil {
						log.Warn("Archive cleanup failed", zap.Error(err))
					}
				}()
			}
			deps.Archive = local
		}
	}
}

// instructionsSource picks the configured document source, nil for label-only packets
func instructionsSource(cfg *config.Config, objects *storage.S3ObjectStorage, log *zap.Logger) printing.InstructionsSource {
	ic := cfg.Instructions
	switch {
	case ic.PDFPath != "":
		return printing.FileInstructions{Path: ic.PDFPath}
	case ic.S3Key != "":
		return printing.ObjectInstructions{Store: objects, Key: ic.S3Key}
	case ic.HTMLPath != "":
		// The browser is only needed for this one render
		renderer := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: ic.RenderTimeout,
			RemoteURL:      ic.ChromeRemoteURL,
			NoSandbox:      ic.ChromeNoSandbox,
			Logger:         log,
		})
		return closingSource{
			InstructionsSource: printing.HTMLInstructions{
				Path:     ic.HTMLPath,
				Title:    ic.Title,
				MarginIn: ic.MarginIn,
				Renderer: renderer,
			},
			close: renderer.Close,
		}
	default:
		return nil
	}
}

// closingSource releases its renderer after the single load
type closingSource struct {
	printing.InstructionsSource
	close func() error
}

func (s closingSource) Load(ctx context.Context) ([]byte, error) {
	defer func() { _ = s.close() }()
	return s.InstructionsSource.Load(ctx)
}

// newAuditSink makes the webhook the primary sink and the journal a secondary
func newAuditSink(cfg *config.Config, db *persistence.Database, log *zap.Logger) returns.AuditSink {
	webhook := audit.NewWebhookSink(audit.WebhookConfig{
		URL:     cfg.Audit.WebhookURL,
		Timeout: cfg.External.CallTimeout,
	}, log)
	if db == nil {
		return audit.NewFanout(webhook, log)
	}
	journal := audit.NewJournalSink(persistence.NewGormAuditJournalRepository(db.DB), log)
	return audit.NewFanout(webhook, log, journal)
}

// openJournal connects the journal database and applies the embedded migrations
func openJournal(cfg *config.Config, log *zap.Logger) *persistence.Database {
	sqlLog := logger.NewJournalSQLLogger(log, logger.JournalSQLLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithBoundValues(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, sqlLog)
	if err != nil {
		log.Fatal("Failed to connect to journal database", zap.Error(err))
	}
	tracing := telemetry.NewDBTracing(telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.Database), nil, log)
	if err := tracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register journal tracing", zap.Error(err))
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get journal connection", zap.Error(err))
	}
	m, err := migration.New(sqlDB, cfg.Database.Driver, log)
	if err != nil {
		log.Fatal("Failed to create journal migrator", zap.Error(err))
	}
	if err := m.Up(); err != nil {
		log.Fatal("Journal migration failed", zap.Error(err))
	}
	if err := m.Close(); err != nil {
		log.Warn("Failed to close journal migrator", zap.Error(err))
	}

	log.Info("Journal database connected", zap.String("driver", cfg.Database.Driver))
	return db
}
