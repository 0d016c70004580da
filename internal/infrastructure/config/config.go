package config

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (RETURNS_CARRIER_CLIENT_ID, ...)
const EnvPrefix = "RETURNS"

// Inbound authentication modes
const (
	InboundModeBasic      = "basic"
	InboundModeAccessCode = "access_code"
	InboundModeJWT        = "jwt"
)

// FallbackWeightNone disables the fallback weight; the carrier payload then omits it
const FallbackWeightNone = "none"

// Config holds all application configuration.
// It is built once at startup and never mutated afterwards.
type Config struct {
	App          AppConfig
	Log          LogConfig
	HTTP         HTTPConfig
	Carrier      CarrierConfig
	Mail         MailConfig
	Audit        AuditConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Storage      StorageConfig
	Instructions InstructionsConfig
	Inbound      InboundConfig
	External     ExternalConfig
	Telemetry    TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
	// SwaggerEnabled serves the API documentation under /swagger
	SwaggerEnabled    bool
	SwaggerAllowedIPs []string
}

// AddressConfig is a postal address supplied through configuration
type AddressConfig struct {
	Name    string
	Company string
	Line1   string
	Line2   string
	City    string
	State   string
	Postal  string
	Country string
	Phone   string
	Email   string
}

// Address converts the configured fields into a normalized domain address
func (a AddressConfig) Address() returns.Address {
	return returns.Address{
		Name:    a.Name,
		Company: a.Company,
		Line1:   a.Line1,
		Line2:   a.Line2,
		City:    a.City,
		State:   a.State,
		Postal:  a.Postal,
		Country: a.Country,
		Phone:   a.Phone,
		Email:   a.Email,
	}.Normalized()
}

// CarrierConfig holds the USPS token and label API settings
type CarrierConfig struct {
	Environment        string // production, testing
	TokenURL           string
	AuthorizeURL       string
	APIURL             string
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	Scope              string
	TokenEncoding      string // json, form
	TokenCache         string // memory, redis
	TokenRefreshSkew   time.Duration
	TokenDefaultTTL    time.Duration
	Idempotency        string // random, content
	IdempotencyTTL     time.Duration
	AcceptedWeightsOz  []int
	FallbackWeightOz   string // ounces, or "none"
	MailClass          string
	ProcessingCategory string
	RateIndicator      string
	ImageType          string
	LabelType          string
	ReturnTo           AddressConfig
}

// WeightPolicy builds the label weight policy from the configured values
func (c CarrierConfig) WeightPolicy() (returns.WeightPolicy, error) {
	policy := returns.WeightPolicy{Accepted: slices.Clone(c.AcceptedWeightsOz)}
	if len(policy.Accepted) == 0 {
		policy.Accepted = slices.Clone(returns.DefaultAcceptedOunces)
	}

	raw := strings.TrimSpace(strings.ToLower(c.FallbackWeightOz))
	if raw == FallbackWeightNone {
		return policy, nil
	}
	if raw == "" {
		fallback := returns.DefaultFallbackOunces
		policy.Fallback = &fallback
		return policy, nil
	}
	fallback, err := strconv.Atoi(raw)
	if err != nil || fallback <= 0 {
		return returns.WeightPolicy{}, fmt.Errorf("carrier.fallback_weight_oz must be a positive integer or %q, got %q", FallbackWeightNone, c.FallbackWeightOz)
	}
	policy.Fallback = &fallback
	return policy, nil
}

// MailConfig holds the letter-mail provider settings
type MailConfig struct {
	APIURL           string
	APIKey           string
	Color            bool
	UseType          string
	AddressPlacement string
	Description      string
	Sender           AddressConfig
}

// AuditConfig holds the audit sink settings
type AuditConfig struct {
	WebhookURL     string
	Source         string
	JournalEnabled bool
}

// DatabaseConfig holds the audit journal database settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Endpoint       string
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	UseSSL         bool
	UsePathStyle   bool
	ArchiveEnabled bool
	ArchivePrefix  string
	// ArchivePath keeps packets on local disk when no bucket is configured
	ArchivePath string
	// ArchiveRetention removes local packets older than this at startup, zero keeps all
	ArchiveRetention time.Duration
}

// Enabled reports whether object storage is configured at all
func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

// InstructionsConfig selects where the fixed instructions document comes from.
// At most one of PDFPath, S3Key and HTMLPath may be set; none means label-only packets.
type InstructionsConfig struct {
	PDFPath         string
	S3Key           string
	HTMLPath        string
	Title           string
	MarginIn        float64
	RenderTimeout   time.Duration
	ChromeRemoteURL string
	ChromeNoSandbox bool
}

// InboundConfig holds the credentials callers must present
type InboundConfig struct {
	Mode       string // basic, access_code, jwt
	Username   string
	Password   string // plain text or bcrypt hash
	AccessCode string
	JWTSecret  string
	JWTIssuer  string
}

// ExternalConfig bounds every outbound provider call
type ExternalConfig struct {
	CallTimeout time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsInterval   time.Duration
	// LogsEnabled also ships zap entries to the collector
	LogsEnabled bool
	// Journal database tracing (otelgorm)
	DBTraceEnabled    bool
	DBLogFullSQL      bool // include bound values, never in production
	DBSlowQueryThresh time.Duration
	// Continuous profiling (Pyroscope)
	ProfilingEnabled           bool
	ProfilingServerAddress     string
	ProfilingBasicAuthUser     string
	ProfilingBasicAuthPassword string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with RETURNS_ prefix (e.g., RETURNS_CARRIER_CLIENT_SECRET)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	return FromViper(v)
}

// FromViper builds the configuration from an already prepared viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	weights, err := intList(v.GetStringSlice("carrier.accepted_weights_oz"))
	if err != nil {
		return nil, fmt.Errorf("carrier.accepted_weights_oz: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
			SwaggerEnabled:    v.GetBool("http.swagger_enabled"),
			SwaggerAllowedIPs: v.GetStringSlice("http.swagger_allowed_ips"),
		},
		Carrier: CarrierConfig{
			Environment:        v.GetString("carrier.environment"),
			TokenURL:           v.GetString("carrier.token_url"),
			AuthorizeURL:       v.GetString("carrier.authorize_url"),
			APIURL:             v.GetString("carrier.api_url"),
			ClientID:           v.GetString("carrier.client_id"),
			ClientSecret:       v.GetString("carrier.client_secret"),
			RefreshToken:       v.GetString("carrier.refresh_token"),
			Scope:              v.GetString("carrier.scope"),
			TokenEncoding:      v.GetString("carrier.token_encoding"),
			TokenCache:         v.GetString("carrier.token_cache"),
			TokenRefreshSkew:   v.GetDuration("carrier.token_refresh_skew"),
			TokenDefaultTTL:    v.GetDuration("carrier.token_default_ttl"),
			Idempotency:        v.GetString("carrier.idempotency"),
			IdempotencyTTL:     v.GetDuration("carrier.idempotency_ttl"),
			AcceptedWeightsOz:  weights,
			FallbackWeightOz:   v.GetString("carrier.fallback_weight_oz"),
			MailClass:          v.GetString("carrier.mail_class"),
			ProcessingCategory: v.GetString("carrier.processing_category"),
			RateIndicator:      v.GetString("carrier.rate_indicator"),
			ImageType:          v.GetString("carrier.image_type"),
			LabelType:          v.GetString("carrier.label_type"),
			ReturnTo:           addressFrom(v, "carrier.return_to"),
		},
		Mail: MailConfig{
			APIURL:           v.GetString("mail.api_url"),
			APIKey:           v.GetString("mail.api_key"),
			Color:            v.GetBool("mail.color"),
			UseType:          v.GetString("mail.use_type"),
			AddressPlacement: v.GetString("mail.address_placement"),
			Description:      v.GetString("mail.description"),
			Sender:           addressFrom(v, "mail.sender"),
		},
		Audit: AuditConfig{
			WebhookURL:     v.GetString("audit.webhook_url"),
			Source:         v.GetString("audit.source"),
			JournalEnabled: v.GetBool("audit.journal_enabled"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Storage: StorageConfig{
			Endpoint:         v.GetString("storage.endpoint"),
			Region:           v.GetString("storage.region"),
			Bucket:           v.GetString("storage.bucket"),
			AccessKey:        v.GetString("storage.access_key"),
			SecretKey:        v.GetString("storage.secret_key"),
			UseSSL:           v.GetBool("storage.use_ssl"),
			UsePathStyle:     v.GetBool("storage.use_path_style"),
			ArchiveEnabled:   v.GetBool("storage.archive_enabled"),
			ArchivePrefix:    v.GetString("storage.archive_prefix"),
			ArchivePath:      v.GetString("storage.archive_path"),
			ArchiveRetention: v.GetDuration("storage.archive_retention"),
		},
		Instructions: InstructionsConfig{
			PDFPath:         v.GetString("instructions.pdf_path"),
			S3Key:           v.GetString("instructions.s3_key"),
			HTMLPath:        v.GetString("instructions.html_path"),
			Title:           v.GetString("instructions.title"),
			MarginIn:        v.GetFloat64("instructions.margin_in"),
			RenderTimeout:   v.GetDuration("instructions.render_timeout"),
			ChromeRemoteURL: v.GetString("instructions.chrome_remote_url"),
			ChromeNoSandbox: v.GetBool("instructions.chrome_no_sandbox"),
		},
		Inbound: InboundConfig{
			Mode:       v.GetString("inbound.mode"),
			Username:   v.GetString("inbound.username"),
			Password:   v.GetString("inbound.password"),
			AccessCode: v.GetString("inbound.access_code"),
			JWTSecret:  v.GetString("inbound.jwt_secret"),
			JWTIssuer:  v.GetString("inbound.jwt_issuer"),
		},
		External: ExternalConfig{
			CallTimeout: v.GetDuration("external.call_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),

			ProfilingEnabled:           v.GetBool("telemetry.profiling_enabled"),
			ProfilingServerAddress:     v.GetString("telemetry.profiling_server_address"),
			ProfilingBasicAuthUser:     v.GetString("telemetry.profiling_basic_auth_user"),
			ProfilingBasicAuthPassword: v.GetString("telemetry.profiling_basic_auth_password"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func addressFrom(v *viper.Viper, prefix string) AddressConfig {
	return AddressConfig{
		Name:    v.GetString(prefix + ".name"),
		Company: v.GetString(prefix + ".company"),
		Line1:   v.GetString(prefix + ".line1"),
		Line2:   v.GetString(prefix + ".line2"),
		City:    v.GetString(prefix + ".city"),
		State:   v.GetString(prefix + ".state"),
		Postal:  v.GetString(prefix + ".postal"),
		Country: v.GetString(prefix + ".country"),
		Phone:   v.GetString(prefix + ".phone"),
		Email:   v.GetString(prefix + ".email"),
	}
}

// intList accepts TOML arrays as well as comma separated env values
func intList(raw []string) ([]int, error) {
	var out []int
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid integer %q", part)
			}
			out = append(out, n)
		}
	}
	return out, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "returnmail"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// A request makes up to five sequential provider calls
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 120 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 64 << 10 // 64KB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 30
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}

	if cfg.Carrier.Environment == "" {
		cfg.Carrier.Environment = "production"
	}
	if cfg.Carrier.TokenEncoding == "" {
		cfg.Carrier.TokenEncoding = "json"
	}
	if cfg.Carrier.TokenCache == "" {
		cfg.Carrier.TokenCache = "memory"
	}
	if cfg.Carrier.TokenRefreshSkew == 0 {
		cfg.Carrier.TokenRefreshSkew = 60 * time.Second
	}
	if cfg.Carrier.TokenDefaultTTL == 0 {
		cfg.Carrier.TokenDefaultTTL = time.Hour
	}
	if cfg.Carrier.Idempotency == "" {
		cfg.Carrier.Idempotency = "random"
	}
	if cfg.Carrier.IdempotencyTTL == 0 {
		cfg.Carrier.IdempotencyTTL = 24 * time.Hour
	}

	if cfg.Mail.APIURL == "" {
		cfg.Mail.APIURL = "https://api.lob.com/v1/letters"
	}
	if cfg.Mail.UseType == "" {
		cfg.Mail.UseType = "operational"
	}
	if cfg.Mail.AddressPlacement == "" {
		cfg.Mail.AddressPlacement = "insert_blank_page"
	}
	if cfg.Mail.Description == "" {
		cfg.Mail.Description = "Return shipping label"
	}

	if cfg.Audit.Source == "" {
		cfg.Audit.Source = "returns-api"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "returnmail"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "returnmail.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}

	if cfg.Instructions.Title == "" {
		cfg.Instructions.Title = "Return instructions"
	}
	if cfg.Instructions.MarginIn == 0 {
		cfg.Instructions.MarginIn = 0.5
	}
	if cfg.Instructions.RenderTimeout == 0 {
		cfg.Instructions.RenderTimeout = 30 * time.Second
	}

	if cfg.Inbound.Mode == "" {
		cfg.Inbound.Mode = InboundModeBasic
	}
	if cfg.Inbound.JWTIssuer == "" {
		cfg.Inbound.JWTIssuer = cfg.App.Name
	}

	if cfg.External.CallTimeout == 0 {
		cfg.External.CallTimeout = 20 * time.Second
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 30 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if !slices.Contains([]string{"production", "testing"}, c.Carrier.Environment) {
		return fmt.Errorf("carrier.environment must be production or testing, got %q", c.Carrier.Environment)
	}
	if !slices.Contains([]string{"json", "form"}, c.Carrier.TokenEncoding) {
		return fmt.Errorf("carrier.token_encoding must be json or form, got %q", c.Carrier.TokenEncoding)
	}
	if !slices.Contains([]string{"memory", "redis"}, c.Carrier.TokenCache) {
		return fmt.Errorf("carrier.token_cache must be memory or redis, got %q", c.Carrier.TokenCache)
	}
	if !slices.Contains([]string{"random", "content"}, c.Carrier.Idempotency) {
		return fmt.Errorf("carrier.idempotency must be random or content, got %q", c.Carrier.Idempotency)
	}
	for _, w := range c.Carrier.AcceptedWeightsOz {
		if w <= 0 {
			return fmt.Errorf("carrier.accepted_weights_oz must be positive, got %d", w)
		}
	}
	if _, err := c.Carrier.WeightPolicy(); err != nil {
		return err
	}
	if c.Carrier.APIURL != "" {
		if _, err := url.ParseRequestURI(c.Carrier.APIURL); err != nil {
			return fmt.Errorf("carrier.api_url is not a valid URL: %w", err)
		}
	}
	if c.Audit.WebhookURL != "" {
		if _, err := url.ParseRequestURI(c.Audit.WebhookURL); err != nil {
			return fmt.Errorf("audit.webhook_url is not a valid URL: %w", err)
		}
	}

	if !slices.Contains([]string{InboundModeBasic, InboundModeAccessCode, InboundModeJWT}, c.Inbound.Mode) {
		return fmt.Errorf("inbound.mode must be basic, access_code or jwt, got %q", c.Inbound.Mode)
	}

	if !slices.Contains([]string{"postgres", "sqlite"}, c.Database.Driver) {
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	sources := 0
	for _, s := range []string{c.Instructions.PDFPath, c.Instructions.S3Key, c.Instructions.HTMLPath} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		return fmt.Errorf("only one of instructions.pdf_path, instructions.s3_key and instructions.html_path may be set")
	}
	if c.Instructions.S3Key != "" && !c.Storage.Enabled() {
		return fmt.Errorf("instructions.s3_key requires storage.bucket")
	}
	if c.Storage.ArchiveEnabled && !c.Storage.Enabled() && c.Storage.ArchivePath == "" {
		return fmt.Errorf("storage.archive_enabled requires storage.bucket or storage.archive_path")
	}

	if c.Storage.ArchiveRetention < 0 {
		return fmt.Errorf("storage.archive_retention cannot be negative")
	}

	if c.External.CallTimeout < 0 {
		return fmt.Errorf("external.call_timeout cannot be negative")
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "postgres" && c.Audit.JournalEnabled && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.ProfilingEnabled && c.Telemetry.ProfilingServerAddress == "" {
		return fmt.Errorf("telemetry.profiling_enabled requires telemetry.profiling_server_address")
	}
	if c.Telemetry.DBLogFullSQL && c.IsProduction() {
		return fmt.Errorf("telemetry.db_log_full_sql must be disabled in production")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// MissingSecrets lists the required credentials and addresses that are not configured.
// Requests are refused with a misconfiguration error while the list is non-empty.
func (c *Config) MissingSecrets() []string {
	var missing []string
	add := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	add("carrier.client_id", c.Carrier.ClientID)
	add("carrier.client_secret", c.Carrier.ClientSecret)
	add("carrier.refresh_token", c.Carrier.RefreshToken)
	add("mail.api_key", c.Mail.APIKey)

	switch c.Inbound.Mode {
	case InboundModeBasic:
		add("inbound.username", c.Inbound.Username)
		add("inbound.password", c.Inbound.Password)
	case InboundModeAccessCode:
		add("inbound.access_code", c.Inbound.AccessCode)
	case InboundModeJWT:
		add("inbound.jwt_secret", c.Inbound.JWTSecret)
	}

	if !c.Carrier.ReturnTo.Address().Mailable() {
		missing = append(missing, "carrier.return_to")
	}
	if !c.Mail.Sender.Address().Mailable() {
		missing = append(missing, "mail.sender")
	}
	return missing
}

// IsProduction reports whether the app runs with production settings
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
