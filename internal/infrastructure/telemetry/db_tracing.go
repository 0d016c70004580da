package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/returnmail/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for journal database tracing
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bound values in db.statement (development only)
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	// DBSystem is reported as db.system, e.g. "postgresql" or "sqlite"
	DBSystem string
}

// DBTracingConfigFrom maps the telemetry and database sections
func DBTracingConfigFrom(tel config.TelemetryConfig, db config.DatabaseConfig) DBTracingConfig {
	system := "postgresql"
	if db.Driver == "sqlite" {
		system = "sqlite"
	}
	return DBTracingConfig{
		Enabled:         tel.DBTraceEnabled,
		LogFullSQL:      tel.DBLogFullSQL,
		SlowQueryThresh: tel.DBSlowQueryThresh,
		DBSystem:        system,
	}
}

// DBTracing instruments the journal connection with otelgorm spans and
// annotates each statement span with rows, table and slow-statement events.
type DBTracing struct {
	config DBTracingConfig
	tp     trace.TracerProvider
	logger *zap.Logger
}

// NewDBTracing creates the instrumentation. A nil tp uses the global provider.
func NewDBTracing(cfg DBTracingConfig, tp trace.TracerProvider, logger *zap.Logger) *DBTracing {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracing{config: cfg, tp: tp, logger: logger}
}

type statementStartKey struct{}

// journalOps are the gorm processors the journal exercises
var journalOps = []string{"create", "query", "row", "raw"}

// Register installs the plugin and callbacks on db. Disabled tracing is a no-op.
func (d *DBTracing) Register(db *gorm.DB) error {
	if !d.config.Enabled {
		d.logger.Debug("Database tracing disabled")
		return nil
	}

	// Registered ahead of otelgorm so annotate runs while its span is still open
	for _, op := range journalOps {
		if err := hook(db, op, false, markStatementStart); err != nil {
			return err
		}
		if err := hook(db, op, true, d.annotate); err != nil {
			return err
		}
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(d.config.DBSystem)}
	if d.tp != nil {
		opts = append(opts, otelgorm.WithTracerProvider(d.tp))
	}
	if !d.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	d.logger.Info("Database tracing enabled",
		zap.String("db_system", d.config.DBSystem),
		zap.Bool("log_full_sql", d.config.LogFullSQL),
		zap.Duration("slow_query_threshold", d.config.SlowQueryThresh),
	)
	return nil
}

// hook registers fn before or after the gorm processor for op
func hook(db *gorm.DB, op string, after bool, fn func(*gorm.DB)) error {
	target := "gorm:" + op
	name := "returns_db:before_" + op
	if after {
		name = "returns_db:after_" + op
	}
	cb := db.Callback()
	switch op {
	case "create":
		if after {
			return cb.Create().After(target).Register(name, fn)
		}
		return cb.Create().Before(target).Register(name, fn)
	case "query":
		if after {
			return cb.Query().After(target).Register(name, fn)
		}
		return cb.Query().Before(target).Register(name, fn)
	case "row":
		if after {
			return cb.Row().After(target).Register(name, fn)
		}
		return cb.Row().Before(target).Register(name, fn)
	case "raw":
		if after {
			return cb.Raw().After(target).Register(name, fn)
		}
		return cb.Raw().Before(target).Register(name, fn)
	default:
		return fmt.Errorf("db tracing: unknown gorm processor %q", op)
	}
}

func markStatementStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, statementStartKey{}, time.Now())
	}
}

// annotate runs after each statement inside the otelgorm span
func (d *DBTracing) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(statementStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > d.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", d.config.SlowQueryThresh.Milliseconds()),
		))
	}
}
