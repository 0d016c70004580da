package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// JournalSQLLogger reports audit journal statements through zap.
// Bound values hold customer names and addresses, so they are left out of the
// logged SQL unless WithBoundValues is set.
type JournalSQLLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	boundValues   bool
}

// SQLLoggerOption configures a JournalSQLLogger
type SQLLoggerOption func(*JournalSQLLogger)

// WithSlowThreshold sets the elapsed time after which a statement is reported as slow.
// Zero turns slow statement reporting off.
func WithSlowThreshold(threshold time.Duration) SQLLoggerOption {
	return func(l *JournalSQLLogger) {
		l.slowThreshold = threshold
	}
}

// WithBoundValues renders the statement arguments into the logged SQL
func WithBoundValues(enabled bool) SQLLoggerOption {
	return func(l *JournalSQLLogger) {
		l.boundValues = enabled
	}
}

// NewJournalSQLLogger creates the journal statement logger
func NewJournalSQLLogger(base *zap.Logger, level gormlogger.LogLevel, opts ...SQLLoggerOption) *JournalSQLLogger {
	l := &JournalSQLLogger{
		logger:        base.Named("journal.sql"),
		level:         level,
		slowThreshold: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogMode implements gormlogger.Interface
func (l *JournalSQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *JournalSQLLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.logger.Sugar().Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface
func (l *JournalSQLLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.Sugar().Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface
func (l *JournalSQLLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.logger.Sugar().Errorf(msg, data...)
	}
}

// ParamsFilter drops the bound values so gorm renders placeholders instead
func (l *JournalSQLLogger) ParamsFilter(_ context.Context, sql string, params ...any) (string, []any) {
	if l.boundValues {
		return sql, params
	}
	return sql, nil
}

// Trace implements gormlogger.Interface. A journal miss is an expected lookup
// result and is never reported as a failure.
func (l *JournalSQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && l.level >= gormlogger.Error
	slow := !failed && l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn
	if !failed && !slow && l.level < gormlogger.Info {
		return
	}

	sql, rows := fc()
	fields := statementFields(ctx, sql, rows, elapsed)

	switch {
	case failed:
		l.logger.Error("journal statement failed", append(fields, zap.Error(err))...)
	case slow:
		l.logger.Warn("slow journal statement", append(fields, zap.Duration("threshold", l.slowThreshold))...)
	default:
		l.logger.Debug("journal statement", fields...)
	}
}

func statementFields(ctx context.Context, sql string, rows int64, elapsed time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.String("sql_op", sqlOperation(sql)),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		fields = append(fields,
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if tracking := GetTrackingNumber(ctx); tracking != "" {
		fields = append(fields, zap.String("tracking_number", tracking))
	}
	return fields
}

// sqlOperation returns the leading keyword of a statement, e.g. "insert"
func sqlOperation(sql string) string {
	sql = strings.TrimSpace(sql)
	if i := strings.IndexAny(sql, " \t\n("); i > 0 {
		sql = sql[:i]
	}
	return strings.ToLower(sql)
}

// JournalSQLLevel maps the application log level onto gorm's levels.
// Statements are only listed at debug, info stays at slow statements and failures.
func JournalSQLLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error", "fatal":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
