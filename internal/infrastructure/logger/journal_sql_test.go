package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const journalInsert = `INSERT INTO "audit_journal" ("request_id","status") VALUES (?,?)`

func TestJournalSQLLogger_Options(t *testing.T) {
	l := NewJournalSQLLogger(zap.NewNop(), gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithBoundValues(true),
	)

	assert.Equal(t, 500*time.Millisecond, l.slowThreshold)
	assert.True(t, l.boundValues)

	warn, ok := l.LogMode(gormlogger.Warn).(*JournalSQLLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, warn.level)
	assert.Equal(t, gormlogger.Info, l.level)
	assert.True(t, warn.boundValues)

	var _ gormlogger.Interface = l
	var _ gorm.ParamsFilter = l
}

func TestJournalSQLLogger_Messages(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	l := NewJournalSQLLogger(zap.New(core), gormlogger.Warn)

	l.Info(context.Background(), "suppressed %s", "info")
	l.Warn(context.Background(), "journal lagging by %d rows", 42)
	l.Error(context.Background(), "journal unavailable")

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "journal lagging by 42 rows", logs[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs[1].Level)
	assert.Equal(t, "journal.sql", logs[0].LoggerName)
}

func TestJournalSQLLogger_Trace(t *testing.T) {
	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		opts      []SQLLoggerOption
		elapsed   time.Duration
		err       error
		wantMsg   string
		wantLevel zapcore.Level
	}{
		{name: "failed statement", level: gormlogger.Error, err: errors.New("disk full"), wantMsg: "journal statement failed", wantLevel: zapcore.ErrorLevel},
		{name: "journal miss", level: gormlogger.Info, err: gormlogger.ErrRecordNotFound, wantMsg: "journal statement", wantLevel: zapcore.DebugLevel},
		{name: "journal miss at warn", level: gormlogger.Warn, err: gormlogger.ErrRecordNotFound},
		{name: "slow statement", level: gormlogger.Warn, opts: []SQLLoggerOption{WithSlowThreshold(time.Millisecond)}, elapsed: time.Second, wantMsg: "slow journal statement", wantLevel: zapcore.WarnLevel},
		{name: "slow reporting off", level: gormlogger.Warn, opts: []SQLLoggerOption{WithSlowThreshold(0)}, elapsed: time.Second},
		{name: "statement at info", level: gormlogger.Info, wantMsg: "journal statement", wantLevel: zapcore.DebugLevel},
		{name: "statement at warn", level: gormlogger.Warn},
		{name: "silent", level: gormlogger.Silent, err: errors.New("disk full")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			l := NewJournalSQLLogger(zap.New(core), tt.level, tt.opts...)

			rendered := false
			l.Trace(context.Background(), time.Now().Add(-tt.elapsed), func() (string, int64) {
				rendered = true
				return journalInsert, 1
			}, tt.err)

			if tt.wantMsg == "" {
				assert.Empty(t, recorded.All())
				assert.False(t, rendered, "statement rendered although nothing is logged")
				return
			}
			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.wantMsg, logs[0].Message)
			assert.Equal(t, tt.wantLevel, logs[0].Level)
			assert.Equal(t, "insert", logs[0].ContextMap()["sql_op"])
		})
	}
}

func TestJournalSQLLogger_Trace_CorrelationFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	l := NewJournalSQLLogger(zap.New(core), gormlogger.Info)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	ctx = WithRequestID(ctx, "4b1e8f0a-1111-4c3d-9e2f-000000000001")
	ctx = WithTrackingNumber(ctx, "9202090153540000000001")

	l.Trace(ctx, time.Now(), func() (string, int64) { return journalInsert, 1 }, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	assert.Equal(t, "4b1e8f0a-1111-4c3d-9e2f-000000000001", fields["request_id"])
	assert.Equal(t, "9202090153540000000001", fields["tracking_number"])
	assert.Equal(t, journalInsert, fields["sql"])
	assert.Equal(t, int64(1), fields["rows"])
}

type journalEntry struct {
	RequestID string `gorm:"primaryKey"`
	Addressee string
}

func TestJournalSQLLogger_BoundValues(t *testing.T) {
	tests := []struct {
		name        string
		boundValues bool
		wantInSQL   bool
	}{
		{name: "redacted by default", boundValues: false},
		{name: "rendered when enabled", boundValues: true, wantInSQL: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			l := NewJournalSQLLogger(zap.New(core), gormlogger.Info, WithBoundValues(tt.boundValues))

			db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: l})
			require.NoError(t, err)
			require.NoError(t, db.AutoMigrate(&journalEntry{}))
			require.NoError(t, db.Create(&journalEntry{RequestID: "r-1", Addressee: "Jane Customer"}).Error)

			inserts := recorded.FilterField(zap.String("sql_op", "insert")).All()
			require.Len(t, inserts, 1)
			sql, _ := inserts[0].ContextMap()["sql"].(string)
			if tt.wantInSQL {
				assert.Contains(t, sql, "Jane Customer")
			} else {
				assert.NotContains(t, sql, "Jane Customer")
				assert.Contains(t, sql, "?")
			}
		})
	}
}

func TestJournalSQLLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"fatal", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Warn},
		{"debug", gormlogger.Info},
		{"DEBUG", gormlogger.Info},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, JournalSQLLevel(tt.level))
		})
	}
}

func TestSQLOperation(t *testing.T) {
	assert.Equal(t, "insert", sqlOperation(journalInsert))
	assert.Equal(t, "select", sqlOperation("  SELECT * FROM audit_journal"))
	assert.Equal(t, "with", sqlOperation("WITH(x) AS (SELECT 1) SELECT * FROM x"))
	assert.Equal(t, "", sqlOperation(""))
}
