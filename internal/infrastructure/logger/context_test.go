package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestPipelineContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetStage(ctx))
	assert.Empty(t, GetTrackingNumber(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithStage(ctx, "requesting_label")
	ctx = WithTrackingNumber(ctx, "")
	assert.Empty(t, GetTrackingNumber(ctx))
	ctx = WithTrackingNumber(ctx, "9400")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "requesting_label", GetStage(ctx))
	assert.Equal(t, "9400", GetTrackingNumber(ctx))
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestTraceIDs(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))

	ctx := spanContext(t)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(ctx))
	assert.Equal(t, "00f067aa0ba902b7", GetSpanID(ctx))
}

func TestContextLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithContext(spanContext(t), zap.New(core))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithStage(ctx, "submitting_mail")
	ctx = WithTrackingNumber(ctx, "9400")

	L(ctx).With(zap.String("letter_id", "ltr_1")).Warn("mail rejected", zap.Int("status", 422))
	L(ctx).Debug("debug")
	L(ctx).Info("info")
	L(ctx).Error("error")

	logs := recorded.All()
	require.Len(t, logs, 4)

	fields := logs[0].ContextMap()
	assert.Equal(t, "mail rejected", logs[0].Message)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "submitting_mail", fields["stage"])
	assert.Equal(t, "9400", fields["tracking_number"])
	assert.Equal(t, "ltr_1", fields["letter_id"])
	assert.EqualValues(t, 422, fields["status"])
}

func TestContextLogger_WithoutLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		L(context.Background()).Info("dropped")
		WithLogger(context.Background(), nil).With(zap.String("k", "v")).Error("dropped")
		assert.NotNil(t, L(context.Background()).Zap())
	})
}
