package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when pipeline metrics are built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Request outcomes
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// PipelineMetrics holds the instruments recorded by the returns pipeline
type PipelineMetrics struct {
	requests        *Counter
	stageDuration   *Histogram
	auditDeliveries *Counter
}

// NewPipelineMetrics registers the pipeline instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	requests, err := NewCounter(meter,
		"returns_requests_total",
		"Return requests by outcome and the stage they ended in",
		"{requests}",
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "returns_stage_duration_ms",
		Description: "Duration of each pipeline stage",
		Unit:        "ms",
		Boundaries:  StageDurationBucketsMs,
	})
	if err != nil {
		return nil, err
	}

	auditDeliveries, err := NewCounter(meter,
		"returns_audit_deliveries_total",
		"Audit record deliveries by status",
		"{records}",
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		requests:        requests,
		stageDuration:   stageDuration,
		auditDeliveries: auditDeliveries,
	}, nil
}

// RecordRequest counts one finished request. Nil-safe.
func (m *PipelineMetrics) RecordRequest(ctx context.Context, outcome, stage string) {
	if m == nil {
		return
	}
	m.requests.Inc(ctx, AttrOutcome.String(outcome), AttrStage.String(stage))
}

// RecordStage records how long a stage took. Nil-safe.
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.RecordMillis(ctx, d, AttrStage.String(stage))
}

// RecordAudit counts one audit delivery. Nil-safe.
func (m *PipelineMetrics) RecordAudit(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.auditDeliveries.Inc(ctx, AttrAuditStatus.String(status))
}
