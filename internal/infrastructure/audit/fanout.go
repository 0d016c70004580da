package audit

import (
	"context"

	"github.com/returnmail/backend/internal/domain/returns"
	"go.uber.org/zap"
)

// NopSink discards records
type NopSink struct{}

var _ returns.AuditSink = NopSink{}

// Record returns a skipped outcome
func (NopSink) Record(context.Context, returns.AuditRecord) returns.DeliveryOutcome {
	return returns.SkippedOutcome()
}

// Fanout records to a primary sink and any number of secondary sinks.
// Only the primary outcome is returned; secondary failures are logged.
type Fanout struct {
	primary     returns.AuditSink
	secondaries []returns.AuditSink
	logger      *zap.Logger
}

var _ returns.AuditSink = (*Fanout)(nil)

// NewFanout creates a fan-out sink. A nil primary behaves like NopSink.
func NewFanout(primary returns.AuditSink, logger *zap.Logger, secondaries ...returns.AuditSink) *Fanout {
	if primary == nil {
		primary = NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{primary: primary, secondaries: secondaries, logger: logger.Named("audit")}
}

// Record writes to every sink in order
func (f *Fanout) Record(ctx context.Context, rec returns.AuditRecord) returns.DeliveryOutcome {
	outcome := f.primary.Record(ctx, rec)
	for i, sink := range f.secondaries {
		if sink == nil {
			continue
		}
		if secondary := sink.Record(ctx, rec); secondary.Status == returns.DeliveryFailed {
			f.logger.Warn("secondary audit sink failed",
				zap.Int("sink", i),
				zap.String("request_id", rec.RequestID),
				zap.String("error", secondary.Error))
		}
	}
	return outcome
}
