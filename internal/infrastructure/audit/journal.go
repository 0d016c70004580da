package audit

import (
	"context"
	"fmt"

	"github.com/returnmail/backend/internal/domain/returns"
	"go.uber.org/zap"
)

// JournalRepository persists audit records
type JournalRepository interface {
	Save(ctx context.Context, rec returns.AuditRecord) error
}

// JournalSink writes audit records to the local journal database
type JournalSink struct {
	repo   JournalRepository
	logger *zap.Logger
}

var _ returns.AuditSink = (*JournalSink)(nil)

// NewJournalSink creates a journal sink
func NewJournalSink(repo JournalRepository, logger *zap.Logger) *JournalSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalSink{repo: repo, logger: logger.Named("audit.journal")}
}

// Record saves the record
func (s *JournalSink) Record(ctx context.Context, rec returns.AuditRecord) (outcome returns.DeliveryOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = failed(0, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := s.repo.Save(ctx, rec); err != nil {
		s.logger.Warn("audit journal write failed",
			zap.String("request_id", rec.RequestID),
			zap.Error(err))
		return failed(0, err)
	}
	return returns.DeliveryOutcome{Status: returns.DeliveryOK}
}
