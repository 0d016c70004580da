package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/returnmail/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when no journal entry matches
var ErrNotFound = returns.ErrRecordNotFound

// GormAuditJournalRepository stores audit records using GORM
type GormAuditJournalRepository struct {
	db *gorm.DB
}

var _ returns.AuditJournal = (*GormAuditJournalRepository)(nil)

// NewGormAuditJournalRepository creates a new GormAuditJournalRepository
func NewGormAuditJournalRepository(db *gorm.DB) *GormAuditJournalRepository {
	return &GormAuditJournalRepository{db: db}
}

// Save inserts the record, replacing an earlier write for the same request
func (r *GormAuditJournalRepository) Save(ctx context.Context, rec returns.AuditRecord) error {
	if rec.RequestID == "" {
		return errors.New("journal: request id is required")
	}
	model := models.AuditJournalModelFromDomain(rec)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_id"}},
			UpdateAll: true,
		}).
		Create(model).Error
	if err != nil {
		return fmt.Errorf("journal: save %s: %w", rec.RequestID, err)
	}
	return nil
}

// FindByRequestID loads the record written for a request
func (r *GormAuditJournalRepository) FindByRequestID(ctx context.Context, requestID string) (*returns.AuditRecord, error) {
	var model models.AuditJournalModel
	if err := r.db.WithContext(ctx).First(&model, "request_id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec := model.ToDomain()
	return &rec, nil
}

// FindByTrackingNumber lists records for a tracking number, newest first
func (r *GormAuditJournalRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) ([]returns.AuditRecord, error) {
	var rows []models.AuditJournalModel
	if err := r.db.WithContext(ctx).
		Where("tracking_number = ?", trackingNumber).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]returns.AuditRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}
