package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/returnmail/backend/internal/infrastructure/migration"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupJournalTestDB creates an in-memory SQLite database with the journal schema
func setupJournalTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, "sqlite", zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	return db
}

func journalRecord(requestID string) returns.AuditRecord {
	created := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	rec := returns.NewAuditRecord(requestID, "returns-api", returns.ReturnRequest{
		Name:         "Jane Doe",
		Address1:     "1 Main St",
		City:         "Springfield",
		State:        "IL",
		Zip:          "62704",
		Phone:        "2175551234",
		DeviceType:   "base-unit",
		DeviceSerial: "SN-0042",
	}, created)
	rec.Status = returns.AuditStatusException
	rec.LastEvent = "Label creation failed: HTTP 400: bad address"
	return rec
}

func TestGormAuditJournalRepository_SaveAndFind(t *testing.T) {
	repo := NewGormAuditJournalRepository(setupJournalTestDB(t))
	ctx := context.Background()

	rec := journalRecord("0d9f4a52-5b4c-4d1a-8c39-1b2f3a4c5d6e")
	require.NoError(t, repo.Save(ctx, rec))

	found, err := repo.FindByRequestID(ctx, rec.RequestID)
	require.NoError(t, err)
	assert.Equal(t, returns.AuditStatusException, found.Status)
	assert.Equal(t, "Jane Doe", found.Name)
	assert.Equal(t, "SN-0042", found.DeviceSerial)
	assert.Equal(t, "US", found.Country)
	assert.Nil(t, found.WeightOz)
	assert.Nil(t, found.Postage)
	assert.Nil(t, found.DeliveredAt)
	assert.True(t, rec.CreatedAt.Equal(found.CreatedAt))
}

func TestGormAuditJournalRepository_SaveReplaces(t *testing.T) {
	repo := NewGormAuditJournalRepository(setupJournalTestDB(t))
	ctx := context.Background()

	rec := journalRecord("4b1e8f0a-1111-4c3d-9e2f-000000000001")
	require.NoError(t, repo.Save(ctx, rec))

	weight := 16
	postage := decimal.RequireFromString("8.75")
	rec.Status = returns.AuditStatusCreated
	rec.LastEvent = "Letter created"
	rec.LetterID = "ltr_1"
	rec.TrackingNumber = "9400100000000000000000"
	rec.WeightOz = &weight
	rec.Postage = &postage
	require.NoError(t, repo.Save(ctx, rec))

	found, err := repo.FindByRequestID(ctx, rec.RequestID)
	require.NoError(t, err)
	assert.Equal(t, returns.AuditStatusCreated, found.Status)
	assert.Equal(t, "ltr_1", found.LetterID)
	require.NotNil(t, found.WeightOz)
	assert.Equal(t, 16, *found.WeightOz)
	require.NotNil(t, found.Postage)
	assert.True(t, postage.Equal(*found.Postage), found.Postage.String())

	byTracking, err := repo.FindByTrackingNumber(ctx, "9400100000000000000000")
	require.NoError(t, err)
	assert.Len(t, byTracking, 1)
}

func TestGormAuditJournalRepository_Errors(t *testing.T) {
	repo := NewGormAuditJournalRepository(setupJournalTestDB(t))
	ctx := context.Background()

	_, err := repo.FindByRequestID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, repo.Save(ctx, returns.AuditRecord{}))
}
