package models

import (
	"time"

	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/shopspring/decimal"
)

// AuditJournalModel is the persistence model for one audit record
type AuditJournalModel struct {
	RequestID      string `gorm:"type:varchar(36);primaryKey"`
	LetterID       string `gorm:"type:varchar(64);not null;default:''"`
	Source         string `gorm:"type:varchar(64);not null;default:''"`
	Status         string `gorm:"type:varchar(16);not null"`
	Name           string `gorm:"type:varchar(255);not null;default:''"`
	Company        string `gorm:"type:varchar(255);not null;default:''"`
	Address1       string `gorm:"column:address1;type:varchar(255);not null;default:''"`
	Address2       string `gorm:"column:address2;type:varchar(255);not null;default:''"`
	City           string `gorm:"type:varchar(128);not null;default:''"`
	State          string `gorm:"type:varchar(64);not null;default:''"`
	Zip            string `gorm:"type:varchar(32);not null;default:''"`
	Country        string `gorm:"type:varchar(8);not null;default:''"`
	Phone          string `gorm:"type:varchar(32);not null;default:''"`
	Email          string `gorm:"type:varchar(255);not null;default:''"`
	DeviceType     string `gorm:"type:varchar(64);not null;default:''"`
	DeviceSerial   string `gorm:"type:varchar(128);not null;default:''"`
	ReturnReason   string `gorm:"type:text;not null;default:''"`
	WeightOz       *int
	ServiceType    string              `gorm:"type:varchar(64);not null;default:''"`
	TrackingNumber string              `gorm:"type:varchar(64);not null;default:'';index"`
	LabelID        string              `gorm:"type:varchar(64);not null;default:''"`
	Postage        decimal.NullDecimal `gorm:"type:numeric(10,2)"`
	DeliveredAt    *time.Time
	LastEvent      string    `gorm:"type:text;not null;default:''"`
	CreatedAt      time.Time `gorm:"not null;index"`
	LastCheckedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AuditJournalModel) TableName() string {
	return "audit_journal"
}

// AuditJournalModelFromDomain converts an audit record to its persistence model
func AuditJournalModelFromDomain(rec returns.AuditRecord) *AuditJournalModel {
	m := &AuditJournalModel{
		RequestID:      rec.RequestID,
		LetterID:       rec.LetterID,
		Source:         rec.Source,
		Status:         string(rec.Status),
		Name:           rec.Name,
		Company:        rec.Company,
		Address1:       rec.Address1,
		Address2:       rec.Address2,
		City:           rec.City,
		State:          rec.State,
		Zip:            rec.Zip,
		Country:        rec.Country,
		Phone:          rec.Phone,
		Email:          rec.Email,
		DeviceType:     rec.DeviceType,
		DeviceSerial:   rec.DeviceSerial,
		ReturnReason:   rec.ReturnReason,
		WeightOz:       rec.WeightOz,
		ServiceType:    rec.ServiceType,
		TrackingNumber: rec.TrackingNumber,
		LabelID:        rec.LabelID,
		DeliveredAt:    rec.DeliveredAt,
		LastEvent:      rec.LastEvent,
		CreatedAt:      rec.CreatedAt.UTC(),
		LastCheckedAt:  rec.LastCheckedAt.UTC(),
	}
	if rec.Postage != nil {
		m.Postage = decimal.NullDecimal{Decimal: *rec.Postage, Valid: true}
	}
	return m
}

// ToDomain converts the model back to an audit record
func (m *AuditJournalModel) ToDomain() returns.AuditRecord {
	rec := returns.AuditRecord{
		RequestID:      m.RequestID,
		LetterID:       m.LetterID,
		Source:         m.Source,
		CreatedAt:      m.CreatedAt,
		LastCheckedAt:  m.LastCheckedAt,
		Name:           m.Name,
		Company:        m.Company,
		Address1:       m.Address1,
		Address2:       m.Address2,
		City:           m.City,
		State:          m.State,
		Zip:            m.Zip,
		Country:        m.Country,
		Phone:          m.Phone,
		Email:          m.Email,
		DeviceType:     m.DeviceType,
		DeviceSerial:   m.DeviceSerial,
		ReturnReason:   m.ReturnReason,
		WeightOz:       m.WeightOz,
		ServiceType:    m.ServiceType,
		TrackingNumber: m.TrackingNumber,
		LabelID:        m.LabelID,
		Status:         returns.AuditStatus(m.Status),
		DeliveredAt:    m.DeliveredAt,
		LastEvent:      m.LastEvent,
	}
	if m.Postage.Valid {
		postage := m.Postage.Decimal
		rec.Postage = &postage
	}
	return rec
}
