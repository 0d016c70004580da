package returns

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditStatus is the terminal status written to the audit sink
type AuditStatus string

const (
	AuditStatusCreated   AuditStatus = "Created"
	AuditStatusException AuditStatus = "Exception"
)

// AuditRecord is the flat structure posted to the audit sink.
// Unknown values serialize as empty strings or null, never omitted.
type AuditRecord struct {
	RequestID      string           `json:"requestId"`
	LetterID       string           `json:"letterId"`
	Source         string           `json:"source"`
	CreatedAt      time.Time        `json:"createdAt"`
	LastCheckedAt  time.Time        `json:"lastCheckedAt"`
	Name           string           `json:"name"`
	Company        string           `json:"company"`
	Address1       string           `json:"address1"`
	Address2       string           `json:"address2"`
	City           string           `json:"city"`
	State          string           `json:"state"`
	Zip            string           `json:"zip"`
	Country        string           `json:"country"`
	Phone          string           `json:"phone"`
	Email          string           `json:"email"`
	DeviceType     string           `json:"deviceType"`
	DeviceSerial   string           `json:"deviceSerial"`
	ReturnReason   string           `json:"returnReason"`
	WeightOz       *int             `json:"weightOz"`
	ServiceType    string           `json:"serviceType"`
	TrackingNumber string           `json:"trackingNumber"`
	LabelID        string           `json:"labelId"`
	Postage        *decimal.Decimal `json:"postage"`
	Status         AuditStatus      `json:"status"`
	DeliveredAt    *time.Time       `json:"deliveredAt"`
	LastEvent      string           `json:"lastEvent"`
}

// NewAuditRecord snapshots the request fields into a record
func NewAuditRecord(requestID, source string, req ReturnRequest, now time.Time) AuditRecord {
	addr := req.Address()
	return AuditRecord{
		RequestID:     requestID,
		Source:        source,
		CreatedAt:     now,
		LastCheckedAt: now,
		Name:          addr.Name,
		Company:       addr.Company,
		Address1:      addr.Line1,
		Address2:      addr.Line2,
		City:          addr.City,
		State:         addr.State,
		Zip:           addr.Postal,
		Country:       addr.Country,
		Phone:         addr.Phone,
		Email:         addr.Email,
		DeviceType:    req.DeviceType,
		DeviceSerial:  req.DeviceSerial,
		ReturnReason:  req.ReturnReason,
	}
}

// WithLabel copies the label stage output into the record
func (r *AuditRecord) WithLabel(label *LabelResult) {
	if label == nil {
		return
	}
	r.TrackingNumber = label.TrackingNumber
	r.LabelID = label.LabelID
	r.ServiceType = label.ServiceType
	r.Postage = label.Postage
	r.WeightOz = label.WeightOz
}

// DeliveryStatus is the outcome of one audit write attempt
type DeliveryStatus string

const (
	DeliveryOK      DeliveryStatus = "ok"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliverySkipped DeliveryStatus = "skipped"
)

// DeliveryOutcome reports how the audit write went. It never changes the
// pipeline result.
type DeliveryOutcome struct {
	Status     DeliveryStatus `json:"status"`
	HTTPStatus int            `json:"httpStatus,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// SkippedOutcome is returned when no sink is configured
func SkippedOutcome() DeliveryOutcome {
	return DeliveryOutcome{Status: DeliverySkipped}
}
