package returns

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LabelResult is what a successful label issuance returns
type LabelResult struct {
	TrackingNumber string
	LabelBytes     []byte
	ServiceType    string
	LabelID        string
	Postage        *decimal.Decimal
	// WeightOz is the weight sent to the carrier, nil when unknown
	WeightOz *int
	// IdempotencyKey is the key attached to the issuing request
	IdempotencyKey string
	// Duplicate is set when a content-derived key was already issued
	Duplicate bool
}

// ComposedDocument is the printable packet: instruction pages followed by one label page
type ComposedDocument struct {
	Bytes            []byte
	PageCount        int
	InstructionPages int
	Placement        Placement
}

// Placement describes where the label was drawn on its page.
// X and Y are measured from the bottom-left corner of the page.
type Placement struct {
	Scale  float64
	Width  float64
	Height float64
	X      float64
	Y      float64
}

// MailOptions are the print options passed to the letter provider
type MailOptions struct {
	Color            bool
	UseType          string
	AddressPlacement string
	Description      string
	// IdempotencyKey lets the provider drop a retried submission
	IdempotencyKey string
	// Metadata is stored with the letter for later lookup
	Metadata map[string]string
}

// MailSubmissionResult is what a successful letter submission returns
type MailSubmissionResult struct {
	LetterID string
	Status   string
}

// ArchiveKey is the storage key of an archived packet: returns/<yyyy>/<mm>/<requestId>.pdf
func ArchiveKey(requestID string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("returns/%04d/%02d/%s.pdf", at.Year(), int(at.Month()), requestID)
}
