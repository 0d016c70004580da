package returns

import "github.com/returnmail/backend/internal/domain/returns"

// ProcessInput is one inbound return request with the caller's credentials
type ProcessInput struct {
	Request     returns.ReturnRequest
	Credentials returns.Credentials
	// BodyErr is the decode failure of the inbound body. The request is
	// rejected as malformed once the credential gate has passed.
	BodyErr error
}

// Result is returned when the packet was handed to the mail provider
type Result struct {
	RequestID      string
	TrackingNumber string
	LabelID        string
	LetterID       string
	MailStatus     string
	WeightOz       *int
	PageCount      int
	// ArchiveKey is empty when archiving is off or failed
	ArchiveKey string
	// Duplicate is set when the carrier was asked for a label it already issued
	Duplicate bool
	Audit     returns.DeliveryOutcome
}
