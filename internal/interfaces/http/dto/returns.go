package dto

import (
	"errors"

	"github.com/returnmail/backend/internal/domain/returns"
)

// unauthorizedMessage is the only text a rejected caller sees
const unauthorizedMessage = "unauthorized"

const malformedBodyMessage = "request body must be a JSON object"

// CreateReturnRequest is the inbound JSON body. The access code is only read
// when the service runs in access-code mode.
type CreateReturnRequest struct {
	returns.ReturnRequest
	AccessCode string `json:"accessCode,omitempty"`
}

// CreateReturnResponse is returned once the packet was handed to the mail provider
type CreateReturnResponse struct {
	OK             bool                    `json:"ok"`
	RequestID      string                  `json:"requestId"`
	TrackingNumber string                  `json:"trackingNumber"`
	LabelID        string                  `json:"labelId,omitempty"`
	LetterID       string                  `json:"letterId"`
	MailStatus     string                  `json:"mailStatus"`
	WeightOz       *int                    `json:"weightOz"`
	PageCount      int                     `json:"pageCount"`
	ArchiveKey     string                  `json:"archiveKey,omitempty"`
	Duplicate      bool                    `json:"duplicate,omitempty"`
	Audit          returns.DeliveryOutcome `json:"audit"`
}

// JournalEntryResponse wraps one audit record from the journal
type JournalEntryResponse struct {
	OK     bool                `json:"ok"`
	Record returns.AuditRecord `json:"record"`
}

// JournalListResponse lists audit records, newest first
type JournalListResponse struct {
	OK      bool                  `json:"ok"`
	Records []returns.AuditRecord `json:"records"`
}

// NewPipelineErrorResponse classifies a pipeline failure into an HTTP status
// and failure envelope. Unclassified errors become a generic 500 that never
// carries the raw error text.
func NewPipelineErrorResponse(err error) (int, ErrorResponse) {
	resp := ErrorResponse{OK: false}

	var perr *returns.PipelineError
	if errors.As(err, &perr) {
		resp.Stage = string(perr.Stage)
		resp.RequestID = perr.RequestID
		resp.TrackingNumber = perr.TrackingNumber
		if perr.Audit.Status != returns.DeliverySkipped {
			outcome := perr.Audit
			resp.Audit = &outcome
		}
	}

	var (
		cfgErr     *returns.ConfigError
		validErr   *returns.ValidationError
		bodyErr    *returns.MalformedRequestError
		unauthErr  *returns.UnauthorizedError
		authErr    *returns.AuthError
		labelErr   *returns.LabelError
		composeErr *returns.ComposeError
		mailErr    *returns.MailError
	)
	switch {
	case errors.As(err, &cfgErr):
		resp.Code, resp.Error = ErrCodeConfig, "server misconfiguration"
		resp.Missing = cfgErr.Missing
	case errors.As(err, &bodyErr):
		resp.Code, resp.Error = ErrCodeInvalidJSON, malformedBodyMessage
	case errors.As(err, &validErr):
		resp.Code, resp.Error = ErrCodeValidation, validErr.Error()
		resp.Missing, resp.Invalid = validErr.Missing, validErr.Invalid
	case errors.As(err, &unauthErr):
		resp.Code, resp.Error = ErrCodeUnauthorized, unauthorizedMessage
	case errors.As(err, &authErr):
		resp.Code, resp.Error = ErrCodeCarrierAuth, authErr.Error()
		resp.Details = ProviderDetails(authErr.Details)
	case errors.As(err, &labelErr):
		resp.Code, resp.Error = ErrCodeLabel, labelErr.Error()
		resp.Details = ProviderDetails(labelErr.Details)
	case errors.As(err, &composeErr):
		resp.Code, resp.Error = ErrCodeCompose, composeErr.Error()
	case errors.As(err, &mailErr):
		resp.Code, resp.Error = ErrCodeMail, mailErr.Error()
		resp.Details = ProviderDetails(mailErr.Details)
	case errors.Is(err, returns.ErrUnhandled):
		resp.Code, resp.Error = ErrCodeUnhandled, err.Error()
		if perr != nil {
			resp.Error = perr.Err.Error()
		}
	default:
		resp.Code, resp.Error = ErrCodeUnhandled, returns.ErrUnhandled.Error()
	}
	return GetHTTPStatus(resp.Code), resp
}
