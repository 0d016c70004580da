package returns

import (
	"context"
	"io"
)

// Credentials are the inbound caller credentials extracted at the HTTP boundary
type Credentials struct {
	// Authorization is the raw Authorization header value
	Authorization string
	// AccessCode is the static access code carried in the request body
	AccessCode string
}

// Authenticator verifies the caller's own credential.
// Rejections are returned as *UnauthorizedError.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) error
}

// BodyCredential is implemented by authenticators whose credential travels
// inside the request body. An undecodable body is rejected before they run.
type BodyCredential interface {
	CredentialInBody() bool
}

// TokenSource yields a carrier access token.
// Failures are returned as *AuthError.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// TokenInvalidator drops a cached carrier token after the carrier rejects it
type TokenInvalidator interface {
	Invalidate(ctx context.Context)
}

// LabelIssuer requests a return label from the carrier.
// A nil returnTo selects the configured warehouse address.
// Failures are returned as *LabelError.
type LabelIssuer interface {
	CreateLabel(ctx context.Context, accessToken string, req ReturnRequest, returnTo *Address) (*LabelResult, error)
}

// DocumentComposer merges the instructions and the label into one packet.
// Failures are returned as *ComposeError.
type DocumentComposer interface {
	Compose(ctx context.Context, labelBytes, instructions []byte) (*ComposedDocument, error)
}

// MailSubmitter hands a composed packet to the letter provider.
// A nil from selects the configured sender address.
// Failures are returned as *MailError.
type MailSubmitter interface {
	Submit(ctx context.Context, doc *ComposedDocument, from *Address, to Address, opts MailOptions) (*MailSubmissionResult, error)
}

// AuditSink records an outcome. It never fails the caller.
type AuditSink interface {
	Record(ctx context.Context, rec AuditRecord) DeliveryOutcome
}

// DocumentArchive keeps a copy of each composed packet
type DocumentArchive interface {
	Archive(ctx context.Context, requestID string, doc *ComposedDocument) (string, error)
}

// PacketReader opens an archived packet by its ArchiveKey.
// A missing packet is reported as ErrPacketNotFound.
type PacketReader interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// AuditJournal looks up audit records written by the journal sink.
// An unknown request id is reported as ErrRecordNotFound.
type AuditJournal interface {
	FindByRequestID(ctx context.Context, requestID string) (*AuditRecord, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) ([]AuditRecord, error)
}
