package returns

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError is raised when required secrets or settings are missing
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return "server misconfiguration: missing " + strings.Join(e.Missing, ", ")
}

// ValidationError lists every missing or invalid request field
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	if len(parts) == 0 {
		return "invalid request"
	}
	return strings.Join(parts, "; ")
}

// MalformedRequestError is raised when the inbound body is not a single JSON object
type MalformedRequestError struct {
	Cause error
}

func (e *MalformedRequestError) Error() string {
	if e.Cause == nil {
		return "malformed request body"
	}
	return "malformed request body: " + e.Cause.Error()
}

func (e *MalformedRequestError) Unwrap() error { return e.Cause }

// ErrUnauthorized is wrapped by every inbound credential rejection
var ErrUnauthorized = errors.New("unauthorized")

// UnauthorizedError is raised when the caller's own credential is absent or wrong
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason == "" {
		return ErrUnauthorized.Error()
	}
	return ErrUnauthorized.Error() + ": " + e.Reason
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// AuthReason classifies carrier token failures
type AuthReason string

const (
	AuthTokenEndpointUnreachable AuthReason = "TokenEndpointUnreachable"
	AuthInvalidCredentials       AuthReason = "InvalidCredentials"
	AuthMalformedResponse        AuthReason = "MalformedResponse"
)

// AuthError is raised when the carrier token exchange fails
type AuthError struct {
	Reason     AuthReason
	StatusCode int
	Details    []byte
	Cause      error
}

func (e *AuthError) Error() string {
	return providerMessage("carrier token", string(e.Reason), e.StatusCode, e.Cause)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// HTTPStatus returns the upstream status code, 0 when none was received
func (e *AuthError) HTTPStatus() int { return e.StatusCode }

// ProviderDetails returns the upstream response body
func (e *AuthError) ProviderDetails() []byte { return e.Details }

// LabelReason classifies label issuance failures
type LabelReason string

const (
	LabelRejectedByCarrier LabelReason = "ValidationRejectedByCarrier"
	LabelAuthFailed        LabelReason = "AuthFailed"
	LabelUnreachable       LabelReason = "Unreachable"
	LabelMalformedResponse LabelReason = "MalformedResponse"
)

// LabelError is raised when the carrier does not issue a usable label
type LabelError struct {
	Reason     LabelReason
	StatusCode int
	Details    []byte
	Cause      error
}

func (e *LabelError) Error() string {
	return providerMessage("carrier label", string(e.Reason), e.StatusCode, e.Cause)
}

func (e *LabelError) Unwrap() error { return e.Cause }

// HTTPStatus returns the upstream status code, 0 when none was received
func (e *LabelError) HTTPStatus() int { return e.StatusCode }

// ProviderDetails returns the upstream response body
func (e *LabelError) ProviderDetails() []byte { return e.Details }

// ComposeReason classifies composition failures
type ComposeReason string

const (
	ComposeInvalidLabelDocument        ComposeReason = "InvalidLabelDocument"
	ComposeInvalidInstructionsDocument ComposeReason = "InvalidInstructionsDocument"
	ComposeRenderFailed                ComposeReason = "RenderFailed"
)

// ComposeError is raised when the packet cannot be assembled
type ComposeError struct {
	Reason ComposeReason
	Cause  error
}

func (e *ComposeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("compose: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("compose: %s", e.Reason)
}

func (e *ComposeError) Unwrap() error { return e.Cause }

// MailReason classifies letter submission failures
type MailReason string

const (
	MailProviderRejected  MailReason = "ProviderRejected"
	MailUnreachable       MailReason = "Unreachable"
	MailMalformedResponse MailReason = "MalformedResponse"
)

// MailError is raised when the letter provider does not accept the packet
type MailError struct {
	Reason     MailReason
	StatusCode int
	Details    []byte
	Cause      error
}

func (e *MailError) Error() string {
	return providerMessage("mail provider", string(e.Reason), e.StatusCode, e.Cause)
}

func (e *MailError) Unwrap() error { return e.Cause }

// HTTPStatus returns the upstream status code, 0 when none was received
func (e *MailError) HTTPStatus() int { return e.StatusCode }

// ProviderDetails returns the upstream response body
func (e *MailError) ProviderDetails() []byte { return e.Details }

// ProviderFailure is implemented by errors that came from an external HTTP provider
type ProviderFailure interface {
	error
	HTTPStatus() int
	ProviderDetails() []byte
}

// ErrUnhandled marks a failure that escaped every typed error path
var ErrUnhandled = errors.New("unhandled error")

// ErrRecordNotFound is returned when the journal holds no record for a request
var ErrRecordNotFound = errors.New("audit record not found")

// ErrPacketNotFound is returned when no archived packet exists under a key
var ErrPacketNotFound = errors.New("archived packet not found")

// PipelineError wraps the error that moved the pipeline into the failed state
type PipelineError struct {
	Stage     Stage
	RequestID string
	// TrackingNumber is set when the label was issued before the failure
	TrackingNumber string
	Audit          DeliveryOutcome
	Err            error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage.Title(), e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// FailureEvent renders the audit lastEvent text for a failed stage,
// naming the upstream HTTP status when one is known.
func FailureEvent(stage Stage, err error) string {
	var pf ProviderFailure
	if errors.As(err, &pf) && pf.HTTPStatus() > 0 {
		return fmt.Sprintf("%s failed: HTTP %d: %v", stage.Title(), pf.HTTPStatus(), err)
	}
	return fmt.Sprintf("%s failed: %v", stage.Title(), err)
}

func providerMessage(provider, reason string, status int, cause error) string {
	msg := provider + ": " + reason
	if status > 0 {
		msg += fmt.Sprintf(" (HTTP %d)", status)
	}
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return msg
}
