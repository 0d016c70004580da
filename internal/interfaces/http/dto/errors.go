package dto

import "net/http"

// Error codes follow ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeUnhandled is used when a failure escaped every typed error path
	ErrCodeUnhandled = "ERR_UNHANDLED"
	// ErrCodeConfig is used while required secrets are missing
	ErrCodeConfig = "ERR_SERVER_MISCONFIGURED"
)

// Request error codes
const (
	// ErrCodeValidation is used when required fields are missing or malformed
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeInvalidJSON is used when the body is not a JSON object
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeUnauthorized is used when the caller's own credential is absent or wrong
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller's address may not reach a route
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeNotFound is used for unknown routes and records
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeMethodNotAllowed is used when a route exists for another method
	ErrCodeMethodNotAllowed = "ERR_METHOD_NOT_ALLOWED"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeRateLimited is used when the rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// Upstream error codes
const (
	// ErrCodeCarrierAuth is used when the carrier token exchange fails
	ErrCodeCarrierAuth = "ERR_CARRIER_AUTH"
	// ErrCodeLabel is used when the carrier does not issue a label
	ErrCodeLabel = "ERR_LABEL"
	// ErrCodeCompose is used when the packet cannot be assembled
	ErrCodeCompose = "ERR_COMPOSE"
	// ErrCodeMail is used when the letter provider rejects the packet
	ErrCodeMail = "ERR_MAIL"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:  http.StatusInternalServerError,
	ErrCodeUnhandled: http.StatusInternalServerError,
	ErrCodeConfig:    http.StatusInternalServerError,

	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeInvalidJSON:      http.StatusBadRequest,
	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeForbidden:        http.StatusForbidden,
	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeMethodNotAllowed: http.StatusMethodNotAllowed,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:      http.StatusTooManyRequests,

	// Upstream rejections -> 502 Bad Gateway
	ErrCodeCarrierAuth: http.StatusBadGateway,
	ErrCodeLabel:       http.StatusBadGateway,
	ErrCodeMail:        http.StatusBadGateway,
	// Composition runs locally
	ErrCodeCompose: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
