package dto

import (
	"encoding/json"

	"github.com/returnmail/backend/internal/domain/returns"
)

// ErrorResponse is the failure envelope of every endpoint
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code"`
	// Stage names the pipeline stage that failed
	Stage          string   `json:"stage,omitempty"`
	RequestID      string   `json:"requestId,omitempty"`
	TrackingNumber string   `json:"trackingNumber,omitempty"`
	Missing        []string `json:"missing,omitempty"`
	Invalid        []string `json:"invalid,omitempty"`
	// Details is the rejecting provider's response body, passed through
	Details any                      `json:"details,omitempty"`
	Audit   *returns.DeliveryOutcome `json:"audit,omitempty"`
}

// NewErrorResponse creates a failure envelope
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{OK: false, Error: message, Code: code}
}

// ProviderDetails returns body as raw JSON when it is JSON, otherwise as a string
func ProviderDetails(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status   string   `json:"status"`
	Time     string   `json:"time"`
	Config   string   `json:"config"`
	Missing  []string `json:"missing,omitempty"`
	Database string   `json:"database,omitempty"`
}

// SystemInfoResponse describes the running build
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Env       string `json:"env"`
	GoVersion string `json:"goVersion"`
	Uptime    string `json:"uptime"`
}
