package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipelineErr(stage returns.Stage, err error) error {
	return &returns.PipelineError{
		Stage:     stage,
		RequestID: "req-1",
		Audit:     returns.DeliveryOutcome{Status: returns.DeliveryOK, HTTPStatus: 200},
		Err:       err,
	}
}

func TestNewPipelineErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"config", pipelineErr(returns.StageValidating, &returns.ConfigError{Missing: []string{"mail.api_key"}}), http.StatusInternalServerError, ErrCodeConfig},
		{"validation", pipelineErr(returns.StageValidating, &returns.ValidationError{Missing: []string{"name"}}), http.StatusBadRequest, ErrCodeValidation},
		{"malformed body", pipelineErr(returns.StageValidating, &returns.MalformedRequestError{Cause: errors.New("unexpected EOF")}), http.StatusBadRequest, ErrCodeInvalidJSON},
		{"unauthorized", pipelineErr(returns.StageAuthenticating, &returns.UnauthorizedError{Reason: "wrong password"}), http.StatusUnauthorized, ErrCodeUnauthorized},
		{"carrier token", pipelineErr(returns.StageRequestingLabel, &returns.AuthError{Reason: returns.AuthInvalidCredentials, StatusCode: 401}), http.StatusBadGateway, ErrCodeCarrierAuth},
		{"label", pipelineErr(returns.StageRequestingLabel, &returns.LabelError{Reason: returns.LabelRejectedByCarrier, StatusCode: 400}), http.StatusBadGateway, ErrCodeLabel},
		{"compose", pipelineErr(returns.StageComposingDocument, &returns.ComposeError{Reason: returns.ComposeInvalidLabelDocument}), http.StatusInternalServerError, ErrCodeCompose},
		{"mail", pipelineErr(returns.StageSubmittingMail, &returns.MailError{Reason: returns.MailProviderRejected, StatusCode: 422}), http.StatusBadGateway, ErrCodeMail},
		{"unhandled", pipelineErr(returns.StageComposingDocument, fmt.Errorf("%w: nil map", returns.ErrUnhandled)), http.StatusInternalServerError, ErrCodeUnhandled},
		{"bare error", errors.New("boom"), http.StatusInternalServerError, ErrCodeUnhandled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := NewPipelineErrorResponse(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.False(t, resp.OK)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestNewPipelineErrorResponse_Fields(t *testing.T) {
	t.Run("validation lists fields", func(t *testing.T) {
		_, resp := NewPipelineErrorResponse(pipelineErr(returns.StageValidating,
			&returns.ValidationError{Missing: []string{"name", "zip"}, Invalid: []string{"email"}}))
		assert.Equal(t, []string{"name", "zip"}, resp.Missing)
		assert.Equal(t, []string{"email"}, resp.Invalid)
		assert.Equal(t, "validating", resp.Stage)
		assert.Equal(t, "req-1", resp.RequestID)
	})

	t.Run("unauthorized hides the reason", func(t *testing.T) {
		_, resp := NewPipelineErrorResponse(pipelineErr(returns.StageAuthenticating,
			&returns.UnauthorizedError{Reason: "user ops unknown"}))
		assert.Equal(t, "unauthorized", resp.Error)
	})

	t.Run("provider JSON passes through", func(t *testing.T) {
		perr := &returns.PipelineError{
			Stage:          returns.StageSubmittingMail,
			TrackingNumber: "9400",
			Audit:          returns.DeliveryOutcome{Status: returns.DeliveryFailed, Error: "webhook down"},
			Err:            &returns.MailError{Reason: returns.MailProviderRejected, StatusCode: 422, Details: []byte(`{"error":{"message":"bad zip"}}`)},
		}
		_, resp := NewPipelineErrorResponse(perr)

		body, err := json.Marshal(resp)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(body, &decoded))
		assert.Equal(t, false, decoded["ok"])
		assert.Equal(t, "9400", decoded["trackingNumber"])
		assert.Equal(t, map[string]any{"error": map[string]any{"message": "bad zip"}}, decoded["details"])
		assert.Equal(t, "failed", decoded["audit"].(map[string]any)["status"])
	})

	t.Run("non JSON provider body becomes a string", func(t *testing.T) {
		_, resp := NewPipelineErrorResponse(pipelineErr(returns.StageRequestingLabel,
			&returns.LabelError{Reason: returns.LabelUnreachable, StatusCode: 503, Details: []byte("<html>down</html>")}))
		assert.Equal(t, "<html>down</html>", resp.Details)
	})

	t.Run("skipped audit is omitted", func(t *testing.T) {
		_, resp := NewPipelineErrorResponse(&returns.PipelineError{
			Stage: returns.StageValidating,
			Audit: returns.SkippedOutcome(),
			Err:   &returns.ValidationError{Missing: []string{"name"}},
		})
		assert.Nil(t, resp.Audit)
	})

	t.Run("unhandled keeps only the summary", func(t *testing.T) {
		_, resp := NewPipelineErrorResponse(pipelineErr(returns.StageSubmittingMail,
			fmt.Errorf("%w: index out of range", returns.ErrUnhandled)))
		assert.Equal(t, "unhandled error: index out of range", resp.Error)
	})

	t.Run("unknown errors never leak their text", func(t *testing.T) {
		_, resp := NewPipelineErrorResponse(errors.New("dial tcp 10.0.0.5: secret host"))
		assert.Equal(t, "unhandled error", resp.Error)
	})
}
