// Package audit delivers one outcome record per return request to the
// configured sinks. Delivery is best effort: sinks report a DeliveryOutcome
// and never return an error to the pipeline.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/returnmail/backend/internal/domain/returns"
	"go.uber.org/zap"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookConfig holds the audit webhook settings
type WebhookConfig struct {
	// URL is the receiver; empty disables the sink
	URL     string
	Timeout time.Duration
}

// WebhookSink posts audit records as JSON to an automation webhook
type WebhookSink struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ returns.AuditSink = (*WebhookSink)(nil)

// NewWebhookSink creates a webhook sink
func NewWebhookSink(cfg WebhookConfig, logger *zap.Logger) *WebhookSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultWebhookTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookSink{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("audit.webhook"),
	}
}

// Enabled reports whether a webhook URL is configured
func (s *WebhookSink) Enabled() bool {
	return s.url != ""
}

// Record posts the record. Without a URL it returns a skipped outcome and
// performs no I/O.
func (s *WebhookSink) Record(ctx context.Context, rec returns.AuditRecord) (outcome returns.DeliveryOutcome) {
	if s.url == "" {
		return returns.SkippedOutcome()
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = failed(0, fmt.Errorf("panic: %v", r))
		}
		if outcome.Status == returns.DeliveryFailed {
			s.logger.Warn("audit webhook delivery failed",
				zap.String("request_id", rec.RequestID),
				zap.Int("http_status", outcome.HTTPStatus),
				zap.String("error", outcome.Error))
		}
	}()

	body, err := json.Marshal(rec)
	if err != nil {
		return failed(0, fmt.Errorf("encode record: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return failed(0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return failed(0, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failed(resp.StatusCode, fmt.Errorf("webhook returned HTTP %d", resp.StatusCode))
	}

	s.logger.Debug("audit record delivered",
		zap.String("request_id", rec.RequestID),
		zap.String("status", string(rec.Status)))
	return returns.DeliveryOutcome{Status: returns.DeliveryOK, HTTPStatus: resp.StatusCode}
}

func failed(status int, err error) returns.DeliveryOutcome {
	return returns.DeliveryOutcome{Status: returns.DeliveryFailed, HTTPStatus: status, Error: err.Error()}
}
