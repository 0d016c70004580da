// Package mail submits composed return packets to the letter-mail provider.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strconv"
	"strings"

	"github.com/returnmail/backend/internal/domain/returns"
	"go.uber.org/zap"
)

const (
	maxResponseSize = 1 << 20
	maxDetailSize   = 4 << 10

	packetFilename = "return-packet.pdf"
)

// LetterClient creates letters through the provider's multipart API
type LetterClient struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

var _ returns.MailSubmitter = (*LetterClient)(nil)

// NewLetterClient creates a letter client
func NewLetterClient(config *Config, logger *zap.Logger) (*LetterClient, error) {
	if config == nil {
		return nil, ErrConfigMissingAPIKey
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LetterClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.Named("mail.letter"),
	}, nil
}

// Submit sends the packet to the recipient. A nil from uses the configured sender.
func (c *LetterClient) Submit(ctx context.Context, doc *returns.ComposedDocument, from *returns.Address, to returns.Address, opts returns.MailOptions) (*returns.MailSubmissionResult, error) {
	if doc == nil || len(doc.Bytes) == 0 {
		return nil, &returns.MailError{Reason: returns.MailProviderRejected, Cause: errors.New("empty document")}
	}
	sender := c.config.Sender
	if from != nil {
		sender = from.Normalized()
	}
	to = to.Normalized()
	if missing := to.MissingFields(); len(missing) > 0 {
		return nil, &returns.MailError{
			Reason: returns.MailProviderRejected,
			Cause:  fmt.Errorf("recipient address missing %s", strings.Join(missing, ", ")),
		}
	}
	opts = c.withDefaults(opts)

	body, contentType, err := c.buildForm(doc, sender, to, opts)
	if err != nil {
		return nil, &returns.MailError{Reason: returns.MailProviderRejected, Cause: fmt.Errorf("encode letter form: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL, body)
	if err != nil {
		return nil, &returns.MailError{Reason: returns.MailUnreachable, Cause: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	// Basic auth with the API key as user and an empty secret
	req.SetBasicAuth(c.config.APIKey, "")
	if opts.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", opts.IdempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &returns.MailError{Reason: returns.MailUnreachable, Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &returns.MailError{Reason: returns.MailUnreachable, StatusCode: resp.StatusCode, Cause: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, respBody)
	}

	var letter letterResponse
	if err := json.Unmarshal(respBody, &letter); err != nil {
		return nil, &returns.MailError{Reason: returns.MailMalformedResponse, StatusCode: resp.StatusCode, Details: truncate(respBody), Cause: err}
	}
	if letter.ID == "" {
		return nil, &returns.MailError{
			Reason:     returns.MailMalformedResponse,
			StatusCode: resp.StatusCode,
			Details:    truncate(respBody),
			Cause:      errors.New("response has no letter id"),
		}
	}

	status := letter.Status
	if status == "" {
		status = "submitted"
	}
	c.logger.Info("letter submitted",
		zap.String("letter_id", letter.ID),
		zap.String("status", status),
		zap.String("expected_delivery_date", letter.ExpectedDeliveryDate),
		zap.Int("pages", doc.PageCount))

	return &returns.MailSubmissionResult{LetterID: letter.ID, Status: status}, nil
}

func (c *LetterClient) withDefaults(opts returns.MailOptions) returns.MailOptions {
	if opts.UseType == "" {
		opts.UseType = c.config.Options.UseType
	}
	if opts.AddressPlacement == "" {
		opts.AddressPlacement = c.config.Options.AddressPlacement
	}
	if opts.Description == "" {
		opts.Description = c.config.Options.Description
	}
	return opts
}

// buildForm writes the nested-field multipart body
func (c *LetterClient) buildForm(doc *returns.ComposedDocument, from, to returns.Address, opts returns.MailOptions) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := addressFields("to", to)
	fields = append(fields, addressFields("from", from)...)
	fields = append(fields,
		[2]string{"color", strconv.FormatBool(opts.Color)},
		[2]string{"use_type", opts.UseType},
		[2]string{"address_placement", opts.AddressPlacement},
	)
	if opts.Description != "" {
		fields = append(fields, [2]string{"description", opts.Description})
	}

	keys := make([]string, 0, len(opts.Metadata))
	for k := range opts.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := opts.Metadata[k]; v != "" {
			fields = append(fields, [2]string{"metadata[" + k + "]", v})
		}
	}

	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, packetFilename))
	header.Set("Content-Type", "application/pdf")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(doc.Bytes); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func statusError(status int, body []byte) *returns.MailError {
	reason := returns.MailProviderRejected
	if status >= 500 {
		reason = returns.MailUnreachable
	}

	cause := fmt.Errorf("provider returned HTTP %d", status)
	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		cause = errors.New(envelope.Error.Message)
	}
	return &returns.MailError{Reason: reason, StatusCode: status, Details: truncate(body), Cause: cause}
}

func truncate(body []byte) []byte {
	if len(body) > maxDetailSize {
		return body[:maxDetailSize]
	}
	return body
}
