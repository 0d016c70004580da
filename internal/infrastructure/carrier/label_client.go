package carrier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/returnmail/backend/internal/domain/returns"
	"go.uber.org/zap"
)

// LabelClient issues return labels through the carrier label API
type LabelClient struct {
	config     *LabelConfig
	httpClient *http.Client
	keyer      IdempotencyKeyer
	now        func() time.Time
	logger     *zap.Logger
}

// NewLabelClient creates a label client. A nil keyer issues random keys.
func NewLabelClient(config *LabelConfig, keyer IdempotencyKeyer, logger *zap.Logger) (*LabelClient, error) {
	if config == nil {
		return nil, ErrConfigMissingReturnTo
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if keyer == nil {
		keyer = RandomKeyer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LabelClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		keyer:      keyer,
		now:        time.Now,
		logger:     logger.Named("carrier.label"),
	}, nil
}

// CreateLabel requests a return label with the customer as sender
func (c *LabelClient) CreateLabel(ctx context.Context, accessToken string, req returns.ReturnRequest, returnTo *returns.Address) (*returns.LabelResult, error) {
	from := req.Address()
	to := c.config.ReturnTo
	if returnTo != nil {
		to = returnTo.Normalized()
	}
	if missing := from.MissingFields(); len(missing) > 0 {
		return nil, &returns.LabelError{
			Reason: returns.LabelRejectedByCarrier,
			Cause:  fmt.Errorf("sender address missing %s", strings.Join(missing, ", ")),
		}
	}
	if missing := to.MissingFields(); len(missing) > 0 {
		return nil, &returns.LabelError{
			Reason: returns.LabelRejectedByCarrier,
			Cause:  fmt.Errorf("return-to address missing %s", strings.Join(missing, ", ")),
		}
	}

	weight := c.config.Weights.Resolve(req)
	key, duplicate := c.keyer.Key(ctx, from, to, weight)

	body, err := json.Marshal(c.buildRequest(from, to, weight))
	if err != nil {
		return nil, &returns.LabelError{Reason: returns.LabelRejectedByCarrier, Cause: fmt.Errorf("encode label request: %w", err)}
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.config.APIBaseURL+labelPath, bytes.NewReader(body))
	if err != nil {
		return nil, &returns.LabelError{Reason: returns.LabelUnreachable, Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Idempotency-Key", key)

	resp, err := doRequest(ctx, c.httpClient, httpReq)
	if err != nil {
		return nil, &returns.LabelError{Reason: returns.LabelUnreachable, Cause: err}
	}
	if !resp.ok() {
		return nil, labelStatusError(resp)
	}

	var parsed labelResponse
	if err := json.Unmarshal(resp.body, &parsed); err != nil {
		return nil, &returns.LabelError{Reason: returns.LabelMalformedResponse, StatusCode: resp.status, Details: resp.details(), Cause: err}
	}
	parsed = parsed.merged()

	labelBytes, err := c.labelDocument(ctx, accessToken, parsed)
	if err != nil {
		return nil, err
	}

	c.keyer.Issued(ctx, key)

	serviceType := parsed.ServiceType
	if serviceType == "" {
		serviceType = c.config.MailClass
	}

	c.logger.Info("return label issued",
		zap.String("tracking_number", parsed.TrackingNumber),
		zap.String("label_id", parsed.LabelID),
		zap.Bool("duplicate", duplicate),
		zap.Int("label_bytes", len(labelBytes)))

	return &returns.LabelResult{
		TrackingNumber: parsed.TrackingNumber,
		LabelBytes:     labelBytes,
		ServiceType:    serviceType,
		LabelID:        parsed.LabelID,
		Postage:        parsed.Postage,
		WeightOz:       weight,
		IdempotencyKey: key,
		Duplicate:      duplicate,
	}, nil
}

func (c *LabelClient) buildRequest(from, to returns.Address, weight *int) labelRequest {
	return labelRequest{
		ImageInfo: imageInfo{
			ImageType: c.config.ImageType,
			LabelType: c.config.LabelType,
		},
		ToAddress:   toLabelAddress(to),
		FromAddress: toLabelAddress(from),
		PackageDescription: packageDescription{
			WeightUOM:          "oz",
			Weight:             weight,
			MailClass:          c.config.MailClass,
			ProcessingCategory: c.config.ProcessingCategory,
			RateIndicator:      c.config.RateIndicator,
			MailingDate:        c.now().Format("2006-01-02"),
		},
		IsReturnLabel: true,
	}
}

// labelDocument returns inline label bytes or fetches them from the returned URL
func (c *LabelClient) labelDocument(ctx context.Context, accessToken string, parsed labelResponse) ([]byte, error) {
	if parsed.LabelImage != "" {
		data, err := decodeLabelImage(parsed.LabelImage)
		if err != nil {
			return nil, &returns.LabelError{Reason: returns.LabelMalformedResponse, Cause: fmt.Errorf("decode labelImage: %w", err)}
		}
		return data, nil
	}
	if parsed.LabelURL == "" {
		return nil, &returns.LabelError{Reason: returns.LabelMalformedResponse, Cause: fmt.Errorf("response has neither labelImage nor labelUrl")}
	}

	target, err := c.resolve(parsed.LabelURL)
	if err != nil {
		return nil, &returns.LabelError{Reason: returns.LabelMalformedResponse, Cause: err}
	}
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return nil, &returns.LabelError{Reason: returns.LabelMalformedResponse, Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/pdf")

	resp, err := doRequest(ctx, c.httpClient, req)
	if err != nil {
		return nil, &returns.LabelError{Reason: returns.LabelUnreachable, Cause: fmt.Errorf("fetch label document: %w", err)}
	}
	if !resp.ok() {
		return nil, labelStatusError(resp)
	}
	if len(resp.body) == 0 {
		return nil, &returns.LabelError{Reason: returns.LabelMalformedResponse, StatusCode: resp.status, Cause: fmt.Errorf("empty label document")}
	}
	if !bytes.HasPrefix(resp.body, []byte("%PDF")) {
		if data, err := decodeLabelImage(string(resp.body)); err == nil {
			return data, nil
		}
	}
	return resp.body, nil
}

// resolve makes relative label URLs absolute against the API base
func (c *LabelClient) resolve(ref string) (string, error) {
	base, err := url.Parse(c.config.APIBaseURL + "/")
	if err != nil {
		return "", err
	}
	u, err := base.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid labelUrl %q: %w", ref, err)
	}
	return u.String(), nil
}

func labelStatusError(resp *response) error {
	reason := returns.LabelRejectedByCarrier
	switch {
	case resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden:
		reason = returns.LabelAuthFailed
	case resp.status >= 500:
		reason = returns.LabelUnreachable
	}
	return &returns.LabelError{
		Reason:     reason,
		StatusCode: resp.status,
		Details:    resp.details(),
		Cause:      fmt.Errorf("carrier returned HTTP %d", resp.status),
	}
}

func decodeLabelImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ","); strings.HasPrefix(s, "data:") && i > 0 {
		s = s[i+1:]
	}
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

func toLabelAddress(a returns.Address) labelAddress {
	first, last := splitName(a.Name)
	zip, plus4 := splitZIP(a.Postal)
	return labelAddress{
		FirstName:        first,
		LastName:         last,
		Firm:             a.Company,
		StreetAddress:    a.Line1,
		SecondaryAddress: a.Line2,
		City:             a.City,
		State:            a.State,
		ZIPCode:          zip,
		ZIPPlus4:         plus4,
		Phone:            digitsOnly(a.Phone),
		Email:            a.Email,
	}
}

func splitName(name string) (string, string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

func splitZIP(postal string) (string, string) {
	zip, plus4, _ := strings.Cut(strings.TrimSpace(postal), "-")
	return zip, plus4
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var _ returns.LabelIssuer = (*LabelClient)(nil)
