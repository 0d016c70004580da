package mail

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testSender() returns.Address {
	return returns.Address{
		Name:    "Acme Devices",
		Company: "Acme Devices Inc",
		Line1:   "100 Dock Rd",
		City:    "Reno",
		State:   "NV",
		Postal:  "89501",
	}
}

func janeDoe() returns.Address {
	return returns.Address{
		Name:   "Jane Doe",
		Line1:  "1 Main St",
		City:   "Springfield",
		State:  "il",
		Postal: "62704",
		Phone:  "2175551234",
	}
}

func testDocument() *returns.ComposedDocument {
	return &returns.ComposedDocument{Bytes: []byte("%PDF-1.4 packet"), PageCount: 2}
}

func newTestClient(t *testing.T, url string) *LetterClient {
	t.Helper()
	client, err := NewLetterClient(&Config{
		APIURL: url,
		APIKey: "test_key",
		Sender: testSender(),
		Options: returns.MailOptions{
			Description: "Return shipping label",
		},
		Timeout: 2 * time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return client
}

func TestConfig_Validate(t *testing.T) {
	t.Run("api key required", func(t *testing.T) {
		cfg := &Config{Sender: testSender()}
		assert.ErrorIs(t, cfg.Validate(), ErrConfigMissingAPIKey)
	})

	t.Run("sender must be mailable", func(t *testing.T) {
		cfg := &Config{APIKey: "k", Sender: returns.Address{Name: "Acme"}}
		assert.ErrorIs(t, cfg.Validate(), ErrConfigMissingSender)
	})

	t.Run("invalid url", func(t *testing.T) {
		cfg := &Config{APIKey: "k", APIURL: "letters", Sender: testSender()}
		assert.ErrorIs(t, cfg.Validate(), ErrConfigInvalidURL)
	})

	t.Run("defaults", func(t *testing.T) {
		cfg := &Config{APIKey: "k", Sender: testSender()}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DefaultAPIURL, cfg.APIURL)
		assert.Equal(t, "operational", cfg.Options.UseType)
		assert.Equal(t, "insert_blank_page", cfg.Options.AddressPlacement)
		assert.Equal(t, defaultTimeout, cfg.Timeout)
		assert.Equal(t, "US", cfg.Sender.Country)
	})
}

func TestLetterClient_Submit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "test_key", user)
		assert.Empty(t, pass)
		assert.Equal(t, "req-1", r.Header.Get("Idempotency-Key"))

		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "Jane Doe", r.FormValue("to[name]"))
		assert.Equal(t, "1 Main St", r.FormValue("to[address_line1]"))
		assert.Equal(t, "IL", r.FormValue("to[address_state]"))
		assert.Equal(t, "62704", r.FormValue("to[address_zip]"))
		assert.Equal(t, "US", r.FormValue("to[address_country]"))
		assert.Empty(t, r.MultipartForm.Value["to[address_line2]"])
		assert.Equal(t, "Acme Devices", r.FormValue("from[name]"))
		assert.Equal(t, "Acme Devices Inc", r.FormValue("from[company]"))
		assert.Equal(t, "false", r.FormValue("color"))
		assert.Equal(t, "operational", r.FormValue("use_type"))
		assert.Equal(t, "insert_blank_page", r.FormValue("address_placement"))
		assert.Equal(t, "Return shipping label", r.FormValue("description"))
		assert.Equal(t, "9400100000000000000000", r.FormValue("metadata[tracking_number]"))

		file, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer file.Close()
			data, _ := io.ReadAll(file)
			assert.Equal(t, "%PDF-1.4 packet", string(data))
			assert.Equal(t, "return-packet.pdf", header.Filename)
			assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"ltr_4868c3b754655f90","status":"processed_for_delivery","expected_delivery_date":"2026-10-22"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.Submit(context.Background(), testDocument(), nil, janeDoe(), returns.MailOptions{
		IdempotencyKey: "req-1",
		Metadata:       map[string]string{"tracking_number": "9400100000000000000000", "label_id": ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "ltr_4868c3b754655f90", result.LetterID)
	assert.Equal(t, "processed_for_delivery", result.Status)
}

func TestLetterClient_SubmitOverridesSender(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Warehouse B", r.FormValue("from[name]"))
		assert.Equal(t, "true", r.FormValue("color"))
		_, _ = io.WriteString(w, `{"id":"ltr_1"}`)
	}))
	defer server.Close()

	from := testSender()
	from.Name = "Warehouse B"
	client := newTestClient(t, server.URL)
	result, err := client.Submit(context.Background(), testDocument(), &from, janeDoe(), returns.MailOptions{Color: true})
	require.NoError(t, err)
	assert.Equal(t, "ltr_1", result.LetterID)
	assert.Equal(t, "submitted", result.Status)
}

func TestLetterClient_SubmitErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantReason returns.MailReason
		wantMsg    string
	}{
		{
			name:       "rejected with provider message",
			status:     http.StatusUnprocessableEntity,
			body:       `{"error":{"message":"to.address_zip is invalid","status_code":422}}`,
			wantReason: returns.MailProviderRejected,
			wantMsg:    "to.address_zip is invalid",
		},
		{
			name:       "unauthorized",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"message":"Your API key is not valid."}}`,
			wantReason: returns.MailProviderRejected,
			wantMsg:    "HTTP 401",
		},
		{
			name:       "server error",
			status:     http.StatusBadGateway,
			body:       `upstream`,
			wantReason: returns.MailUnreachable,
			wantMsg:    "HTTP 502",
		},
		{
			name:       "missing letter id",
			status:     http.StatusOK,
			body:       `{"status":"ok"}`,
			wantReason: returns.MailMalformedResponse,
			wantMsg:    "no letter id",
		},
		{
			name:       "not json",
			status:     http.StatusOK,
			body:       `<html></html>`,
			wantReason: returns.MailMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			_, err := client.Submit(context.Background(), testDocument(), nil, janeDoe(), returns.MailOptions{})
			require.Error(t, err)

			var mailErr *returns.MailError
			require.True(t, errors.As(err, &mailErr))
			assert.Equal(t, tt.wantReason, mailErr.Reason)
			assert.Equal(t, tt.status, mailErr.HTTPStatus())
			assert.Equal(t, tt.body, string(mailErr.ProviderDetails()))
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLetterClient_SubmitUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(t, url)
	_, err := client.Submit(context.Background(), testDocument(), nil, janeDoe(), returns.MailOptions{})

	var mailErr *returns.MailError
	require.True(t, errors.As(err, &mailErr))
	assert.Equal(t, returns.MailUnreachable, mailErr.Reason)
	assert.Zero(t, mailErr.HTTPStatus())
}

func TestLetterClient_SubmitRejectsBeforeNetwork(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()
	client := newTestClient(t, server.URL)

	t.Run("empty document", func(t *testing.T) {
		_, err := client.Submit(context.Background(), &returns.ComposedDocument{}, nil, janeDoe(), returns.MailOptions{})
		var mailErr *returns.MailError
		require.True(t, errors.As(err, &mailErr))
		assert.Equal(t, returns.MailProviderRejected, mailErr.Reason)
	})

	t.Run("incomplete recipient", func(t *testing.T) {
		_, err := client.Submit(context.Background(), testDocument(), nil, returns.Address{Name: "Jane"}, returns.MailOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line1, city, state, postal")
	})

	assert.Zero(t, calls)
}
