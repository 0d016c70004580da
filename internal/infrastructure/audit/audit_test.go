package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testRecord() returns.AuditRecord {
	created := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	rec := returns.NewAuditRecord("0d9f4a52-5b4c-4d1a-8c39-1b2f3a4c5d6e", "returns-api", returns.ReturnRequest{
		Name:       "Jane Doe",
		Address1:   "1 Main St",
		City:       "Springfield",
		State:      "IL",
		Zip:        "62704",
		Phone:      "2175551234",
		DeviceType: "base-unit",
	}, created)
	rec.Status = returns.AuditStatusCreated
	rec.TrackingNumber = "9400100000000000000000"
	rec.LastEvent = "Letter created"
	return rec
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Record(ctx context.Context, rec returns.AuditRecord) returns.DeliveryOutcome {
	args := m.Called(ctx, rec)
	return args.Get(0).(returns.DeliveryOutcome)
}

type mockJournal struct {
	mock.Mock
}

func (m *mockJournal) Save(ctx context.Context, rec returns.AuditRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func TestWebhookSink_SkippedWithoutURL(t *testing.T) {
	sink := NewWebhookSink(WebhookConfig{}, zaptest.NewLogger(t))

	assert.False(t, sink.Enabled())
	assert.Equal(t, returns.SkippedOutcome(), sink.Record(context.Background(), testRecord()))
}

func TestWebhookSink_PostsFlatRecord(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := NewWebhookSink(WebhookConfig{URL: server.URL}, zaptest.NewLogger(t))
	outcome := sink.Record(context.Background(), testRecord())

	assert.Equal(t, returns.DeliveryOK, outcome.Status)
	assert.Equal(t, http.StatusOK, outcome.HTTPStatus)

	require.NotNil(t, payload)
	assert.Equal(t, "Created", payload["status"])
	assert.Equal(t, "9400100000000000000000", payload["trackingNumber"])
	assert.Equal(t, "Jane Doe", payload["name"])
	// unknown values are present and null or empty
	for _, key := range []string{"weightOz", "postage", "deliveredAt"} {
		value, ok := payload[key]
		assert.True(t, ok, key)
		assert.Nil(t, value, key)
	}
	for _, key := range []string{"letterId", "labelId", "address2", "deviceSerial"} {
		value, ok := payload[key]
		assert.True(t, ok, key)
		assert.Equal(t, "", value, key)
	}
}

func TestWebhookSink_Failures(t *testing.T) {
	t.Run("non 2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		outcome := NewWebhookSink(WebhookConfig{URL: server.URL}, zaptest.NewLogger(t)).Record(context.Background(), testRecord())
		assert.Equal(t, returns.DeliveryFailed, outcome.Status)
		assert.Equal(t, http.StatusInternalServerError, outcome.HTTPStatus)
		assert.Contains(t, outcome.Error, "HTTP 500")
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		outcome := NewWebhookSink(WebhookConfig{URL: url}, zaptest.NewLogger(t)).Record(context.Background(), testRecord())
		assert.Equal(t, returns.DeliveryFailed, outcome.Status)
		assert.Zero(t, outcome.HTTPStatus)
		assert.NotEmpty(t, outcome.Error)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer server.Close()
		defer close(release)

		sink := NewWebhookSink(WebhookConfig{URL: server.URL, Timeout: 50 * time.Millisecond}, zaptest.NewLogger(t))
		outcome := sink.Record(context.Background(), testRecord())
		assert.Equal(t, returns.DeliveryFailed, outcome.Status)
	})
}

func TestJournalSink_Record(t *testing.T) {
	rec := testRecord()

	t.Run("saved", func(t *testing.T) {
		repo := new(mockJournal)
		repo.On("Save", mock.Anything, rec).Return(nil)

		outcome := NewJournalSink(repo, zaptest.NewLogger(t)).Record(context.Background(), rec)
		assert.Equal(t, returns.DeliveryOK, outcome.Status)
		repo.AssertExpectations(t)
	})

	t.Run("save error becomes failed outcome", func(t *testing.T) {
		repo := new(mockJournal)
		repo.On("Save", mock.Anything, rec).Return(errors.New("database is locked"))

		outcome := NewJournalSink(repo, zaptest.NewLogger(t)).Record(context.Background(), rec)
		assert.Equal(t, returns.DeliveryFailed, outcome.Status)
		assert.Equal(t, "database is locked", outcome.Error)
	})
}

func TestFanout_Record(t *testing.T) {
	rec := testRecord()

	t.Run("returns primary outcome and calls secondaries", func(t *testing.T) {
		primary := new(mockSink)
		secondary := new(mockSink)
		primary.On("Record", mock.Anything, rec).Return(returns.DeliveryOutcome{Status: returns.DeliveryOK, HTTPStatus: 200})
		secondary.On("Record", mock.Anything, rec).Return(returns.DeliveryOutcome{Status: returns.DeliveryFailed, Error: "disk full"})

		outcome := NewFanout(primary, zaptest.NewLogger(t), secondary).Record(context.Background(), rec)

		assert.Equal(t, returns.DeliveryOK, outcome.Status)
		primary.AssertExpectations(t)
		secondary.AssertExpectations(t)
	})

	t.Run("nil primary is skipped", func(t *testing.T) {
		secondary := new(mockSink)
		secondary.On("Record", mock.Anything, rec).Return(returns.DeliveryOutcome{Status: returns.DeliveryOK})

		outcome := NewFanout(nil, nil, secondary, nil).Record(context.Background(), rec)

		assert.Equal(t, returns.DeliverySkipped, outcome.Status)
		secondary.AssertNumberOfCalls(t, "Record", 1)
	})
}
