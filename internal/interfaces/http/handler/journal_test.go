package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/returnmail/backend/internal/infrastructure/auth"
	"github.com/returnmail/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const opsAuthorization = "Basic b3BzOnNlY3JldA==" // ops:secret

type fakeJournal struct {
	records map[string]returns.AuditRecord
	err     error
}

func (f *fakeJournal) FindByRequestID(_ context.Context, requestID string) (*returns.AuditRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[requestID]
	if !ok {
		return nil, returns.ErrRecordNotFound
	}
	return &rec, nil
}

func (f *fakeJournal) FindByTrackingNumber(_ context.Context, trackingNumber string) ([]returns.AuditRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []returns.AuditRecord
	for _, rec := range f.records {
		if rec.TrackingNumber == trackingNumber {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakePackets struct {
	packets map[string][]byte
	opened  []string
}

func (f *fakePackets) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.opened = append(f.opened, key)
	data, ok := f.packets[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", returns.ErrPacketNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func newJournalRouter(h *JournalHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func getJournal(r http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func journalFixture() *fakeJournal {
	created := time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC)
	return &fakeJournal{records: map[string]returns.AuditRecord{
		testRequestID: {
			RequestID:      testRequestID,
			TrackingNumber: "9200190000000000000001",
			Status:         returns.AuditStatusCreated,
			CreatedAt:      created,
			LastCheckedAt:  created.Add(2 * time.Minute),
		},
	}}
}

func TestJournalHandler_Get(t *testing.T) {
	r := newJournalRouter(NewJournalHandler(journalFixture(), auth.NewBasicCredential("ops", "secret"), nil, "returns"))
	authed := http.Header{"Authorization": {opsAuthorization}}

	t.Run("found", func(t *testing.T) {
		w := getJournal(r, "/api/v1/returns/"+testRequestID, authed)
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.JournalEntryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.OK)
		assert.Equal(t, "9200190000000000000001", resp.Record.TrackingNumber)
	})

	t.Run("unknown request", func(t *testing.T) {
		w := getJournal(r, "/api/v1/returns/missing", authed)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decodeError(t, w).Code)
	})

	t.Run("credential required", func(t *testing.T) {
		w := getJournal(r, "/api/v1/returns/"+testRequestID, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, `Basic realm="returns"`, w.Header().Get("WWW-Authenticate"))
		assert.NotContains(t, w.Body.String(), "9200190000000000000001")
	})

	t.Run("journal failure", func(t *testing.T) {
		broken := newJournalRouter(NewJournalHandler(&fakeJournal{err: errors.New("connection reset")}, auth.NewBasicCredential("ops", "secret"), nil, ""))
		w := getJournal(broken, "/api/v1/returns/"+testRequestID, authed)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})
}

func TestJournalHandler_List(t *testing.T) {
	r := newJournalRouter(NewJournalHandler(journalFixture(), auth.NewStaticAccessCode("let-me-in"), nil, ""))
	withCode := http.Header{AccessCodeHeader: {"let-me-in"}}

	w := getJournal(r, "/api/v1/returns?trackingNumber=9200190000000000000001", withCode)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.JournalListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, testRequestID, resp.Records[0].RequestID)

	w = getJournal(r, "/api/v1/returns?trackingNumber=unknown", withCode)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"records":[]}`, w.Body.String())

	w = getJournal(r, "/api/v1/returns", withCode)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decodeError(t, w).Code)

	w = getJournal(r, "/api/v1/returns?trackingNumber=9200190000000000000001", http.Header{AccessCodeHeader: {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJournalHandler_Misconfigured(t *testing.T) {
	r := newJournalRouter(NewJournalHandler(journalFixture(), nil, nil, ""))

	w := getJournal(r, "/api/v1/returns/"+testRequestID, http.Header{"Authorization": {opsAuthorization}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrCodeConfig, decodeError(t, w).Code)
}

func TestJournalHandler_Packet(t *testing.T) {
	authed := http.Header{"Authorization": {opsAuthorization}}
	basic := auth.NewBasicCredential("ops", "secret")

	t.Run("archive disabled", func(t *testing.T) {
		r := newJournalRouter(NewJournalHandler(journalFixture(), basic, nil, ""))
		w := getJournal(r, "/api/v1/returns/"+testRequestID+"/packet", authed)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("archived in the following month", func(t *testing.T) {
		packets := &fakePackets{packets: map[string][]byte{
			"returns/2026/04/" + testRequestID + ".pdf": []byte("%PDF-1.4 packet"),
		}}
		r := newJournalRouter(NewJournalHandler(journalFixture(), basic, packets, ""))

		w := getJournal(r, "/api/v1/returns/"+testRequestID+"/packet", authed)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), testRequestID+".pdf")
		assert.Equal(t, "%PDF-1.4 packet", w.Body.String())
		assert.Equal(t, []string{
			"returns/2026/03/" + testRequestID + ".pdf",
			"returns/2026/04/" + testRequestID + ".pdf",
		}, packets.opened)
	})

	t.Run("not archived", func(t *testing.T) {
		r := newJournalRouter(NewJournalHandler(journalFixture(), basic, &fakePackets{}, ""))
		w := getJournal(r, "/api/v1/returns/"+testRequestID+"/packet", authed)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "packet not archived", decodeError(t, w).Error)
	})

	t.Run("credential checked before the archive", func(t *testing.T) {
		packets := &fakePackets{}
		r := newJournalRouter(NewJournalHandler(journalFixture(), basic, packets, ""))
		w := getJournal(r, "/api/v1/returns/"+testRequestID+"/packet", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, packets.opened)
	})
}
