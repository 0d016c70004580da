package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/returnmail/backend/internal/domain/returns"
	"github.com/returnmail/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeS3 is a path-style bucket that keeps objects in memory
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{bucket: bucket, objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := "/" + f.bucket
	if !strings.HasPrefix(r.URL.Path, prefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	key := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			}
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(body)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStorage(t *testing.T, fake *fakeS3) *S3ObjectStorage {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := NewS3ObjectStorage(&config.StorageConfig{
		Endpoint:     server.URL,
		Bucket:       fake.bucket,
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return store
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{AccessKey: "k", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{Bucket: "b", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{Bucket: "b", AccessKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("endpoint without scheme gets one", func(t *testing.T) {
		store, err := NewS3ObjectStorage(&config.StorageConfig{
			Endpoint:  "minio:9000",
			Bucket:    "returns",
			AccessKey: "k",
			SecretKey: "s",
		})
		require.NoError(t, err)
		assert.Equal(t, "returns", store.Bucket())
	})
}

func TestS3ObjectStorage_RoundTrip(t *testing.T) {
	fake := newFakeS3("returns")
	store := newTestStorage(t, fake)
	ctx := context.Background()

	exists, err := store.ObjectExists(ctx, "instructions.pdf")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Upload(ctx, "instructions.pdf", []byte("%PDF-1.4 body"), "application/pdf"))

	exists, err = store.ObjectExists(ctx, "instructions.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := store.Download(ctx, "instructions.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))
	assert.Equal(t, "application/pdf", fake.types["instructions.pdf"])
}

func TestS3ObjectStorage_DownloadMissing(t *testing.T) {
	store := newTestStorage(t, newFakeS3("returns"))

	_, err := store.Download(context.Background(), "missing.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	store := newTestStorage(t, newFakeS3("returns"))
	ctx := context.Background()

	_, err := store.Download(ctx, "")
	assert.Error(t, err)
	assert.Error(t, store.Upload(ctx, "", []byte("x"), "text/plain"))
	_, err = store.ObjectExists(ctx, "")
	assert.Error(t, err)
}

func TestS3Archive_Archive(t *testing.T) {
	fake := newFakeS3("returns")
	store := newTestStorage(t, fake)

	archive := NewS3Archive(store, "/packets/", zaptest.NewLogger(t))
	archive.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }

	key, err := archive.Archive(context.Background(), "4b1e8f0a-1111-4c3d-9e2f-000000000001", &returns.ComposedDocument{
		Bytes:     []byte("%PDF-1.4 packet"),
		PageCount: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "packets/returns/2026/03/4b1e8f0a-1111-4c3d-9e2f-000000000001.pdf", key)
	assert.Equal(t, "%PDF-1.4 packet", string(fake.objects[key]))
	assert.Equal(t, "application/pdf", fake.types[key])

	_, err = archive.Archive(context.Background(), "id", &returns.ComposedDocument{})
	assert.Error(t, err)
}

func TestS3Archive_Open(t *testing.T) {
	fake := newFakeS3("returns")
	store := newTestStorage(t, fake)
	ctx := context.Background()

	archive := NewS3Archive(store, "packets", zaptest.NewLogger(t))
	archive.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }
	requestID := "4b1e8f0a-1111-4c3d-9e2f-000000000002"

	stored, err := archive.Archive(ctx, requestID, &returns.ComposedDocument{Bytes: []byte("%PDF-1.4 packet")})
	require.NoError(t, err)

	for _, key := range []string{stored, returns.ArchiveKey(requestID, archive.now())} {
		rc, err := archive.Open(ctx, key)
		require.NoError(t, err, key)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		assert.Equal(t, "%PDF-1.4 packet", string(data), key)
	}

	_, err = archive.Open(ctx, returns.ArchiveKey("4b1e8f0a-1111-4c3d-9e2f-000000000003", archive.now()))
	assert.ErrorIs(t, err, returns.ErrPacketNotFound)
}

func TestS3ObjectStorage_EnsureBucket(t *testing.T) {
	fake := newFakeS3("returns")
	store := newTestStorage(t, fake)
	ctx := context.Background()

	require.NoError(t, store.EnsureBucket(ctx))
	// CreateBucket lands on the fake as a PUT of the empty key
	fake.mu.Lock()
	_, created := fake.objects[""]
	fake.mu.Unlock()
	assert.True(t, created)

	// A second call finds the bucket and creates nothing
	require.NoError(t, store.EnsureBucket(ctx))
}
