package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/returnmail/backend/internal/domain/returns"
	"go.uber.org/zap"
)

const pdfContentType = "application/pdf"

// S3Archive keeps a copy of every composed packet in object storage
type S3Archive struct {
	store  *S3ObjectStorage
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

var (
	_ returns.DocumentArchive = (*S3Archive)(nil)
	_ returns.PacketReader    = (*S3Archive)(nil)
)

// NewS3Archive creates an archive rooted at prefix inside the storage bucket
func NewS3Archive(store *S3ObjectStorage, prefix string, logger *zap.Logger) *S3Archive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Archive{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
		logger: logger,
	}
}

// Archive uploads the packet and returns its object key
func (a *S3Archive) Archive(ctx context.Context, requestID string, doc *returns.ComposedDocument) (string, error) {
	if doc == nil || len(doc.Bytes) == 0 {
		return "", errors.New("archive: empty document")
	}
	key := a.objectKey(returns.ArchiveKey(requestID, a.now().UTC()))
	if err := a.store.Upload(ctx, key, doc.Bytes, pdfContentType); err != nil {
		return "", err
	}
	a.logger.Debug("Archived return packet",
		zap.String("request_id", requestID),
		zap.String("bucket", a.store.Bucket()),
		zap.String("key", key),
	)
	return key, nil
}

// Open reads an archived packet. key may be given with or without the prefix.
func (a *S3Archive) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	key = a.objectKey(key)
	exists, err := a.store.ObjectExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", returns.ErrPacketNotFound, key)
	}
	data, err := a.store.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (a *S3Archive) objectKey(key string) string {
	if a.prefix == "" || strings.HasPrefix(key, a.prefix+"/") {
		return key
	}
	return path.Join(a.prefix, key)
}
