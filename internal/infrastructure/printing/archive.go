package printing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/returnmail/backend/internal/domain/returns"
	"go.uber.org/zap"
)

// ErrInvalidArchivePath is returned for keys that escape the archive root
var ErrInvalidArchivePath = errors.New("invalid archive path")

// FileSystemArchiveConfig contains configuration for the local packet archive
type FileSystemArchiveConfig struct {
	// BasePath is the archive root. Default: /data/returns
	BasePath string
	Logger   *zap.Logger
}

// FileSystemArchive keeps composed packets on local disk under
// {base}/returns/{yyyy}/{mm}/{request_id}.pdf
type FileSystemArchive struct {
	basePath string
	now      func() time.Time
	logger   *zap.Logger
}

// NewFileSystemArchive creates the archive root if needed
func NewFileSystemArchive(config *FileSystemArchiveConfig) (*FileSystemArchive, error) {
	if config == nil {
		config = &FileSystemArchiveConfig{}
	}
	base := config.BasePath
	if base == "" {
		base = "/data/returns"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory %s: %w", base, err)
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSystemArchive{basePath: base, now: time.Now, logger: logger.Named("printing.archive")}, nil
}

// Archive writes the packet and returns its key relative to the root
func (a *FileSystemArchive) Archive(ctx context.Context, requestID string, doc *returns.ComposedDocument) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := uuid.Parse(requestID); err != nil {
		return "", fmt.Errorf("%w: request id %q", ErrInvalidArchivePath, requestID)
	}
	if doc == nil || len(doc.Bytes) == 0 {
		return "", errors.New("archive: document is empty")
	}

	key := returns.ArchiveKey(requestID, a.now())
	full := filepath.Join(a.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("archive: create directory: %w", err)
	}
	if err := os.WriteFile(full, doc.Bytes, 0o644); err != nil {
		return "", fmt.Errorf("archive: write packet: %w", err)
	}

	a.logger.Debug("packet archived", zap.String("key", key), zap.Int("bytes", len(doc.Bytes)))
	return key, nil
}

// Open returns a reader for an archived packet
func (a *FileSystemArchive) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := a.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", returns.ErrPacketNotFound, key)
	}
	return f, err
}

// CleanupOlderThan removes archived packets last modified before now-age
func (a *FileSystemArchive) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := a.now().Add(-age)
	deleted := 0

	err := filepath.WalkDir(a.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || filepath.Ext(path) != ".pdf" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				deleted++
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return deleted, fmt.Errorf("archive cleanup: %w", err)
	}

	a.logger.Info("archive cleanup completed", zap.Int("deleted", deleted), zap.Duration("age", age))
	return deleted, nil
}

// resolve maps a key to a path under the root, rejecting traversal
func (a *FileSystemArchive) resolve(key string) (string, error) {
	for _, part := range strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return "", ErrInvalidArchivePath
		}
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) {
		return "", ErrInvalidArchivePath
	}

	absBase, err := filepath.Abs(a.basePath)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(filepath.Join(a.basePath, clean))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", ErrInvalidArchivePath
	}
	return absPath, nil
}

var (
	_ returns.DocumentArchive = (*FileSystemArchive)(nil)
	_ returns.PacketReader    = (*FileSystemArchive)(nil)
)
