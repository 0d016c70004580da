package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that were already issued
type IdempotencyStore interface {
	// MarkProcessed records the key with a TTL.
	// Returns true if the key was newly recorded, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key was recorded and has not expired
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close releases resources
	Close() error
}

// DefaultIdempotencyTTL is how long a content-derived label key is remembered
const DefaultIdempotencyTTL = 24 * time.Hour
