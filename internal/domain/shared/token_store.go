package shared

import (
	"context"
	"time"
)

// CachedToken is an access token with its absolute expiry
type CachedToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether the token is usable at now
func (t CachedToken) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// TokenStore caches access tokens, optionally shared across replicas
type TokenStore interface {
	// Get returns the cached token; ok is false on a miss
	Get(ctx context.Context, key string) (token CachedToken, ok bool, err error)

	// Set stores the token until ttl elapses
	Set(ctx context.Context, key string, token CachedToken, ttl time.Duration) error

	// Delete drops the cached token
	Delete(ctx context.Context, key string) error
}
