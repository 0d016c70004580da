package cache

import (
	"context"
	"sync"
	"time"

	"github.com/returnmail/backend/internal/domain/shared"
)

// InMemoryTokenStore keeps carrier access tokens for a single replica
type InMemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]shared.CachedToken
	now    func() time.Time
}

// NewInMemoryTokenStore creates an empty store
func NewInMemoryTokenStore() *InMemoryTokenStore {
	return &InMemoryTokenStore{
		tokens: make(map[string]shared.CachedToken),
		now:    time.Now,
	}
}

// Get returns the token while it is still valid
func (s *InMemoryTokenStore) Get(_ context.Context, key string) (shared.CachedToken, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tok, ok := s.tokens[key]
	if !ok || !tok.Valid(s.now()) {
		return shared.CachedToken{}, false, nil
	}
	return tok, true, nil
}

// Set stores the token; ttl caps its expiry
func (s *InMemoryTokenStore) Set(_ context.Context, key string, token shared.CachedToken, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit := s.now().Add(ttl); token.ExpiresAt.IsZero() || limit.Before(token.ExpiresAt) {
		token.ExpiresAt = limit
	}
	s.tokens[key] = token
	return nil
}

// Delete drops the token
func (s *InMemoryTokenStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, key)
	return nil
}

var _ shared.TokenStore = (*InMemoryTokenStore)(nil)
