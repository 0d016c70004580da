package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/returnmail/backend/internal/domain/shared"
)

const defaultTokenPrefix = "returns:carrier:token:"

// RedisTokenStore shares carrier access tokens across replicas
type RedisTokenStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisTokenStore wraps an existing client
func NewRedisTokenStore(client redis.UniversalClient, keyPrefix string) *RedisTokenStore {
	if keyPrefix == "" {
		keyPrefix = defaultTokenPrefix
	}
	return &RedisTokenStore{client: client, keyPrefix: keyPrefix}
}

// Get loads the cached token; a missing key is a miss, not an error
func (s *RedisTokenStore) Get(ctx context.Context, key string) (shared.CachedToken, bool, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return shared.CachedToken{}, false, nil
	}
	if err != nil {
		return shared.CachedToken{}, false, fmt.Errorf("redis: get token: %w", err)
	}

	var tok shared.CachedToken
	if err := json.Unmarshal(raw, &tok); err != nil {
		return shared.CachedToken{}, false, fmt.Errorf("redis: decode token: %w", err)
	}
	if !tok.Valid(time.Now()) {
		return shared.CachedToken{}, false, nil
	}
	return tok, true, nil
}

// Set stores the token with a Redis TTL
func (s *RedisTokenStore) Set(ctx context.Context, key string, token shared.CachedToken, ttl time.Duration) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("redis: encode token: %w", err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set token: %w", err)
	}
	return nil
}

// Delete removes the token
func (s *RedisTokenStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis: delete token: %w", err)
	}
	return nil
}

var _ shared.TokenStore = (*RedisTokenStore)(nil)
