package cache

import (
	"context"
	"testing"
	"time"

	"github.com/returnmail/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewInMemoryTokenStore()
	store.now = clock.Now

	t.Run("miss on empty store", func(t *testing.T) {
		_, ok, err := store.Get(ctx, "carrier")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hit until expiry", func(t *testing.T) {
		tok := shared.CachedToken{AccessToken: "abc", ExpiresAt: clock.Now().Add(10 * time.Minute)}
		require.NoError(t, store.Set(ctx, "carrier", tok, 10*time.Minute))

		got, ok, err := store.Get(ctx, "carrier")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "abc", got.AccessToken)

		clock.Advance(11 * time.Minute)
		_, ok, err = store.Get(ctx, "carrier")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ttl caps a later expiry", func(t *testing.T) {
		tok := shared.CachedToken{AccessToken: "def", ExpiresAt: clock.Now().Add(time.Hour)}
		require.NoError(t, store.Set(ctx, "carrier", tok, time.Minute))

		clock.Advance(2 * time.Minute)
		_, ok, _ := store.Get(ctx, "carrier")
		assert.False(t, ok)
	})

	t.Run("delete drops the token", func(t *testing.T) {
		tok := shared.CachedToken{AccessToken: "ghi", ExpiresAt: clock.Now().Add(time.Hour)}
		require.NoError(t, store.Set(ctx, "carrier", tok, time.Hour))
		require.NoError(t, store.Delete(ctx, "carrier"))

		_, ok, _ := store.Get(ctx, "carrier")
		assert.False(t, ok)
	})
}
