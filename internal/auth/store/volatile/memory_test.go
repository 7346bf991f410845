package volatile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create and find round trip", func(t *testing.T) {
		store := NewMemory[string]()

		require.NoError(t, store.Create(ctx, "ticket-1", "payload", time.Minute))

		val, found, err := store.Find(ctx, "ticket-1")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "payload", val)
	})

	t.Run("find misses on absent key", func(t *testing.T) {
		store := NewMemory[string]()

		val, found, err := store.Find(ctx, "never-created")
		require.NoError(t, err)
		require.False(t, found)
		require.Empty(t, val)
	})

	t.Run("create overwrites existing record", func(t *testing.T) {
		store := NewMemory[string]()

		require.NoError(t, store.Create(ctx, "ticket-1", "first", time.Minute))
		require.NoError(t, store.Create(ctx, "ticket-1", "second", time.Minute))

		val, found, err := store.Find(ctx, "ticket-1")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "second", val)
	})

	t.Run("expired record is indistinguishable from absent", func(t *testing.T) {
		store := NewMemory[string]()
		require.NoError(t, store.Create(ctx, "ticket-1", "payload", time.Minute))

		store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

		_, found, err := store.Find(ctx, "ticket-1")
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		store := NewMemory[string]()
		require.NoError(t, store.Create(ctx, "ticket-1", "payload", time.Minute))

		require.NoError(t, store.Revoke(ctx, "ticket-1"))
		require.NoError(t, store.Revoke(ctx, "ticket-1"))

		_, found, err := store.Find(ctx, "ticket-1")
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("purge drops only expired entries", func(t *testing.T) {
		store := NewMemory[string]()
		require.NoError(t, store.Create(ctx, "short", "payload", time.Minute))
		require.NoError(t, store.Create(ctx, "long", "payload", time.Hour))

		store.now = func() time.Time { return time.Now().Add(30 * time.Minute) }

		require.Equal(t, 1, store.PurgeExpired())
		require.Equal(t, 1, store.Len())

		_, found, err := store.Find(ctx, "long")
		require.NoError(t, err)
		require.True(t, found)
	})
}
