package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryWithClock(func() time.Time { return clock })
	ctx := context.Background()

	t.Run("unknown address is not banned", func(t *testing.T) {
		banned, err := store.IsBanned(ctx, "198.51.100.1")
		require.NoError(t, err)
		require.False(t, banned)
	})

	t.Run("ban takes effect immediately", func(t *testing.T) {
		require.NoError(t, store.Ban(ctx, "198.51.100.1", 10*time.Minute))
		banned, err := store.IsBanned(ctx, "198.51.100.1")
		require.NoError(t, err)
		require.True(t, banned)
	})

	t.Run("ban lapses after its duration", func(t *testing.T) {
		clock = clock.Add(10*time.Minute + time.Second)
		banned, err := store.IsBanned(ctx, "198.51.100.1")
		require.NoError(t, err)
		require.False(t, banned)
	})

	t.Run("re-banning resets the clock", func(t *testing.T) {
		require.NoError(t, store.Ban(ctx, "198.51.100.2", 10*time.Minute))
		clock = clock.Add(9 * time.Minute)
		require.NoError(t, store.Ban(ctx, "198.51.100.2", 10*time.Minute))
		clock = clock.Add(9 * time.Minute)

		banned, err := store.IsBanned(ctx, "198.51.100.2")
		require.NoError(t, err)
		require.True(t, banned)
	})
}
