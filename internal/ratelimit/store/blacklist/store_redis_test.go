//go:build integration

package blacklist_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"unireg/internal/ratelimit/store/blacklist"
	"unireg/pkg/testutil/containers"
)

func TestRedisStore(t *testing.T) {
	client := containers.StartRedis(t)
	store := blacklist.NewRedis(client)
	ctx := context.Background()

	t.Run("unknown address is not banned", func(t *testing.T) {
		banned, err := store.IsBanned(ctx, "198.51.100.1")
		require.NoError(t, err)
		require.False(t, banned)
	})

	t.Run("ban takes effect immediately", func(t *testing.T) {
		require.NoError(t, store.Ban(ctx, "198.51.100.1", time.Minute))
		banned, err := store.IsBanned(ctx, "198.51.100.1")
		require.NoError(t, err)
		require.True(t, banned)
	})

	t.Run("ban lapses with its TTL", func(t *testing.T) {
		require.NoError(t, store.Ban(ctx, "198.51.100.2", 500*time.Millisecond))
		time.Sleep(700 * time.Millisecond)

		banned, err := store.IsBanned(ctx, "198.51.100.2")
		require.NoError(t, err)
		require.False(t, banned)
	})

	t.Run("ipv6 addresses are valid keys", func(t *testing.T) {
		require.NoError(t, store.Ban(ctx, "2001:db8::7", time.Minute))
		banned, err := store.IsBanned(ctx, "2001:db8::7")
		require.NoError(t, err)
		require.True(t, banned)
	})
}
