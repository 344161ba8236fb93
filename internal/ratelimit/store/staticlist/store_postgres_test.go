//go:build integration

package staticlist_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"unireg/internal/ratelimit/models"
	"unireg/internal/ratelimit/store/staticlist"
	"unireg/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	db := containers.StartPostgres(t)
	store := staticlist.NewPostgres(db)
	ctx := context.Background()

	t.Run("unknown address is not listed", func(t *testing.T) {
		listed, err := store.Contains(ctx, "203.0.113.1")
		require.NoError(t, err)
		require.False(t, listed)
	})

	t.Run("added address is listed", func(t *testing.T) {
		err := store.Add(ctx, models.BlacklistEntry{
			Address: "203.0.113.1", Reason: "abuse", CreatedBy: "op-1",
		})
		require.NoError(t, err)

		listed, err := store.Contains(ctx, "203.0.113.1")
		require.NoError(t, err)
		require.True(t, listed)
	})

	t.Run("re-adding updates the reason", func(t *testing.T) {
		err := store.Add(ctx, models.BlacklistEntry{Address: "203.0.113.1", Reason: "scraper"})
		require.NoError(t, err)

		entries, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "scraper", entries[0].Reason)
	})

	t.Run("list is ordered by address", func(t *testing.T) {
		require.NoError(t, store.Add(ctx, models.BlacklistEntry{Address: "198.51.100.9", Reason: "x"}))

		entries, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, "198.51.100.9", entries[0].Address)
	})

	t.Run("remove reports whether anything was deleted", func(t *testing.T) {
		removed, err := store.Remove(ctx, "203.0.113.1")
		require.NoError(t, err)
		require.True(t, removed)

		removed, err = store.Remove(ctx, "203.0.113.1")
		require.NoError(t, err)
		require.False(t, removed)
	})
}
