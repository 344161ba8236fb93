package version

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"unireg/internal/audit"
	"unireg/pkg/platform/sentinel"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("versions count up from one", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			record, err := store.Create(ctx, "d-1", map[string]any{"rev": i}, now)
			require.NoError(t, err)
			require.Equal(t, i, record.Version)
		}
	})

	t.Run("snapshots are isolated from the caller's map", func(t *testing.T) {
		snapshot := map[string]any{"k": "v"}
		record, err := store.Create(ctx, "d-2", snapshot, now)
		require.NoError(t, err)

		snapshot["k"] = "mutated"
		current, err := store.Current(ctx, "d-2")
		require.NoError(t, err)
		require.Equal(t, "v", current.Snapshot["k"])
		require.Equal(t, record.Version, current.Version)
	})

	t.Run("archive retires the whole chain", func(t *testing.T) {
		archived, err := store.ArchiveActive(ctx, "d-1", now)
		require.NoError(t, err)
		require.Equal(t, 3, archived)

		_, err = store.Current(ctx, "d-1")
		require.ErrorIs(t, err, sentinel.ErrNotFound)

		chain, err := store.List(ctx, "d-1")
		require.NoError(t, err)
		require.Len(t, chain, 3)
		for _, r := range chain {
			require.Equal(t, audit.VersionArchived, r.Status)
		}
	})

	t.Run("unknown entity has no current version", func(t *testing.T) {
		_, err := store.Current(ctx, "missing")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
