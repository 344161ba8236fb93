//go:build integration

package version_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"unireg/internal/audit"
	"unireg/internal/audit/store/version"
	"unireg/pkg/platform/sentinel"
	"unireg/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	db := containers.StartPostgres(t)
	store := version.NewPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("versions count up from one", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			record, err := store.Create(ctx, "d-1", map[string]any{"rev": i}, now)
			require.NoError(t, err)
			require.Equal(t, i, record.Version)
			require.Equal(t, audit.VersionActive, record.Status)
		}
	})

	t.Run("current returns the highest active version", func(t *testing.T) {
		record, err := store.Current(ctx, "d-1")
		require.NoError(t, err)
		require.Equal(t, 3, record.Version)
		require.Equal(t, float64(3), record.Snapshot["rev"])
	})

	t.Run("archive retires every active row", func(t *testing.T) {
		archived, err := store.ArchiveActive(ctx, "d-1", now)
		require.NoError(t, err)
		require.Equal(t, 3, archived)

		_, err = store.Current(ctx, "d-1")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("unknown entity has no current version", func(t *testing.T) {
		_, err := store.Current(ctx, "missing")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestPostgresStoreCreateConcurrent(t *testing.T) {
	db := containers.StartPostgres(t)
	store := version.NewPostgres(db)
	ctx := context.Background()

	const callers = 30
	var wg sync.WaitGroup
	var mu sync.Mutex
	versions := make(map[int]struct{}, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record, err := store.Create(ctx, "d-race", map[string]any{"k": "v"}, time.Now())
			require.NoError(t, err)
			mu.Lock()
			versions[record.Version] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, versions, callers)
	for v := 1; v <= callers; v++ {
		require.Contains(t, versions, v, "version chain must be gapless")
	}
}
