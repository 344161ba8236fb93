//go:build integration

package counter_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"unireg/internal/sequence"
	"unireg/internal/sequence/store/counter"
	"unireg/pkg/testutil/containers"
)

func TestPostgresStoreNext(t *testing.T) {
	db := containers.StartPostgres(t)
	store := counter.NewPostgres(db)
	ctx := context.Background()

	t.Run("seeds at the first coordinate", func(t *testing.T) {
		cur, err := store.Next(ctx, "seed-series", 300)
		require.NoError(t, err)
		require.Equal(t, sequence.Cursor{Book: 1, Page: 1, Term: 1}, cur)
	})

	t.Run("page rolls into the next book at capacity", func(t *testing.T) {
		const capacity = 3
		var last sequence.Cursor
		for i := 0; i < capacity; i++ {
			var err error
			last, err = store.Next(ctx, "rollover-series", capacity)
			require.NoError(t, err)
		}
		require.Equal(t, sequence.Cursor{Book: 1, Page: 3, Term: 3}, last)

		next, err := store.Next(ctx, "rollover-series", capacity)
		require.NoError(t, err)
		require.Equal(t, sequence.Cursor{Book: 2, Page: 1, Term: 4}, next)
	})

	t.Run("series advance independently", func(t *testing.T) {
		cur, err := store.Next(ctx, "other-series", 300)
		require.NoError(t, err)
		require.Equal(t, int64(1), cur.Term)
	})
}

func TestPostgresStoreNextConcurrent(t *testing.T) {
	db := containers.StartPostgres(t)
	store := counter.NewPostgres(db)
	ctx := context.Background()

	const callers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	coords := make(map[sequence.Cursor]struct{}, callers)
	terms := make(map[int64]struct{}, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cur, err := store.Next(ctx, "race-series", 10)
			require.NoError(t, err)
			mu.Lock()
			coords[cur] = struct{}{}
			terms[cur.Term] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, coords, callers, "coordinates must be pairwise distinct")
	require.Len(t, terms, callers)
	for term := int64(1); term <= callers; term++ {
		require.Contains(t, terms, term, "terms must be consecutive")
	}
}
