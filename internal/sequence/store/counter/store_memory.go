package counter

import (
	"context"
	"sync"

	"unireg/internal/sequence"
)

// MemoryStore keeps cursors in process memory behind a mutex. Dev mode and
// unit tests only: it is atomic within one process but not durable and not
// shared across instances. Production uses PostgresStore.
type MemoryStore struct {
	mu      sync.Mutex
	cursors map[string]sequence.Cursor
}

func NewMemory() *MemoryStore {
	return &MemoryStore{cursors: make(map[string]sequence.Cursor)}
}

// Next returns the pre-increment cursor for series and advances it. Unknown
// series are seeded at {1, 1, 1}.
func (s *MemoryStore) Next(ctx context.Context, series string, pageCapacity int) (sequence.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.cursors[series]
	if !ok {
		cur = sequence.Cursor{Book: 1, Page: 1, Term: 1}
	}

	next := cur
	next.Term++
	if cur.Page >= pageCapacity {
		next.Book++
		next.Page = 1
	} else {
		next.Page++
	}
	s.cursors[series] = next

	return cur, nil
}
