// Package window implements the sliding-window request counter.
package window

import (
	"context"
	"sync"
	"time"
)

// MemoryStore counts requests in process memory. Unit tests and dev mode
// only; it does not share state across instances.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// NewMemoryWithClock lets tests drive the window edge deterministically.
func NewMemoryWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		windows: make(map[string][]time.Time),
		now:     now,
	}
}

func (s *MemoryStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	kept := s.windows[key][:0]
	for _, t := range s.windows[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	s.windows[key] = kept
	return len(kept), nil
}
