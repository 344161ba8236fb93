// Package blacklist implements the dynamic, TTL-bound ban store.
package blacklist

import (
	"context"
	"sync"
	"time"
)

// MemoryStore holds bans in process memory. Unit tests and dev mode only.
type MemoryStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// NewMemoryWithClock lets tests drive ban expiry deterministically.
func NewMemoryWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		expires: make(map[string]time.Time),
		now:     now,
	}
}

func (s *MemoryStore) IsBanned(ctx context.Context, address string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.expires[address]
	if !ok {
		return false, nil
	}
	if s.now().After(expiry) {
		delete(s.expires, address)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Ban(ctx context.Context, address string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires[address] = s.now().Add(duration)
	return nil
}
