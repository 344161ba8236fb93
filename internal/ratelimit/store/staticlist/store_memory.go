// Package staticlist implements the operator-managed permanent blacklist.
package staticlist

import (
	"context"
	"sort"
	"sync"
	"time"

	"unireg/internal/ratelimit/models"
)

// MemoryStore holds the list in process memory. Unit tests and dev mode only.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.BlacklistEntry
}

func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[string]models.BlacklistEntry)}
}

func (s *MemoryStore) Contains(ctx context.Context, address string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[address]
	return ok, nil
}

func (s *MemoryStore) Add(ctx context.Context, entry models.BlacklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.entries[entry.Address] = entry
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, address string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[address]; !ok {
		return false, nil
	}
	delete(s.entries, address)
	return true, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]models.BlacklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.BlacklistEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address < out[j].Address
	})
	return out, nil
}
