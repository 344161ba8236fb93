// Package record persists declarations.
package record

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"unireg/internal/declaration"
	"unireg/pkg/platform/sentinel"
)

// MemoryStore keeps declarations in process memory. Unit tests and dev mode
// only. Transact runs fn directly; memory stores have no transactions to join.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]declaration.Declaration
}

func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]declaration.Declaration)}
}

func (s *MemoryStore) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *MemoryStore) Insert(ctx context.Context, d *declaration.Declaration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[d.ID]; ok {
		return fmt.Errorf("declaration %s: %w", d.ID, sentinel.ErrConflict)
	}
	s.records[d.ID] = *d
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, d *declaration.Declaration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[d.ID]; !ok {
		return fmt.Errorf("declaration %s: %w", d.ID, sentinel.ErrNotFound)
	}
	s.records[d.ID] = *d
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*declaration.Declaration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("declaration %s: %w", id, sentinel.ErrNotFound)
	}
	return &d, nil
}
