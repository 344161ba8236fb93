package version

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"unireg/internal/audit"
	"unireg/pkg/platform/sentinel"
)

// MemoryStore keeps version chains in process memory. Unit tests and dev
// mode only; the mutex gives the same per-entity atomicity the Postgres
// store gets from its row locks.
type MemoryStore struct {
	mu     sync.Mutex
	chains map[string][]*audit.VersionRecord
}

func NewMemory() *MemoryStore {
	return &MemoryStore{chains: make(map[string][]*audit.VersionRecord)}
}

func (s *MemoryStore) Create(ctx context.Context, entityID string, snapshot map[string]any, at time.Time) (*audit.VersionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := 1
	for _, r := range s.chains[entityID] {
		if r.Version >= next {
			next = r.Version + 1
		}
	}

	record := &audit.VersionRecord{
		ID:        uuid.New(),
		EntityID:  entityID,
		Version:   next,
		Snapshot:  maps.Clone(snapshot),
		Status:    audit.VersionActive,
		CreatedAt: at,
	}
	s.chains[entityID] = append(s.chains[entityID], record)
	return cloneRecord(record), nil
}

func (s *MemoryStore) ArchiveActive(ctx context.Context, entityID string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	archived := 0
	for _, r := range s.chains[entityID] {
		if r.Status == audit.VersionActive {
			r.Status = audit.VersionArchived
			archivedAt := at
			r.ArchivedAt = &archivedAt
			archived++
		}
	}
	return archived, nil
}

func (s *MemoryStore) Current(ctx context.Context, entityID string) (*audit.VersionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current *audit.VersionRecord
	for _, r := range s.chains[entityID] {
		if r.Status != audit.VersionActive {
			continue
		}
		if current == nil || r.Version > current.Version {
			current = r
		}
	}
	if current == nil {
		return nil, fmt.Errorf("current version of %s: %w", entityID, sentinel.ErrNotFound)
	}
	return cloneRecord(current), nil
}

// List returns the full chain ordered by version descending. Test helper and
// admin surface; not part of the VersionStore port.
func (s *MemoryStore) List(ctx context.Context, entityID string) ([]*audit.VersionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := s.chains[entityID]
	out := make([]*audit.VersionRecord, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, cloneRecord(chain[i]))
	}
	return out, nil
}

func cloneRecord(r *audit.VersionRecord) *audit.VersionRecord {
	c := *r
	c.Snapshot = maps.Clone(r.Snapshot)
	if r.ArchivedAt != nil {
		at := *r.ArchivedAt
		c.ArchivedAt = &at
	}
	return &c
}
