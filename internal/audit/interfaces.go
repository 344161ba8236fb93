package audit

import (
	"context"
	"time"
)

// HistoryStore is the durable, append-only entry store. Entries are retrieved
// newest-first by (entityType, entityID); limit bounds the result.
type HistoryStore interface {
	Append(ctx context.Context, entry Entry) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]Entry, error)
}

// VersionStore persists the append-only version chain per entity. Create must
// be atomic per entity: two concurrent calls for the same entityID get
// consecutive versions, never the same one. Implementations return
// sentinel.ErrConflict when a race could not be resolved within the bounded
// retry budget.
type VersionStore interface {
	Create(ctx context.Context, entityID string, snapshot map[string]any, at time.Time) (*VersionRecord, error)
	ArchiveActive(ctx context.Context, entityID string, at time.Time) (int, error)
	Current(ctx context.Context, entityID string) (*VersionRecord, error)
}

// Sink receives entries for fanout beyond the durable store (SIEM, Kafka).
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}
