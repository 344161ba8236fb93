package audit

import (
	"time"

	"github.com/google/uuid"
)

// Operation classifies what happened to an entity.
type Operation string

const (
	OpCreate  Operation = "CREATE"
	OpUpdate  Operation = "UPDATE"
	OpArchive Operation = "ARCHIVE"
	OpDelete  Operation = "DELETE"
)

// IsValid checks if the operation is one of the supported enum values.
func (o Operation) IsValid() bool {
	switch o {
	case OpCreate, OpUpdate, OpArchive, OpDelete:
		return true
	}
	return false
}

// Actor identifies who performed a mutation. The authentication layer
// guarantees an identity is present on every write path; the zero value marks
// system-initiated work (dynamic bans, maintenance).
type Actor struct {
	ID   string
	Name string
}

// SystemActor marks entries produced by the service itself rather than a caller.
var SystemActor = Actor{ID: "system", Name: "system"}

// Entry is an immutable audit fact. Created once, never mutated or deleted;
// UPDATE entries carry one changed field each.
type Entry struct {
	ID         uuid.UUID         `json:"id"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Operation  Operation         `json:"operation"`
	FieldName  string            `json:"field_name,omitempty"`
	OldValue   string            `json:"old_value,omitempty"`
	NewValue   string            `json:"new_value,omitempty"`
	ActorID    string            `json:"actor_id,omitempty"`
	ActorName  string            `json:"actor_name,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// VersionStatus marks whether a version row is the live lineage or retired.
type VersionStatus string

const (
	VersionActive   VersionStatus = "ACTIVE"
	VersionArchived VersionStatus = "ARCHIVED"
)

// VersionRecord is an immutable full snapshot of an entity at one point in
// time. The current state of an entity is the highest-version ACTIVE row.
// Archiving flips status on prior rows; nothing is ever deleted.
type VersionRecord struct {
	ID         uuid.UUID      `json:"id"`
	EntityID   string         `json:"entity_id"`
	Version    int            `json:"version"`
	Snapshot   map[string]any `json:"snapshot"`
	Status     VersionStatus  `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	ArchivedAt *time.Time     `json:"archived_at,omitempty"`
}
