// Package audit reconstructs the full history of mutable records: an
// append-only entry log of who changed what, and an append-only chain of
// full snapshots per entity.
//
// Consistency policy (applied uniformly for declaration-class entities):
// version rows and CREATE/ARCHIVE/DELETE entries are strongly consistent —
// they join the caller's transaction where one is present and a failure
// aborts the mutation. Field-diff UPDATE entries are best-effort-but-durable:
// they are written synchronously to the durable store outside the primary
// transaction, and a write failure is logged and counted instead of failing
// the mutation.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"go.opentelemetry.io/otel"

	"unireg/internal/audit/metrics"
	dErrors "unireg/pkg/domain-errors"
	"unireg/pkg/platform/sentinel"
	"unireg/pkg/requestcontext"
)

var tracer = otel.Tracer("unireg/internal/audit")

// Trail is the versioned audit trail service.
type Trail struct {
	publisher *Publisher
	history   HistoryStore
	versions  VersionStore
	pageSize  int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Trail)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Trail) {
		t.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Trail) {
		t.metrics = m
	}
}

// WithHistoryPageSize bounds History results. Long-lived entities accumulate
// entries without limit, so the boundary caps what one call returns.
func WithHistoryPageSize(n int) Option {
	return func(t *Trail) {
		t.pageSize = n
	}
}

const defaultHistoryPageSize = 200

func New(publisher *Publisher, history HistoryStore, versions VersionStore, opts ...Option) (*Trail, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if history == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if versions == nil {
		return nil, fmt.Errorf("version store is required")
	}

	t := &Trail{
		publisher: publisher,
		history:   history,
		versions:  versions,
		pageSize:  defaultHistoryPageSize,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// RecordFieldChanges diffs oldFields against newFields and emits one UPDATE
// entry per changed field. A field counts as changed when it is present in
// newFields and its value differs strictly from the old one; untouched fields
// produce no entry. Per the trail's consistency policy an append failure does
// not fail the caller's mutation.
func (t *Trail) RecordFieldChanges(ctx context.Context, entityType, entityID string, oldFields, newFields map[string]any, actor Actor) error {
	ctx, span := tracer.Start(ctx, "audit.RecordFieldChanges")
	defer span.End()

	if entityType == "" || entityID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "entity type and id are required")
	}

	names := make([]string, 0, len(newFields))
	for name := range newFields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		newValue := newFields[name]
		oldValue, existed := oldFields[name]
		if existed && reflect.DeepEqual(oldValue, newValue) {
			continue
		}

		entry := Entry{
			EntityType: entityType,
			EntityID:   entityID,
			Operation:  OpUpdate,
			FieldName:  name,
			OldValue:   displayString(oldValue),
			NewValue:   displayString(newValue),
			ActorID:    actor.ID,
			ActorName:  actor.Name,
		}
		if err := t.publisher.Emit(ctx, entry); err != nil {
			// Best-effort-but-durable: surfaced to operators, not to the caller.
			if t.logger != nil {
				t.logger.ErrorContext(ctx, "field change entry not recorded",
					"entity_type", entityType, "entity_id", entityID,
					"field", name, "error", err)
			}
		}
	}
	return nil
}

// RecordCreate emits a CREATE entry. Strong consistency: the error propagates
// and the caller's mutation must abort on failure.
func (t *Trail) RecordCreate(ctx context.Context, entityType, entityID string, actor Actor, metadata map[string]string) error {
	return t.recordOperation(ctx, entityType, entityID, OpCreate, actor, metadata)
}

// RecordDelete emits a DELETE entry.
func (t *Trail) RecordDelete(ctx context.Context, entityType, entityID string, actor Actor, metadata map[string]string) error {
	return t.recordOperation(ctx, entityType, entityID, OpDelete, actor, metadata)
}

func (t *Trail) recordOperation(ctx context.Context, entityType, entityID string, op Operation, actor Actor, metadata map[string]string) error {
	if entityType == "" || entityID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "entity type and id are required")
	}
	entry := Entry{
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  op,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Metadata:   metadata,
	}
	if err := t.publisher.Emit(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "append audit entry")
	}
	return nil
}

// CreateVersion appends the next snapshot to the entity's version chain.
// Version numbers per entity are strictly increasing with no gaps; under
// concurrent calls one caller gets v and the other v+1, never both v.
func (t *Trail) CreateVersion(ctx context.Context, entityID string, snapshot map[string]any, actor Actor) (*VersionRecord, error) {
	ctx, span := tracer.Start(ctx, "audit.CreateVersion")
	defer span.End()

	if entityID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "entity id is required")
	}
	if snapshot == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "snapshot is required")
	}

	record, err := t.versions.Create(ctx, entityID, snapshot, requestcontext.Now(ctx))
	if err != nil {
		if isConflict(err) {
			t.metrics.IncrementVersionConflicts()
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "concurrent version conflict")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "create version")
	}
	t.metrics.IncrementVersionsCreated()
	return record, nil
}

// Archive emits an ARCHIVE entry and retires the entity's active version
// rows. Strong consistency on both writes.
func (t *Trail) Archive(ctx context.Context, entityType, entityID string, actor Actor) error {
	ctx, span := tracer.Start(ctx, "audit.Archive")
	defer span.End()

	if entityType == "" || entityID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "entity type and id are required")
	}

	if _, err := t.versions.ArchiveActive(ctx, entityID, requestcontext.Now(ctx)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "archive versions")
	}

	entry := Entry{
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  OpArchive,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
	}
	if err := t.publisher.Emit(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "append archive entry")
	}
	return nil
}

// History returns the entity's audit entries newest-first, capped at the
// configured page size.
func (t *Trail) History(ctx context.Context, entityType, entityID string) ([]Entry, error) {
	if entityType == "" || entityID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "entity type and id are required")
	}
	entries, err := t.history.ListByEntity(ctx, entityType, entityID, t.pageSize)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list audit entries")
	}
	return entries, nil
}

// CurrentVersion returns the highest-version ACTIVE snapshot of the entity.
func (t *Trail) CurrentVersion(ctx context.Context, entityID string) (*VersionRecord, error) {
	if entityID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "entity id is required")
	}
	record, err := t.versions.Current(ctx, entityID)
	if err != nil {
		if isNotFound(err) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "no active version")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load current version")
	}
	return record, nil
}

func isConflict(err error) bool {
	return errors.Is(err, sentinel.ErrConflict)
}

func isNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound)
}

// displayString coerces a snapshot value to the form stored in audit entries.
func displayString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
