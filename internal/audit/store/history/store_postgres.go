package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"unireg/internal/audit"
	txcontext "unireg/pkg/platform/tx"
)

// PostgresStore persists audit entries in the audit_entries table. Appends
// join a caller transaction when one is carried in the context, so strongly
// consistent entries commit atomically with the business write.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed history store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry audit.Entry) error {
	var metadata []byte
	if len(entry.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal entry metadata: %w", err)
		}
	}

	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, entity_type, entity_id, operation, field_name,
			old_value, new_value, actor_id, actor_name, metadata, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		entry.ID,
		entry.EntityType,
		entry.EntityID,
		string(entry.Operation),
		nullString(entry.FieldName),
		nullString(entry.OldValue),
		nullString(entry.NewValue),
		nullString(entry.ActorID),
		nullString(entry.ActorName),
		metadata,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, operation, field_name,
		       old_value, new_value, actor_id, actor_name, metadata, created_at
		FROM audit_entries
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var fieldName, oldValue, newValue, actorID, actorName sql.NullString
		var metadata []byte
		err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Operation, &fieldName,
			&oldValue, &newValue, &actorID, &actorName, &metadata, &e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.FieldName = fieldName.String
		e.OldValue = oldValue.String
		e.NewValue = newValue.String
		e.ActorID = actorID.String
		e.ActorName = actorName.String
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal entry metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
