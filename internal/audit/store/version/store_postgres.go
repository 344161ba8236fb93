package version

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"unireg/internal/audit"
	"unireg/pkg/platform/sentinel"
	txcontext "unireg/pkg/platform/tx"
)

// PostgresStore persists version chains in the declaration_versions table.
//
// Create serializes writers per entity with a transaction-scoped advisory
// lock before computing max+1, so concurrent creators for the same entity
// queue instead of colliding; unrelated entities never contend. The
// UNIQUE(entity_id, version) constraint stays as a backstop: if it still
// fires (lock bypassed by an out-of-band writer), the insert is retried a
// bounded number of times and then surfaces sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed version store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

const createRetries = 3

func (s *PostgresStore) Create(ctx context.Context, entityID string, snapshot map[string]any, at time.Time) (*audit.VersionRecord, error) {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	// Inside a caller transaction there is no second chance after a unique
	// violation (the tx is aborted), so the advisory lock has to do the work.
	if tx, ok := txcontext.From(ctx); ok {
		return s.createIn(ctx, tx, entityID, snapshotJSON, at)
	}

	var lastErr error
	for attempt := 0; attempt < createRetries; attempt++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin version tx: %w", err)
		}
		record, err := s.createIn(ctx, tx, entityID, snapshotJSON, at)
		if err != nil {
			tx.Rollback()
			if errors.Is(err, sentinel.ErrConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit version tx: %w", err)
		}
		return record, nil
	}
	return nil, lastErr
}

func (s *PostgresStore) createIn(ctx context.Context, tx *sql.Tx, entityID string, snapshotJSON []byte, at time.Time) (*audit.VersionRecord, error) {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, entityID)
	if err != nil {
		return nil, fmt.Errorf("acquire version lock: %w", err)
	}

	record := &audit.VersionRecord{
		ID:        uuid.New(),
		EntityID:  entityID,
		Status:    audit.VersionActive,
		CreatedAt: at,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO declaration_versions (id, entity_id, version, snapshot, status, created_at)
		SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4, $5
		FROM declaration_versions
		WHERE entity_id = $2
		RETURNING version
	`, record.ID, entityID, snapshotJSON, string(audit.VersionActive), at).Scan(&record.Version)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("version race on %s: %w", entityID, sentinel.ErrConflict)
		}
		return nil, fmt.Errorf("insert version: %w", err)
	}

	if err := json.Unmarshal(snapshotJSON, &record.Snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ArchiveActive(ctx context.Context, entityID string, at time.Time) (int, error) {
	var execer interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	} = s.db
	if tx, ok := txcontext.From(ctx); ok {
		execer = tx
	}

	res, err := execer.ExecContext(ctx, `
		UPDATE declaration_versions
		SET status = $3, archived_at = $2
		WHERE entity_id = $1 AND status = $4
	`, entityID, at, string(audit.VersionArchived), string(audit.VersionActive))
	if err != nil {
		return 0, fmt.Errorf("archive versions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("archive versions affected: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) Current(ctx context.Context, entityID string) (*audit.VersionRecord, error) {
	record := &audit.VersionRecord{EntityID: entityID}
	var snapshotJSON []byte
	var archivedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, version, snapshot, status, created_at, archived_at
		FROM declaration_versions
		WHERE entity_id = $1 AND status = $2
		ORDER BY version DESC
		LIMIT 1
	`, entityID, string(audit.VersionActive)).Scan(
		&record.ID, &record.Version, &snapshotJSON, &record.Status, &record.CreatedAt, &archivedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("current version of %s: %w", entityID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load current version: %w", err)
	}
	if archivedAt.Valid {
		record.ArchivedAt = &archivedAt.Time
	}
	if err := json.Unmarshal(snapshotJSON, &record.Snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return record, nil
}
