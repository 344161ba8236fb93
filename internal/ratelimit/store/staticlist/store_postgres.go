package staticlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"unireg/internal/ratelimit/models"
)

// PostgresStore persists the permanent blacklist in the static_blacklist
// table. The list survives restarts and is shared by all instances; unlike
// dynamic bans it never expires on its own.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed static list store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Contains(ctx context.Context, address string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM static_blacklist WHERE address = $1`, address).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probe static blacklist: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) Add(ctx context.Context, entry models.BlacklistEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO static_blacklist (address, reason, created_at, created_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO UPDATE
		SET reason = EXCLUDED.reason, created_by = EXCLUDED.created_by
	`, entry.Address, entry.Reason, createdAt, nullString(entry.CreatedBy))
	if err != nil {
		return fmt.Errorf("insert static blacklist entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, address string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM static_blacklist WHERE address = $1`, address)
	if err != nil {
		return false, fmt.Errorf("delete static blacklist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete static blacklist affected: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.BlacklistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT address, reason, created_at, created_by
		FROM static_blacklist
		ORDER BY address
	`)
	if err != nil {
		return nil, fmt.Errorf("list static blacklist: %w", err)
	}
	defer rows.Close()

	var entries []models.BlacklistEntry
	for rows.Next() {
		var e models.BlacklistEntry
		var createdBy sql.NullString
		if err := rows.Scan(&e.Address, &e.Reason, &e.CreatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan static blacklist entry: %w", err)
		}
		e.CreatedBy = createdBy.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate static blacklist: %w", err)
	}
	return entries, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
