package counter

import (
	"context"
	"database/sql"
	"fmt"

	"unireg/internal/sequence"
)

// PostgresStore persists cursors in PostgreSQL, one row per series. The
// read-modify-write runs under a row lock so concurrent allocators, including
// ones in other processes, serialize per series and never observe the same
// pre-increment cursor. Unrelated series never contend.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed counter store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Next(ctx context.Context, series string, pageCapacity int) (sequence.Cursor, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sequence.Cursor{}, fmt.Errorf("begin cursor tx: %w", err)
	}
	defer tx.Rollback()

	// Seed the series on first use; ON CONFLICT keeps this race-free.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sequence_cursors (series, book, page, term)
		VALUES ($1, 1, 1, 1)
		ON CONFLICT (series) DO NOTHING
	`, series)
	if err != nil {
		return sequence.Cursor{}, fmt.Errorf("seed cursor: %w", err)
	}

	var cur sequence.Cursor
	err = tx.QueryRowContext(ctx, `
		SELECT book, page, term FROM sequence_cursors
		WHERE series = $1
		FOR UPDATE
	`, series).Scan(&cur.Book, &cur.Page, &cur.Term)
	if err != nil {
		return sequence.Cursor{}, fmt.Errorf("lock cursor: %w", err)
	}

	next := cur
	next.Term++
	if cur.Page >= pageCapacity {
		next.Book++
		next.Page = 1
	} else {
		next.Page++
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sequence_cursors
		SET book = $2, page = $3, term = $4, updated_at = now()
		WHERE series = $1
	`, series, next.Book, next.Page, next.Term)
	if err != nil {
		return sequence.Cursor{}, fmt.Errorf("advance cursor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return sequence.Cursor{}, fmt.Errorf("commit cursor tx: %w", err)
	}

	return cur, nil
}
