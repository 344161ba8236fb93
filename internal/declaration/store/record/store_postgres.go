package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"unireg/internal/declaration"
	"unireg/pkg/platform/sentinel"
	txcontext "unireg/pkg/platform/tx"
)

// PostgresStore persists declarations in the declarations table. Transact
// opens a transaction and carries it in the context, so the audit stores'
// writes inside fn join it and commit atomically with the declaration row.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed declaration store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

func (s *PostgresStore) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin declaration tx: %w", err)
	}
	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit declaration tx: %w", err)
	}
	return nil
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

func (s *PostgresStore) Insert(ctx context.Context, d *declaration.Declaration) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO declarations (
			id, partner_one, partner_two, place, registered_at,
			book, page, term, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		d.ID, d.PartnerOne, d.PartnerTwo, d.Place, d.RegisteredAt,
		d.Book, d.Page, d.Term, string(d.Status), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("declaration %s: %w", d.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert declaration: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, d *declaration.Declaration) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE declarations
		SET partner_one = $2, partner_two = $3, place = $4, registered_at = $5,
		    status = $6, updated_at = $7
		WHERE id = $1
	`,
		d.ID, d.PartnerOne, d.PartnerTwo, d.Place, d.RegisteredAt,
		string(d.Status), d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update declaration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update declaration affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("declaration %s: %w", d.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*declaration.Declaration, error) {
	d := &declaration.Declaration{}
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, partner_one, partner_two, place, registered_at,
		       book, page, term, status, created_at, updated_at
		FROM declarations
		WHERE id = $1
	`, id).Scan(
		&d.ID, &d.PartnerOne, &d.PartnerTwo, &d.Place, &d.RegisteredAt,
		&d.Book, &d.Page, &d.Term, &status, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("declaration %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load declaration: %w", err)
	}
	d.Status = declaration.Status(status)
	return d, nil
}
