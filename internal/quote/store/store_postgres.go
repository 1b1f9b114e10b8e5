package store

import (
	"context"
	"database/sql"
	"fmt"

	"coverbase/internal/quote/models"
	"coverbase/pkg/platform/sentinel"
	txcontext "coverbase/pkg/platform/tx"
)

// PostgresStore persists quotes.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed quote store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Create inserts the quote; the store assigns id and timestamps. Runs inside
// the ambient transaction when one is on the context.
func (s *PostgresStore) Create(ctx context.Context, quote *models.Quote) error {
	query := `
		INSERT INTO quotes (status, type, premium, cover, customer_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created, last_modified
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		quote.Status,
		quote.Type,
		quote.Premium,
		quote.Cover,
		quote.CustomerID,
	).Scan(&quote.ID, &quote.Created, &quote.LastModified)
	if err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

// FindByID returns the quote or sentinel.ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Quote, error) {
	query := `
		SELECT id, status, type, premium, cover, customer_id, created, last_modified
		FROM quotes
		WHERE id = $1
	`
	var quote models.Quote
	err := s.execer(ctx).QueryRowContext(ctx, query, id).Scan(
		&quote.ID,
		&quote.Status,
		&quote.Type,
		&quote.Premium,
		&quote.Cover,
		&quote.CustomerID,
		&quote.Created,
		&quote.LastModified,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find quote: %w", err)
	}
	return &quote, nil
}

// UpdateStatus sets the status and returns the updated quote, or
// sentinel.ErrNotFound when no quote has the id.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id int64, status models.Status) (*models.Quote, error) {
	query := `
		UPDATE quotes
		SET status = $1, last_modified = now()
		WHERE id = $2
		RETURNING id, status, type, premium, cover, customer_id, created, last_modified
	`
	var quote models.Quote
	err := s.execer(ctx).QueryRowContext(ctx, query, status, id).Scan(
		&quote.ID,
		&quote.Status,
		&quote.Type,
		&quote.Premium,
		&quote.Cover,
		&quote.CustomerID,
		&quote.Created,
		&quote.LastModified,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update quote status: %w", err)
	}
	return &quote, nil
}
