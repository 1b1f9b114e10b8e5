package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"coverbase/internal/policy/models"
	"coverbase/pkg/platform/sentinel"
	txcontext "coverbase/pkg/platform/tx"
)

// PostgresStore persists policies and their state history. Read paths return
// the full aggregate since every policy response nests the quote and customer.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed policy store.
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

const uniqueViolation = "23505"

// Create inserts the policy; the store assigns id and timestamps. A second
// policy for the same quote yields sentinel.ErrConflict.
func (s *PostgresStore) Create(ctx context.Context, policy *models.Policy) error {
	query := `
		INSERT INTO policies (type, state, premium, cover, customer_id, quote_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created, last_modified
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		policy.Type,
		policy.State,
		policy.Premium,
		policy.Cover,
		policy.CustomerID,
		policy.QuoteID,
	).Scan(&policy.ID, &policy.Created, &policy.LastModified)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert policy: %w", err)
	}
	return nil
}

const aggregateColumns = `
	p.id, p.type, p.state, p.premium, p.cover, p.customer_id, p.quote_id, p.created, p.last_modified,
	q.id, q.status, q.type, q.premium, q.cover, q.customer_id, q.created, q.last_modified,
	c.id, c.first_name, c.last_name, c.date_of_birth, c.created, c.last_modified
`

const aggregateJoins = `
	FROM policies p
	JOIN quotes q ON q.id = p.quote_id
	JOIN customers c ON c.id = p.customer_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAggregate(row rowScanner) (*models.Aggregate, error) {
	var a models.Aggregate
	err := row.Scan(
		&a.Policy.ID,
		&a.Policy.Type,
		&a.Policy.State,
		&a.Policy.Premium,
		&a.Policy.Cover,
		&a.Policy.CustomerID,
		&a.Policy.QuoteID,
		&a.Policy.Created,
		&a.Policy.LastModified,
		&a.Quote.ID,
		&a.Quote.Status,
		&a.Quote.Type,
		&a.Quote.Premium,
		&a.Quote.Cover,
		&a.Quote.CustomerID,
		&a.Quote.Created,
		&a.Quote.LastModified,
		&a.Customer.ID,
		&a.Customer.FirstName,
		&a.Customer.LastName,
		&a.Customer.DateOfBirth,
		&a.Customer.Created,
		&a.Customer.LastModified,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByID returns the policy aggregate or sentinel.ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Aggregate, error) {
	query := "SELECT" + aggregateColumns + aggregateJoins + "WHERE p.id = $1"
	aggregate, err := scanAggregate(s.execer(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find policy: %w", err)
	}
	return aggregate, nil
}

// ListByCustomer returns up to limit aggregates for the customer in ascending
// id order, starting at the cursor id. Cursor zero starts from the beginning.
func (s *PostgresStore) ListByCustomer(ctx context.Context, customerID, cursor int64, limit int) ([]*models.Aggregate, error) {
	query := "SELECT" + aggregateColumns + aggregateJoins +
		"WHERE p.customer_id = $1 AND p.id >= $2 ORDER BY p.id LIMIT $3"

	rows, err := s.execer(ctx).QueryContext(ctx, query, customerID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var aggregates []*models.Aggregate
	for rows.Next() {
		aggregate, err := scanAggregate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		aggregates = append(aggregates, aggregate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policies: %w", err)
	}
	return aggregates, nil
}

// UpdateState sets the policy state, or sentinel.ErrNotFound when no policy
// has the id.
func (s *PostgresStore) UpdateState(ctx context.Context, id int64, state models.State) error {
	query := `
		UPDATE policies
		SET state = $1, last_modified = now()
		WHERE id = $2
		RETURNING id
	`
	var updated int64
	if err := s.execer(ctx).QueryRowContext(ctx, query, state, id).Scan(&updated); err != nil {
		if err == sql.ErrNoRows {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("update policy state: %w", err)
	}
	return nil
}

// AppendHistory writes one ledger row; the store assigns id and created.
func (s *PostgresStore) AppendHistory(ctx context.Context, history *models.StateHistory) error {
	query := `
		INSERT INTO policy_state_history (policy_id, state, as_json)
		VALUES ($1, $2, $3)
		RETURNING id, created
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		history.PolicyID,
		history.State,
		[]byte(history.AsJSON),
	).Scan(&history.ID, &history.Created)
	if err != nil {
		return fmt.Errorf("append policy history: %w", err)
	}
	return nil
}

// ListHistory returns up to limit ledger rows for the policy in descending id
// order, starting at the cursor id. Cursor zero starts from the newest row.
func (s *PostgresStore) ListHistory(ctx context.Context, policyID, cursor int64, limit int) ([]*models.StateHistory, error) {
	query := `
		SELECT id, policy_id, state, as_json, created
		FROM policy_state_history
		WHERE policy_id = $1
	`
	args := []any{policyID}
	if cursor > 0 {
		query += " AND id <= $2 ORDER BY id DESC LIMIT $3"
		args = append(args, cursor, limit)
	} else {
		query += " ORDER BY id DESC LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list policy history: %w", err)
	}
	defer rows.Close()

	var entries []*models.StateHistory
	for rows.Next() {
		var entry models.StateHistory
		var asJSON []byte
		if err := rows.Scan(&entry.ID, &entry.PolicyID, &entry.State, &asJSON, &entry.Created); err != nil {
			return nil, fmt.Errorf("scan policy history: %w", err)
		}
		entry.AsJSON = asJSON
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy history: %w", err)
	}
	return entries, nil
}
