package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"coverbase/internal/customer/models"
	"coverbase/pkg/platform/sentinel"
	txcontext "coverbase/pkg/platform/tx"
)

// PostgresStore persists customers. Reads order by id so offset pagination is
// stable under concurrent inserts.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed customer store.
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

// Create inserts the customer; the store assigns id and timestamps.
func (s *PostgresStore) Create(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (first_name, last_name, date_of_birth)
		VALUES ($1, $2, $3)
		RETURNING id, created, last_modified
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		customer.FirstName,
		customer.LastName,
		customer.DateOfBirth,
	).Scan(&customer.ID, &customer.Created, &customer.LastModified)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// FindByID returns the customer or sentinel.ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Customer, error) {
	query := `
		SELECT id, first_name, last_name, date_of_birth, created, last_modified
		FROM customers
		WHERE id = $1
	`
	var customer models.Customer
	err := s.execer(ctx).QueryRowContext(ctx, query, id).Scan(
		&customer.ID,
		&customer.FirstName,
		&customer.LastName,
		&customer.DateOfBirth,
		&customer.Created,
		&customer.LastModified,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return &customer, nil
}

// filterClauses builds the WHERE conditions for a search filter. Filters are
// ANDed; the policy_type filter matches customers holding at least one policy
// of that type.
func filterClauses(filter models.Filter) (string, []any) {
	var conditions []string
	var args []any

	arg := func(value any) string {
		args = append(args, value)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.FirstName != "" {
		conditions = append(conditions, "c.first_name ILIKE '%' || "+arg(filter.FirstName)+" || '%'")
	}
	if filter.LastName != "" {
		conditions = append(conditions, "c.last_name ILIKE '%' || "+arg(filter.LastName)+" || '%'")
	}
	if filter.DateOfBirth != nil {
		conditions = append(conditions, "c.date_of_birth = "+arg(*filter.DateOfBirth)+"::date")
	}
	if filter.PolicyType != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM policies p WHERE p.customer_id = c.id AND p.type = "+arg(filter.PolicyType)+")")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Search returns one offset window of matching customers, ordered by id.
func (s *PostgresStore) Search(ctx context.Context, filter models.Filter, limit, offset int) ([]*models.Customer, error) {
	where, args := filterClauses(filter)
	query := `
		SELECT c.id, c.first_name, c.last_name, c.date_of_birth, c.created, c.last_modified
		FROM customers c` + where + `
		ORDER BY c.id
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		var customer models.Customer
		if err := rows.Scan(
			&customer.ID,
			&customer.FirstName,
			&customer.LastName,
			&customer.DateOfBirth,
			&customer.Created,
			&customer.LastModified,
		); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, &customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}

// CountSearch returns the total number of customers matching the filter.
func (s *PostgresStore) CountSearch(ctx context.Context, filter models.Filter) (int, error) {
	where, args := filterClauses(filter)
	query := "SELECT COUNT(*) FROM customers c" + where

	var total int
	if err := s.execer(ctx).QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return total, nil
}
