// Package orders provides PostgreSQL-backed persistence for user orders.
package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ordermeow/ordermeow/internal/common"
	"github.com/ordermeow/ordermeow/internal/dbx"
	"github.com/ordermeow/ordermeow/internal/server/models"
)

// PostgresRepository implements order storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, user_id, title, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.UserID, order.Title, order.Description, string(order.Status), order.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", common.Classify(err))
	}
	return nil
}

// ListByUser returns the user's orders, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	query := ` SELECT id, user_id, title, description, status, created_at FROM orders
		WHERE user_id=$1
		ORDER BY created_at DESC
		`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", common.Classify(err))
	}
	defer rows.Close()

	result := make([]*models.Order, 0)
	for rows.Next() {
		item, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", common.Classify(err))
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	query := ` SELECT id, user_id, title, description, status, created_at FROM orders
		WHERE id=$1 AND user_id=$2
		`
	item, err := scanOrder(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return item, nil
}

// Update overwrites title and description.
func (r *PostgresRepository) Update(ctx context.Context, order *models.Order) error {
	query := `
		UPDATE orders SET title=$3, description=$4
		WHERE id=$1 AND user_id=$2
	`
	return r.execOne(ctx, query, order.ID, order.UserID, order.Title, order.Description)
}

func (r *PostgresRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		DELETE FROM orders
		WHERE id=$1 AND user_id=$2
	`
	return r.execOne(ctx, query, id, userID)
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id, userID uuid.UUID, status models.OrderStatus) error {
	query := `
		UPDATE orders SET status=$3
		WHERE id=$1 AND user_id=$2
	`
	return r.execOne(ctx, query, id, userID, string(status))
}

// execOne runs a statement expected to touch exactly one row.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", common.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", common.Classify(err))
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("%w: unexpected rows affected: %d", common.ErrorInternal, n)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*models.Order, error) {
	var (
		item   models.Order
		status string
	)
	if err := s.Scan(&item.ID, &item.UserID, &item.Title, &item.Description, &status, &item.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", common.Classify(err))
	}
	item.Status = models.OrderStatus(status)
	return &item, nil
}
