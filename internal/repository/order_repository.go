package repository

import (
	"context"
	"fmt"
	"time"

	"ticketpro/internal/model"
	"ticketpro/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository interface {
	FindByID(ctx context.Context, id int) (*model.Order, error)
	FindByUserID(ctx context.Context, userID int) ([]*model.Order, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, order *model.Order) (*model.Order, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Order, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.OrderStatus) (*model.Order, error)
}

type OrderRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &OrderRepositoryImpl{
		pool: pool,
	}
}

const orderColumns = `id, user_id, event_id, total_price, status,
	created_at, updated_at, deleted_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var order model.Order
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.EventID,
		&order.TotalPrice,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.DeletedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, translateContention(err)
	}
	return &order, nil
}

func (r *OrderRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, order *model.Order) (*model.Order, error) {
	query := `
		INSERT INTO orders (user_id, event_id, total_price, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + orderColumns

	created, err := scanOrder(tx.QueryRow(ctx, query,
		order.UserID, order.EventID, order.TotalPrice, order.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return created, nil
}

func (r *OrderRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1 AND deleted_at IS NULL
	`

	return scanOrder(r.pool.QueryRow(ctx, query, id))
}

func (r *OrderRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`

	return scanOrder(tx.QueryRow(ctx, query, id))
}

func (r *OrderRepositoryImpl) FindByUserID(ctx context.Context, userID int) ([]*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*model.Order

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *OrderRepositoryImpl) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.OrderStatus) (*model.Order, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING ` + orderColumns

	order, err := scanOrder(tx.QueryRow(ctx, query, status, time.Now().UTC(), id))
	if err != nil {
		if err == apperrors.ErrOrderNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	return order, nil
}
