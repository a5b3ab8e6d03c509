package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketpro/internal/model"
	"ticketpro/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.PaymentTransaction) (*model.PaymentTransaction, error)
	FindByExternalRef(ctx context.Context, externalRef string) (*model.PaymentTransaction, error)
	FindByOrderID(ctx context.Context, orderID int) (*model.PaymentTransaction, error)

	// Transaction methods
	FindByExternalRefWithLock(ctx context.Context, tx pgx.Tx, externalRef string) (*model.PaymentTransaction, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.PaymentStatus, errorMessage *string) error
}

type PaymentRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &PaymentRepositoryImpl{
		pool: pool,
	}
}

const paymentColumns = `id, order_id, external_ref, amount, currency, status,
	error_message, created_at, updated_at, deleted_at`

func scanPayment(row pgx.Row) (*model.PaymentTransaction, error) {
	var p model.PaymentTransaction
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.ExternalRef,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.ErrorMessage,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.DeletedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, translateContention(err)
	}
	return &p, nil
}

func (r *PaymentRepositoryImpl) Create(ctx context.Context, payment *model.PaymentTransaction) (*model.PaymentTransaction, error) {
	query := `
		INSERT INTO payment_transactions (order_id, external_ref, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + paymentColumns

	created, err := scanPayment(r.pool.QueryRow(ctx, query,
		payment.OrderID, payment.ExternalRef, payment.Amount, payment.Currency, payment.Status,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrDuplicateExternalRef
		}
		return nil, fmt.Errorf("failed to create payment transaction: %w", err)
	}

	return created, nil
}

func (r *PaymentRepositoryImpl) FindByExternalRef(ctx context.Context, externalRef string) (*model.PaymentTransaction, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_transactions
		WHERE external_ref = $1 AND deleted_at IS NULL
	`

	return scanPayment(r.pool.QueryRow(ctx, query, externalRef))
}

func (r *PaymentRepositoryImpl) FindByOrderID(ctx context.Context, orderID int) (*model.PaymentTransaction, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_transactions
		WHERE order_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`

	return scanPayment(r.pool.QueryRow(ctx, query, orderID))
}

// FindByExternalRefWithLock serializes concurrent webhook deliveries for the
// same payment on its row lock.
func (r *PaymentRepositoryImpl) FindByExternalRefWithLock(ctx context.Context, tx pgx.Tx, externalRef string) (*model.PaymentTransaction, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_transactions
		WHERE external_ref = $1 AND deleted_at IS NULL
		FOR UPDATE
	`

	return scanPayment(tx.QueryRow(ctx, query, externalRef))
}

func (r *PaymentRepositoryImpl) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.PaymentStatus, errorMessage *string) error {
	query := `
		UPDATE payment_transactions
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL
	`

	result, err := tx.Exec(ctx, query, status, errorMessage, time.Now().UTC(), id)
	if err != nil {
		return translateContention(err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrPaymentNotFound
	}

	return nil
}
