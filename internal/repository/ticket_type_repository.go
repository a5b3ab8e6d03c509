package repository

import (
	"context"
	"time"

	"ticketpro/internal/model"
	"ticketpro/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TicketTypeRepository is the only writer of the inventory counters.
// ReserveStock and ReleaseStock are conditional single-row updates, so
// concurrent reservations against the same ticket type serialize on the row
// while different types never block each other.
type TicketTypeRepository interface {
	Create(ctx context.Context, ticketType *model.TicketType) (*model.TicketType, error)
	FindByID(ctx context.Context, id int) (*model.TicketType, error)
	FindAllActive(ctx context.Context) ([]*model.TicketType, error)
	Delete(ctx context.Context, id int) error

	// Transaction methods
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.TicketType, error)
	ReserveStock(ctx context.Context, tx pgx.Tx, id int, quantity int) error
	ReleaseStock(ctx context.Context, tx pgx.Tx, id int, quantity int) error
}

type TicketTypeRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketTypeRepository(pool *pgxpool.Pool) TicketTypeRepository {
	return &TicketTypeRepositoryImpl{
		pool: pool,
	}
}

const ticketTypeColumns = `id, event_id, name, price, total_quantity,
	available_quantity, sold_quantity, created_at, updated_at, deleted_at`

func scanTicketType(row pgx.Row) (*model.TicketType, error) {
	var t model.TicketType
	err := row.Scan(
		&t.ID,
		&t.EventID,
		&t.Name,
		&t.Price,
		&t.TotalQuantity,
		&t.AvailableQuantity,
		&t.SoldQuantity,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.DeletedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketTypeNotFound
		}
		return nil, translateContention(err)
	}
	return &t, nil
}

func (r *TicketTypeRepositoryImpl) Create(ctx context.Context, ticketType *model.TicketType) (*model.TicketType, error) {
	query := `
		INSERT INTO ticket_types (
			event_id, name, price, total_quantity, available_quantity, sold_quantity)
		VALUES ($1, $2, $3, $4, $4, 0)
		RETURNING ` + ticketTypeColumns

	return scanTicketType(r.pool.QueryRow(ctx, query,
		ticketType.EventID, ticketType.Name, ticketType.Price, ticketType.TotalQuantity,
	))
}

func (r *TicketTypeRepositoryImpl) FindByID(ctx context.Context, id int) (*model.TicketType, error) {
	query := `
		SELECT ` + ticketTypeColumns + `
		FROM ticket_types
		WHERE id = $1 AND deleted_at IS NULL
	`

	return scanTicketType(r.pool.QueryRow(ctx, query, id))
}

func (r *TicketTypeRepositoryImpl) FindAllActive(ctx context.Context) ([]*model.TicketType, error) {
	query := `
		SELECT ` + ticketTypeColumns + `
		FROM ticket_types
		WHERE deleted_at IS NULL
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ticketTypes []*model.TicketType
	for rows.Next() {
		ticketType, err := scanTicketType(rows)
		if err != nil {
			return nil, err
		}
		ticketTypes = append(ticketTypes, ticketType)
	}
	return ticketTypes, rows.Err()
}

func (r *TicketTypeRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.TicketType, error) {
	query := `
		SELECT ` + ticketTypeColumns + `
		FROM ticket_types
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`

	return scanTicketType(tx.QueryRow(ctx, query, id))
}

// ReserveStock moves quantity units from available to sold. The update only
// matches when enough units remain, so the check and the decrement are one
// atomic statement.
func (r *TicketTypeRepositoryImpl) ReserveStock(ctx context.Context, tx pgx.Tx, id int, quantity int) error {
	if quantity <= 0 {
		return apperrors.ErrInvalidInput
	}

	query := `
		UPDATE ticket_types
		SET available_quantity = available_quantity - $1,
			sold_quantity = sold_quantity + $1,
			updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL AND available_quantity >= $1
	`

	result, err := tx.Exec(ctx, query, quantity, time.Now().UTC(), id)
	if err != nil {
		return translateContention(err)
	}

	if result.RowsAffected() == 0 {
		return r.classifyMiss(ctx, tx, id)
	}

	return nil
}

// ReleaseStock is the inverse of ReserveStock, used when a reserved or issued
// ticket is cancelled. The sold_quantity guard keeps available_quantity from
// ever exceeding total_quantity.
func (r *TicketTypeRepositoryImpl) ReleaseStock(ctx context.Context, tx pgx.Tx, id int, quantity int) error {
	if quantity <= 0 {
		return apperrors.ErrInvalidInput
	}

	query := `
		UPDATE ticket_types
		SET available_quantity = available_quantity + $1,
			sold_quantity = sold_quantity - $1,
			updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL AND sold_quantity >= $1
	`

	result, err := tx.Exec(ctx, query, quantity, time.Now().UTC(), id)
	if err != nil {
		return translateContention(err)
	}

	if result.RowsAffected() == 0 {
		if err := r.classifyMiss(ctx, tx, id); err != apperrors.ErrSoldOut {
			return err
		}
		return apperrors.ErrInvalidInput
	}

	return nil
}

// classifyMiss decides whether a zero-row conditional update means the type
// is gone or the guard failed.
func (r *TicketTypeRepositoryImpl) classifyMiss(ctx context.Context, tx pgx.Tx, id int) error {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM ticket_types WHERE id = $1 AND deleted_at IS NULL)`,
		id,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrTicketTypeNotFound
	}
	return apperrors.ErrSoldOut
}

func (r *TicketTypeRepositoryImpl) Delete(ctx context.Context, id int) error {
	query := `
		UPDATE ticket_types
		SET deleted_at = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`

	now := time.Now().UTC()
	result, err := r.pool.Exec(ctx, query, now, now, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketTypeNotFound
	}

	return nil
}
