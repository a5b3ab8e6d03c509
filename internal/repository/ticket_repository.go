package repository

import (
	"context"
	"time"

	"ticketpro/internal/model"
	"ticketpro/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	FindByID(ctx context.Context, id int) (*model.Ticket, error)
	FindByOrderID(ctx context.Context, orderID int) ([]*model.Ticket, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (*model.Ticket, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Ticket, error)
	FindByOrderIDWithLock(ctx context.Context, tx pgx.Tx, orderID int) ([]*model.Ticket, error)
	SetIssued(ctx context.Context, tx pgx.Tx, id int, qrPayload string) error
	UpdateState(ctx context.Context, tx pgx.Tx, id int, from, to model.TicketState) error
	MarkCheckedIn(ctx context.Context, tx pgx.Tx, id int, staffID int, at time.Time) error
	MarkCheckedOut(ctx context.Context, tx pgx.Tx, id int) error
	Reassign(ctx context.Context, tx pgx.Tx, id int, newOrderID int) error
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

const ticketColumns = `id, serial, order_id, ticket_type_id, seat_number,
	qr_payload, state, validated_at, validated_by, created_at, updated_at, deleted_at`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var t model.Ticket
	err := row.Scan(
		&t.ID,
		&t.Serial,
		&t.OrderID,
		&t.TicketTypeID,
		&t.SeatNumber,
		&t.QRPayload,
		&t.State,
		&t.ValidatedAt,
		&t.ValidatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.DeletedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, translateContention(err)
	}
	return &t, nil
}

func (r *TicketRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (*model.Ticket, error) {
	query := `
		INSERT INTO tickets (serial, order_id, ticket_type_id, seat_number, state)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + ticketColumns

	return scanTicket(tx.QueryRow(ctx, query,
		ticket.Serial, ticket.OrderID, ticket.TicketTypeID, ticket.SeatNumber, ticket.State,
	))
}

func (r *TicketRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE id = $1 AND deleted_at IS NULL
	`

	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *TicketRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`

	return scanTicket(tx.QueryRow(ctx, query, id))
}

func (r *TicketRepositoryImpl) FindByOrderID(ctx context.Context, orderID int) ([]*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE order_id = $1 AND deleted_at IS NULL
		ORDER BY id
	`

	return r.queryTickets(ctx, r.pool, query, orderID)
}

func (r *TicketRepositoryImpl) FindByOrderIDWithLock(ctx context.Context, tx pgx.Tx, orderID int) ([]*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE order_id = $1 AND deleted_at IS NULL
		ORDER BY id
		FOR UPDATE
	`

	return r.queryTickets(ctx, tx, query, orderID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *TicketRepositoryImpl) queryTickets(ctx context.Context, q querier, query string, args ...any) ([]*model.Ticket, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*model.Ticket, 0)

	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

// SetIssued stamps the QR payload and moves a reserved ticket to issued in
// one statement. Zero rows means the ticket was not reserved anymore.
func (r *TicketRepositoryImpl) SetIssued(ctx context.Context, tx pgx.Tx, id int, qrPayload string) error {
	query := `
		UPDATE tickets
		SET state = $1, qr_payload = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL AND state = $5
	`

	result, err := tx.Exec(ctx, query,
		model.TicketStateIssued, qrPayload, time.Now().UTC(), id, model.TicketStateReserved,
	)
	if err != nil {
		return translateContention(err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInvalidTransition
	}

	return nil
}

// UpdateState performs a guarded state change. The expected current state is
// part of the WHERE clause so a concurrent transition cannot be overwritten.
func (r *TicketRepositoryImpl) UpdateState(ctx context.Context, tx pgx.Tx, id int, from, to model.TicketState) error {
	query := `
		UPDATE tickets
		SET state = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL AND state = $4
	`

	result, err := tx.Exec(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return translateContention(err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInvalidTransition
	}

	return nil
}

func (r *TicketRepositoryImpl) MarkCheckedIn(ctx context.Context, tx pgx.Tx, id int, staffID int, at time.Time) error {
	query := `
		UPDATE tickets
		SET state = $1, validated_at = $2, validated_by = $3, updated_at = $2
		WHERE id = $4 AND deleted_at IS NULL AND state = $5
	`

	result, err := tx.Exec(ctx, query,
		model.TicketStateCheckedIn, at, staffID, id, model.TicketStateIssued,
	)
	if err != nil {
		return translateContention(err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInvalidTransition
	}

	return nil
}

func (r *TicketRepositoryImpl) MarkCheckedOut(ctx context.Context, tx pgx.Tx, id int) error {
	query := `
		UPDATE tickets
		SET state = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL AND state = $4
	`

	result, err := tx.Exec(ctx, query,
		model.TicketStateCheckedOut, time.Now().UTC(), id, model.TicketStateCheckedIn,
	)
	if err != nil {
		return translateContention(err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInvalidTransition
	}

	return nil
}

// Reassign moves an issued ticket to another order. State and inventory are
// untouched; a transferred ticket still holds its unit of the ticket type.
func (r *TicketRepositoryImpl) Reassign(ctx context.Context, tx pgx.Tx, id int, newOrderID int) error {
	query := `
		UPDATE tickets
		SET order_id = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL AND state = $4
	`

	result, err := tx.Exec(ctx, query,
		newOrderID, time.Now().UTC(), id, model.TicketStateIssued,
	)
	if err != nil {
		return translateContention(err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInvalidTransition
	}

	return nil
}
