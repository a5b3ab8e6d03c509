package model

import (
	"time"

	"github.com/google/uuid"
)

type TicketState string

const (
	TicketStateReserved    TicketState = "reserved"
	TicketStateIssued      TicketState = "issued"
	TicketStateCheckedIn   TicketState = "checked_in"
	TicketStateCheckedOut  TicketState = "checked_out"
	TicketStateCancelled   TicketState = "cancelled"
	TicketStateTransferred TicketState = "transferred"
)

func (s TicketState) IsValid() bool {
	switch s {
	case TicketStateReserved, TicketStateIssued, TicketStateCheckedIn,
		TicketStateCheckedOut, TicketStateCancelled, TicketStateTransferred:
		return true
	}
	return false
}

// CanTransitionTo encodes the per-ticket lifecycle. A reserved ticket is
// issued on payment success or cancelled; an issued ticket can enter the
// venue, be refunded or change hands; re-entry after check-out is not
// allowed.
func (s TicketState) CanTransitionTo(target TicketState) bool {
	transitions := map[TicketState][]TicketState{
		TicketStateReserved:    {TicketStateIssued, TicketStateCancelled},
		TicketStateIssued:      {TicketStateCheckedIn, TicketStateCancelled, TicketStateTransferred},
		TicketStateCheckedIn:   {TicketStateCheckedOut},
		TicketStateCheckedOut:  {},
		TicketStateCancelled:   {},
		TicketStateTransferred: {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == target {
			return true
		}
	}
	return false
}

// CountsAgainstInventory reports whether a ticket in this state still holds a
// unit of its ticket type. Only cancelled tickets give the unit back.
func (s TicketState) CountsAgainstInventory() bool {
	return s != TicketStateCancelled
}

type Ticket struct {
	ID           int         `json:"id" db:"id"`
	Serial       uuid.UUID   `json:"serial" db:"serial"`
	OrderID      int         `json:"order_id" db:"order_id"`
	TicketTypeID int         `json:"ticket_type_id" db:"ticket_type_id"`
	SeatNumber   string      `json:"seat_number" db:"seat_number"`
	QRPayload    *string     `json:"qr_payload,omitempty" db:"qr_payload"`
	State        TicketState `json:"state" db:"state"`
	ValidatedAt  *time.Time  `json:"validated_at,omitempty" db:"validated_at"`
	ValidatedBy  *int        `json:"validated_by,omitempty" db:"validated_by"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time  `json:"deleted_at,omitempty" db:"deleted_at"`
}

func (t *Ticket) IsDeleted() bool {
	return t.DeletedAt != nil
}

type TransferTicketRequest struct {
	TicketID   int `json:"ticket_id" binding:"required"`
	FromUserID int `json:"from_user_id" binding:"required"`
	ToUserID   int `json:"to_user_id" binding:"required"`
}

type ValidateScanRequest struct {
	QRPayload string `json:"qr_payload" binding:"required"`
	EventID   int    `json:"event_id" binding:"required"`
}

type CheckInRequest struct {
	TicketID int `json:"ticket_id" binding:"required"`
}

type CheckOutRequest struct {
	TicketID int `json:"ticket_id" binding:"required"`
}
