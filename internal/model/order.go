package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusFailed    OrderStatus = "failed"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled,
		OrderStatusRefunded, OrderStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo encodes the order lifecycle. Completed orders can only be
// refunded; cancelled, refunded and failed orders are terminal.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	transitions := map[OrderStatus][]OrderStatus{
		OrderStatusPending:   {OrderStatusCompleted, OrderStatusCancelled, OrderStatusFailed},
		OrderStatusCompleted: {OrderStatusRefunded},
		OrderStatusCancelled: {},
		OrderStatusRefunded:  {},
		OrderStatusFailed:    {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

type Order struct {
	ID         int         `json:"id" db:"id"`
	UserID     int         `json:"user_id" db:"user_id"`
	EventID    int         `json:"event_id" db:"event_id"`
	TotalPrice float64     `json:"total_price" db:"total_price"`
	Status     OrderStatus `json:"status" db:"status"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
	DeletedAt  *time.Time  `json:"deleted_at,omitempty" db:"deleted_at"`
}

func (o *Order) IsDeleted() bool {
	return o.DeletedAt != nil
}

type ReserveTicketRequest struct {
	TicketTypeID int    `json:"ticket_type_id" binding:"required"`
	SeatNumber   string `json:"seat_number"`
}

type InitiatePaymentRequest struct {
	ExternalRef string  `json:"external_ref" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Currency    string  `json:"currency" binding:"required,len=3"`
}
