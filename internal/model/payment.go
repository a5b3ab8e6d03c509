package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSucceeded, PaymentStatusFailed,
		PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo rejects out-of-order gateway notifications: once a payment
// has succeeded, only a refund may follow; failed and cancelled are terminal.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	transitions := map[PaymentStatus][]PaymentStatus{
		PaymentStatusPending:   {PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCancelled},
		PaymentStatusSucceeded: {PaymentStatusRefunded},
		PaymentStatusFailed:    {},
		PaymentStatusCancelled: {},
		PaymentStatusRefunded:  {},
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

// PaymentTransaction records one payment attempt against an order.
// ExternalRef is the gateway's identifier and doubles as the idempotency key
// for inbound notifications.
type PaymentTransaction struct {
	ID           int           `json:"id" db:"id"`
	OrderID      int           `json:"order_id" db:"order_id"`
	ExternalRef  string        `json:"external_ref" db:"external_ref"`
	Amount       float64       `json:"amount" db:"amount"`
	Currency     string        `json:"currency" db:"currency"`
	Status       PaymentStatus `json:"status" db:"status"`
	ErrorMessage *string       `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time    `json:"deleted_at,omitempty" db:"deleted_at"`
}

type PaymentEventRequest struct {
	ExternalRef  string `json:"external_ref" binding:"required"`
	Status       string `json:"status" binding:"required"`
	ErrorMessage string `json:"error_message"`
}
