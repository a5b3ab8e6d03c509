// Package notification is the outbound messaging boundary. Delivery is
// best-effort and happens after the state transition that triggered it has
// committed; a failed send never rolls anything back.
package notification

import "context"

type Kind string

const (
	KindPaymentConfirmation Kind = "payment_confirmation"
	KindTicketDelivery      Kind = "ticket_delivery"
	KindTicketTransfer      Kind = "ticket_transfer"
)

type Notification struct {
	Recipient string
	Kind      Kind
	Data      map[string]any
}

// Notifier is the concrete delivery channel (email, push, ...). The engine
// only depends on this interface.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
