package service

import (
	"context"
	"fmt"
	"strconv"

	"ticketpro/internal/cache"
	"ticketpro/internal/database"
	"ticketpro/internal/model"
	"ticketpro/internal/notification"
	"ticketpro/internal/qr"
	"ticketpro/internal/repository"
	"ticketpro/monitoring"
	"ticketpro/pkg/apperrors"
	"ticketpro/pkg/logger"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// PaymentEventOutcome tells the webhook caller what happened. Stale covers
// duplicates and out-of-order deliveries; both are acknowledged so the
// gateway stops retrying.
type PaymentEventOutcome string

const (
	OutcomeApplied PaymentEventOutcome = "applied"
	OutcomeStale   PaymentEventOutcome = "stale"
)

// FulfillmentService turns gateway payment notifications into order and
// ticket state transitions. Each notification is applied in one transaction;
// notifications about the same payment serialize on its row lock, which makes
// application effectively exactly-once under at-least-once delivery.
type FulfillmentService interface {
	ApplyPaymentEvent(ctx context.Context, externalRef string, status model.PaymentStatus, errorMessage string) (PaymentEventOutcome, error)
}

type FulfillmentServiceImpl struct {
	txm         database.TxManager
	payments    repository.PaymentRepository
	orders      repository.OrderRepository
	tickets     repository.TicketRepository
	ticketTypes repository.TicketTypeRepository
	inventory   cache.InventoryCache
	queue       notification.Queue
	log         *zap.Logger
}

func NewFulfillmentService(
	txm database.TxManager,
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	tickets repository.TicketRepository,
	ticketTypes repository.TicketTypeRepository,
	inventory cache.InventoryCache,
	queue notification.Queue,
) FulfillmentService {
	return &FulfillmentServiceImpl{
		txm:         txm,
		payments:    payments,
		orders:      orders,
		tickets:     tickets,
		ticketTypes: ticketTypes,
		inventory:   inventory,
		queue:       queue,
		log:         logger.WithComponent("fulfillment_service"),
	}
}

func (s *FulfillmentServiceImpl) ApplyPaymentEvent(ctx context.Context, externalRef string, status model.PaymentStatus, errorMessage string) (PaymentEventOutcome, error) {
	if !status.IsValid() || status == model.PaymentStatusPending {
		return "", apperrors.ErrInvalidInput
	}

	outcome := OutcomeApplied
	var order *model.Order
	var issued []*model.Ticket
	released := map[int]int{}

	txErr := s.txm.WithinTx(ctx, func(tx pgx.Tx) error {
		payment, err := s.payments.FindByExternalRefWithLock(ctx, tx, externalRef)
		if err != nil {
			return err
		}

		// Duplicate delivery: the status was already applied. No-op.
		if payment.Status == status {
			outcome = OutcomeStale
			return nil
		}

		// Out-of-order delivery, e.g. a failure arriving after success was
		// applied. Never revert a completed fulfillment.
		if !payment.Status.CanTransitionTo(status) {
			s.log.Warn("ignoring out-of-order payment event",
				zap.String("external_ref", externalRef),
				zap.String("current", string(payment.Status)),
				zap.String("incoming", string(status)))
			outcome = OutcomeStale
			return nil
		}

		order, err = s.orders.FindByIDWithLock(ctx, tx, payment.OrderID)
		if err != nil {
			return err
		}

		targetOrderStatus := orderStatusFor(status)
		if !order.Status.CanTransitionTo(targetOrderStatus) {
			// The order moved on without us, e.g. the buyer cancelled while
			// the success notification was in flight. Treat as stale.
			s.log.Warn("payment event does not apply to order state",
				zap.Int("order_id", order.ID),
				zap.String("order_status", string(order.Status)),
				zap.String("incoming", string(status)))
			outcome = OutcomeStale
			return nil
		}

		var errMsg *string
		if errorMessage != "" {
			errMsg = &errorMessage
		}
		if err := s.payments.UpdateStatus(ctx, tx, payment.ID, status, errMsg); err != nil {
			return err
		}
		if _, err := s.orders.UpdateStatus(ctx, tx, order.ID, targetOrderStatus); err != nil {
			return err
		}

		tickets, err := s.tickets.FindByOrderIDWithLock(ctx, tx, order.ID)
		if err != nil {
			return err
		}

		if status == model.PaymentStatusSucceeded {
			issued, err = s.issueTickets(ctx, tx, order, tickets)
			return err
		}

		// Failure, cancellation or refund: give every live unit back and
		// cancel the tickets.
		for _, ticket := range tickets {
			// An already-cancelled ticket gave its unit back earlier.
			if !ticket.State.CountsAgainstInventory() {
				continue
			}
			if !ticket.State.CanTransitionTo(model.TicketStateCancelled) {
				continue
			}
			if err := s.ticketTypes.ReleaseStock(ctx, tx, ticket.TicketTypeID, 1); err != nil {
				return err
			}
			if err := s.tickets.UpdateState(ctx, tx, ticket.ID, ticket.State, model.TicketStateCancelled); err != nil {
				return err
			}
			released[ticket.TicketTypeID]++
		}
		return nil
	})

	if txErr != nil {
		monitoring.TrackPaymentEvent(string(status), "error")
		return "", txErr
	}

	monitoring.TrackPaymentEvent(string(status), string(outcome))

	if outcome == OutcomeStale {
		return OutcomeStale, nil
	}

	// Post-commit side effects. None of these can undo the transition.
	for ticketTypeID, quantity := range released {
		if err := s.inventory.Rollback(ctx, ticketTypeID, quantity); err != nil {
			s.log.Warn("failed to restore inventory cache after release",
				zap.Int("ticket_type_id", ticketTypeID), zap.Error(err))
		}
	}

	if status == model.PaymentStatusSucceeded {
		s.enqueueFulfillmentNotifications(ctx, order, issued)
	}

	return OutcomeApplied, nil
}

// issueTickets moves every reserved ticket of the order to issued, minting a
// QR payload for each.
func (s *FulfillmentServiceImpl) issueTickets(ctx context.Context, tx pgx.Tx, order *model.Order, tickets []*model.Ticket) ([]*model.Ticket, error) {
	typeNames := map[int]string{}
	issued := make([]*model.Ticket, 0, len(tickets))

	for _, ticket := range tickets {
		if ticket.State != model.TicketStateReserved {
			continue
		}

		name, ok := typeNames[ticket.TicketTypeID]
		if !ok {
			ticketType, err := s.ticketTypes.FindByID(ctx, ticket.TicketTypeID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve ticket type %d: %w", ticket.TicketTypeID, err)
			}
			name = ticketType.Name
			typeNames[ticket.TicketTypeID] = name
		}

		payload, err := qr.Encode(ticket.ID, order.ID, order.EventID, order.UserID, name)
		if err != nil {
			return nil, err
		}

		if err := s.tickets.SetIssued(ctx, tx, ticket.ID, payload); err != nil {
			return nil, err
		}

		ticket.State = model.TicketStateIssued
		ticket.QRPayload = &payload
		issued = append(issued, ticket)
	}

	return issued, nil
}

// enqueueFulfillmentNotifications is fire-and-forget: enqueue failures are
// logged and swallowed because fulfillment already committed.
func (s *FulfillmentServiceImpl) enqueueFulfillmentNotifications(ctx context.Context, order *model.Order, issued []*model.Ticket) {
	recipient := "user:" + strconv.Itoa(order.UserID)

	err := s.queue.Publish(ctx, notification.Notification{
		Recipient: recipient,
		Kind:      notification.KindPaymentConfirmation,
		Data: map[string]any{
			"order_id": order.ID,
			"amount":   order.TotalPrice,
		},
	})
	if err != nil {
		s.log.Warn("failed to enqueue payment confirmation",
			zap.Int("order_id", order.ID), zap.Error(err))
	}

	for _, ticket := range issued {
		err := s.queue.Publish(ctx, notification.Notification{
			Recipient: recipient,
			Kind:      notification.KindTicketDelivery,
			Data: map[string]any{
				"order_id":   order.ID,
				"ticket_id":  ticket.ID,
				"qr_payload": *ticket.QRPayload,
			},
		})
		if err != nil {
			s.log.Warn("failed to enqueue ticket delivery",
				zap.Int("ticket_id", ticket.ID), zap.Error(err))
		}
	}
}

func orderStatusFor(status model.PaymentStatus) model.OrderStatus {
	switch status {
	case model.PaymentStatusSucceeded:
		return model.OrderStatusCompleted
	case model.PaymentStatusFailed:
		return model.OrderStatusFailed
	case model.PaymentStatusCancelled:
		return model.OrderStatusCancelled
	case model.PaymentStatusRefunded:
		return model.OrderStatusRefunded
	default:
		return model.OrderStatusPending
	}
}
