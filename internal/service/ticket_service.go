package service

import (
	"context"
	"errors"
	"strconv"
	"time"

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

// ScanResult is what a gate device gets back from a QR scan. Invalid scans
// are a business outcome, not an error.
type ScanResult struct {
	Valid            bool       `json:"valid"`
	Reason           string     `json:"reason,omitempty"`
	TicketID         int        `json:"ticket_id,omitempty"`
	OrderID          int        `json:"order_id,omitempty"`
	TicketType       string     `json:"ticket_type,omitempty"`
	AlreadyCheckedIn bool       `json:"already_checked_in"`
	CheckedInAt      *time.Time `json:"checked_in_at,omitempty"`
}

// TicketService governs the per-ticket lifecycle at the venue: scans,
// check-in, check-out and ownership transfer.
type TicketService interface {
	GetByID(ctx context.Context, ticketID int, principal model.Principal) (*model.Ticket, error)
	CheckIn(ctx context.Context, ticketID int, principal model.Principal) (*model.Ticket, error)
	CheckOut(ctx context.Context, ticketID int, principal model.Principal) (*model.Ticket, error)
	Transfer(ctx context.Context, req model.TransferTicketRequest, principal model.Principal) (*model.Ticket, error)
	ValidateScan(ctx context.Context, qrPayload string, eventID int, principal model.Principal) (*ScanResult, error)
}

type TicketServiceImpl struct {
	txm         database.TxManager
	tickets     repository.TicketRepository
	orders      repository.OrderRepository
	ticketTypes repository.TicketTypeRepository
	events      repository.EventRepository
	queue       notification.Queue
	log         *zap.Logger
}

func NewTicketService(
	txm database.TxManager,
	tickets repository.TicketRepository,
	orders repository.OrderRepository,
	ticketTypes repository.TicketTypeRepository,
	events repository.EventRepository,
	queue notification.Queue,
) TicketService {
	return &TicketServiceImpl{
		txm:         txm,
		tickets:     tickets,
		orders:      orders,
		ticketTypes: ticketTypes,
		events:      events,
		queue:       queue,
		log:         logger.WithComponent("ticket_service"),
	}
}

func (s *TicketServiceImpl) GetByID(ctx context.Context, ticketID int, principal model.Principal) (*model.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, ticket.OrderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != principal.ID && !principal.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	return ticket, nil
}

// authorizeStaff resolves the order's event and checks the acting principal
// may run venue-side operations for it.
func (s *TicketServiceImpl) authorizeStaff(ctx context.Context, order *model.Order, principal model.Principal) error {
	event, err := s.events.FindByID(ctx, order.EventID)
	if err != nil {
		return err
	}
	if !principal.CanValidateEvent(event.OrganizerID) {
		return apperrors.ErrForbidden
	}
	return nil
}

func (s *TicketServiceImpl) CheckIn(ctx context.Context, ticketID int, principal model.Principal) (*model.Ticket, error) {
	var checked *model.Ticket

	txErr := s.txm.WithinTx(ctx, func(tx pgx.Tx) error {
		ticket, err := s.tickets.FindByIDWithLock(ctx, tx, ticketID)
		if err != nil {
			return err
		}

		order, err := s.orders.FindByID(ctx, ticket.OrderID)
		if err != nil {
			return err
		}

		if err := s.authorizeStaff(ctx, order, principal); err != nil {
			return err
		}

		switch ticket.State {
		case model.TicketStateCheckedIn, model.TicketStateCheckedOut:
			return apperrors.ErrAlreadyCheckedIn
		}

		if order.Status != model.OrderStatusCompleted {
			return apperrors.ErrPaymentNotConfirmed
		}

		if !ticket.State.CanTransitionTo(model.TicketStateCheckedIn) {
			return apperrors.ErrInvalidTransition
		}

		now := time.Now().UTC()
		if err := s.tickets.MarkCheckedIn(ctx, tx, ticket.ID, principal.ID, now); err != nil {
			return err
		}

		ticket.State = model.TicketStateCheckedIn
		ticket.ValidatedAt = &now
		ticket.ValidatedBy = &principal.ID
		checked = ticket
		return nil
	})

	if txErr != nil {
		monitoring.TrackGateScan("check_in", "refused")
		return nil, txErr
	}

	monitoring.TrackGateScan("check_in", "ok")
	return checked, nil
}

func (s *TicketServiceImpl) CheckOut(ctx context.Context, ticketID int, principal model.Principal) (*model.Ticket, error) {
	var checked *model.Ticket

	txErr := s.txm.WithinTx(ctx, func(tx pgx.Tx) error {
		ticket, err := s.tickets.FindByIDWithLock(ctx, tx, ticketID)
		if err != nil {
			return err
		}

		order, err := s.orders.FindByID(ctx, ticket.OrderID)
		if err != nil {
			return err
		}

		if err := s.authorizeStaff(ctx, order, principal); err != nil {
			return err
		}

		switch ticket.State {
		case model.TicketStateCheckedOut:
			return apperrors.ErrAlreadyCheckedOut
		case model.TicketStateCheckedIn:
		default:
			return apperrors.ErrNotCheckedIn
		}

		if err := s.tickets.MarkCheckedOut(ctx, tx, ticket.ID); err != nil {
			return err
		}

		ticket.State = model.TicketStateCheckedOut
		checked = ticket
		return nil
	})

	if txErr != nil {
		monitoring.TrackGateScan("check_out", "refused")
		return nil, txErr
	}

	monitoring.TrackGateScan("check_out", "ok")
	return checked, nil
}

// Transfer re-homes an issued ticket to a new zero-cost completed order for
// the receiving user. The ticket keeps its identity and its inventory unit;
// the counters are never touched.
func (s *TicketServiceImpl) Transfer(ctx context.Context, req model.TransferTicketRequest, principal model.Principal) (*model.Ticket, error) {
	if req.FromUserID == req.ToUserID {
		return nil, apperrors.ErrInvalidInput
	}

	var transferred *model.Ticket
	var eventID int

	txErr := s.txm.WithinTx(ctx, func(tx pgx.Tx) error {
		ticket, err := s.tickets.FindByIDWithLock(ctx, tx, req.TicketID)
		if err != nil {
			return err
		}

		order, err := s.orders.FindByID(ctx, ticket.OrderID)
		if err != nil {
			return err
		}

		if err := s.authorizeStaff(ctx, order, principal); err != nil {
			return err
		}

		if order.UserID != req.FromUserID {
			return apperrors.ErrTicketNotFound
		}

		// A validated ticket stays with whoever walked through the gate.
		if ticket.State == model.TicketStateCheckedIn || ticket.State == model.TicketStateCheckedOut || ticket.ValidatedAt != nil {
			return apperrors.ErrAlreadyValidated
		}

		if !ticket.State.CanTransitionTo(model.TicketStateTransferred) {
			return apperrors.ErrInvalidTransition
		}

		newOrder, err := s.orders.Create(ctx, tx, &model.Order{
			UserID:     req.ToUserID,
			EventID:    order.EventID,
			TotalPrice: 0,
			Status:     model.OrderStatusCompleted,
		})
		if err != nil {
			return err
		}

		if err := s.tickets.Reassign(ctx, tx, ticket.ID, newOrder.ID); err != nil {
			return err
		}

		ticket.OrderID = newOrder.ID
		transferred = ticket
		eventID = order.EventID
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	err := s.queue.Publish(ctx, notification.Notification{
		Recipient: "user:" + strconv.Itoa(req.ToUserID),
		Kind:      notification.KindTicketTransfer,
		Data: map[string]any{
			"ticket_id":    transferred.ID,
			"event_id":     eventID,
			"from_user_id": req.FromUserID,
		},
	})
	if err != nil {
		s.log.Warn("failed to enqueue transfer notification",
			zap.Int("ticket_id", transferred.ID), zap.Error(err))
	}

	return transferred, nil
}

// ValidateScan decodes and checks a scanned QR payload against the gate's
// event. It never mutates state; the gate calls CheckIn separately.
func (s *TicketServiceImpl) ValidateScan(ctx context.Context, qrPayload string, eventID int, principal model.Principal) (*ScanResult, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !principal.CanValidateEvent(event.OrganizerID) {
		return nil, apperrors.ErrForbidden
	}

	payload, err := qr.Decode(qrPayload)
	if err != nil {
		monitoring.TrackGateScan("validate", "invalid")
		return &ScanResult{Valid: false, Reason: "invalid QR payload"}, nil
	}

	if !qr.Validate(payload, eventID) {
		monitoring.TrackGateScan("validate", "invalid")
		return &ScanResult{Valid: false, Reason: "QR payload does not match this event"}, nil
	}

	ticket, err := s.tickets.FindByID(ctx, payload.TicketID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTicketNotFound) {
			monitoring.TrackGateScan("validate", "invalid")
			return &ScanResult{Valid: false, Reason: "ticket not found"}, nil
		}
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, ticket.OrderID)
	if err != nil {
		return nil, err
	}

	if order.Status != model.OrderStatusCompleted {
		monitoring.TrackGateScan("validate", "invalid")
		return &ScanResult{
			Valid:    false,
			Reason:   "payment not confirmed for this ticket",
			TicketID: ticket.ID,
			OrderID:  ticket.OrderID,
		}, nil
	}

	if !ticket.State.CountsAgainstInventory() {
		monitoring.TrackGateScan("validate", "invalid")
		return &ScanResult{
			Valid:    false,
			Reason:   "ticket cancelled",
			TicketID: ticket.ID,
			OrderID:  ticket.OrderID,
		}, nil
	}

	monitoring.TrackGateScan("validate", "ok")
	return &ScanResult{
		Valid:            true,
		TicketID:         ticket.ID,
		OrderID:          ticket.OrderID,
		TicketType:       payload.TicketType,
		AlreadyCheckedIn: ticket.State == model.TicketStateCheckedIn || ticket.State == model.TicketStateCheckedOut,
		CheckedInAt:      ticket.ValidatedAt,
	}, nil
}
