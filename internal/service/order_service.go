package service

import (
	"context"
	"errors"

	"ticketpro/internal/cache"
	"ticketpro/internal/database"
	"ticketpro/internal/model"
	"ticketpro/internal/repository"
	"ticketpro/monitoring"
	"ticketpro/pkg/apperrors"
	"ticketpro/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type OrderService interface {
	// ReserveTicket atomically takes one unit of the ticket type and creates
	// a pending order holding a reserved ticket.
	ReserveTicket(ctx context.Context, userID int, req model.ReserveTicketRequest) (*model.Order, *model.Ticket, error)
	// InitiatePayment records the gateway's payment attempt against the order.
	InitiatePayment(ctx context.Context, orderID int, principal model.Principal, req model.InitiatePaymentRequest) (*model.PaymentTransaction, error)
	// CancelOrder cancels a pending order and gives its units back.
	CancelOrder(ctx context.Context, orderID int, principal model.Principal) error
	GetOrderByID(ctx context.Context, orderID int, principal model.Principal) (*model.Order, error)
	ListOrdersByUser(ctx context.Context, principal model.Principal) ([]*model.Order, error)
}

type OrderServiceImpl struct {
	txm         database.TxManager
	orders      repository.OrderRepository
	tickets     repository.TicketRepository
	ticketTypes repository.TicketTypeRepository
	payments    repository.PaymentRepository
	inventory   cache.InventoryCache
	log         *zap.Logger
}

func NewOrderService(
	txm database.TxManager,
	orders repository.OrderRepository,
	tickets repository.TicketRepository,
	ticketTypes repository.TicketTypeRepository,
	payments repository.PaymentRepository,
	inventory cache.InventoryCache,
) OrderService {
	return &OrderServiceImpl{
		txm:         txm,
		orders:      orders,
		tickets:     tickets,
		ticketTypes: ticketTypes,
		payments:    payments,
		inventory:   inventory,
		log:         logger.WithComponent("order_service"),
	}
}

func (s *OrderServiceImpl) ReserveTicket(ctx context.Context, userID int, req model.ReserveTicketRequest) (*model.Order, *model.Ticket, error) {
	ticketType, err := s.ticketTypes.FindByID(ctx, req.TicketTypeID)
	if err != nil {
		return nil, nil, err
	}

	if !ticketType.IsAvailable() {
		monitoring.TrackReservation("sold_out")
		return nil, nil, apperrors.ErrSoldOut
	}

	// Redis gate: shed sold-out traffic before opening a transaction. The
	// database row stays authoritative.
	ok, err := s.inventory.Reserve(ctx, ticketType.ID, 1)
	if err != nil {
		// Cache trouble must not block sales; fall through to the ledger.
		s.log.Warn("inventory cache unavailable, falling back to database",
			zap.Int("ticket_type_id", ticketType.ID), zap.Error(err))
	} else if !ok {
		monitoring.TrackReservation("sold_out")
		return nil, nil, apperrors.ErrSoldOut
	}

	var order *model.Order
	var ticket *model.Ticket

	txErr := s.txm.WithinTx(ctx, func(tx pgx.Tx) error {
		if err := s.ticketTypes.ReserveStock(ctx, tx, ticketType.ID, 1); err != nil {
			return err
		}

		created, err := s.orders.Create(ctx, tx, &model.Order{
			UserID:     userID,
			EventID:    ticketType.EventID,
			TotalPrice: ticketType.Price,
			Status:     model.OrderStatusPending,
		})
		if err != nil {
			return err
		}
		order = created

		ticket, err = s.tickets.Create(ctx, tx, &model.Ticket{
			Serial:       uuid.New(),
			OrderID:      created.ID,
			TicketTypeID: ticketType.ID,
			SeatNumber:   req.SeatNumber,
			State:        model.TicketStateReserved,
		})
		return err
	})

	if txErr != nil {
		// The cache already gave up a unit; put it back no matter what
		// happens to the request context.
		if rbErr := s.inventory.Rollback(context.Background(), ticketType.ID, 1); rbErr != nil {
			s.log.Error("failed to roll back inventory cache",
				zap.Int("ticket_type_id", ticketType.ID), zap.Error(rbErr))
		}
		if errors.Is(txErr, apperrors.ErrSoldOut) {
			monitoring.TrackReservation("sold_out")
		} else {
			monitoring.TrackReservation("error")
		}
		return nil, nil, txErr
	}

	monitoring.TrackReservation("reserved")
	return order, ticket, nil
}

func (s *OrderServiceImpl) InitiatePayment(ctx context.Context, orderID int, principal model.Principal, req model.InitiatePaymentRequest) (*model.PaymentTransaction, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != principal.ID && !principal.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	if order.Status != model.OrderStatusPending {
		return nil, apperrors.ErrInvalidTransition
	}

	return s.payments.Create(ctx, &model.PaymentTransaction{
		OrderID:     order.ID,
		ExternalRef: req.ExternalRef,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Status:      model.PaymentStatusPending,
	})
}

func (s *OrderServiceImpl) CancelOrder(ctx context.Context, orderID int, principal model.Principal) error {
	released := map[int]int{}

	txErr := s.txm.WithinTx(ctx, func(tx pgx.Tx) error {
		order, err := s.orders.FindByIDWithLock(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if order.UserID != principal.ID && !principal.IsAdmin() {
			return apperrors.ErrForbidden
		}

		if !order.Status.CanTransitionTo(model.OrderStatusCancelled) {
			return apperrors.ErrInvalidTransition
		}

		tickets, err := s.tickets.FindByOrderIDWithLock(ctx, tx, order.ID)
		if err != nil {
			return err
		}

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

		_, err = s.orders.UpdateStatus(ctx, tx, order.ID, model.OrderStatusCancelled)
		return err
	})
	if txErr != nil {
		return txErr
	}

	// Mirror the release into the cache so the fast path sees the stock.
	for ticketTypeID, quantity := range released {
		if err := s.inventory.Rollback(ctx, ticketTypeID, quantity); err != nil {
			s.log.Warn("failed to restore inventory cache after cancel",
				zap.Int("ticket_type_id", ticketTypeID), zap.Error(err))
		}
	}

	return nil
}

func (s *OrderServiceImpl) GetOrderByID(ctx context.Context, orderID int, principal model.Principal) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != principal.ID && !principal.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	return order, nil
}

func (s *OrderServiceImpl) ListOrdersByUser(ctx context.Context, principal model.Principal) ([]*model.Order, error) {
	return s.orders.FindByUserID(ctx, principal.ID)
}
