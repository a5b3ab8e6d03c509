package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ticketpro/internal/cache"
	"ticketpro/internal/model"
	"ticketpro/internal/repository"
	"ticketpro/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newOrderServiceForTest(txm *fakeTxManager) (OrderService, *mockOrderRepository, *mockTicketRepository, *mockTicketTypeRepository, *mockPaymentRepository, *mockInventoryCache) {
	orderRepo := new(mockOrderRepository)
	ticketRepo := new(mockTicketRepository)
	ticketTypeRepo := new(mockTicketTypeRepository)
	paymentRepo := new(mockPaymentRepository)
	inventory := new(mockInventoryCache)

	svc := NewOrderService(txm, orderRepo, ticketRepo, ticketTypeRepo, paymentRepo, inventory)
	return svc, orderRepo, ticketRepo, ticketTypeRepo, paymentRepo, inventory
}

func TestOrderService_ReserveTicket(t *testing.T) {
	ctx := context.Background()

	ticketType := &model.TicketType{
		ID: 10, EventID: 3, Name: "General", Price: 50.0,
		TotalQuantity: 100, AvailableQuantity: 5, SoldQuantity: 95,
	}

	t.Run("Success", func(t *testing.T) {
		svc, orderRepo, ticketRepo, ticketTypeRepo, _, inventory := newOrderServiceForTest(&fakeTxManager{})

		ticketTypeRepo.On("FindByID", ctx, 10).Return(ticketType, nil).Once()
		inventory.On("Reserve", ctx, 10, 1).Return(true, nil).Once()
		ticketTypeRepo.On("ReserveStock", ctx, mock.Anything, 10, 1).Return(nil).Once()
		orderRepo.On("Create", ctx, mock.Anything, mock.Anything).
			Return(&model.Order{ID: 1, UserID: 7, EventID: 3, TotalPrice: 50.0, Status: model.OrderStatusPending}, nil).Once()
		ticketRepo.On("Create", ctx, mock.Anything, mock.Anything).
			Return(&model.Ticket{ID: 100, OrderID: 1, TicketTypeID: 10, State: model.TicketStateReserved}, nil).Once()

		order, ticket, err := svc.ReserveTicket(ctx, 7, model.ReserveTicketRequest{TicketTypeID: 10})

		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPending, order.Status)
		assert.Equal(t, model.TicketStateReserved, ticket.State)
		inventory.AssertNotCalled(t, "Rollback", mock.Anything, mock.Anything, mock.Anything)
		ticketTypeRepo.AssertExpectations(t)
	})

	t.Run("Failed - cache reports sold out", func(t *testing.T) {
		svc, _, _, ticketTypeRepo, _, inventory := newOrderServiceForTest(&fakeTxManager{})

		ticketTypeRepo.On("FindByID", ctx, 10).Return(ticketType, nil).Once()
		inventory.On("Reserve", ctx, 10, 1).Return(false, nil).Once()

		_, _, err := svc.ReserveTicket(ctx, 7, model.ReserveTicketRequest{TicketTypeID: 10})

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrSoldOut)
		ticketTypeRepo.AssertNotCalled(t, "ReserveStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success - cache unavailable falls back to database", func(t *testing.T) {
		svc, orderRepo, ticketRepo, ticketTypeRepo, _, inventory := newOrderServiceForTest(&fakeTxManager{})

		ticketTypeRepo.On("FindByID", ctx, 10).Return(ticketType, nil).Once()
		inventory.On("Reserve", ctx, 10, 1).Return(false, errors.New("redis down")).Once()
		ticketTypeRepo.On("ReserveStock", ctx, mock.Anything, 10, 1).Return(nil).Once()
		orderRepo.On("Create", ctx, mock.Anything, mock.Anything).
			Return(&model.Order{ID: 2, Status: model.OrderStatusPending}, nil).Once()
		ticketRepo.On("Create", ctx, mock.Anything, mock.Anything).
			Return(&model.Ticket{ID: 101, State: model.TicketStateReserved}, nil).Once()

		_, _, err := svc.ReserveTicket(ctx, 7, model.ReserveTicketRequest{TicketTypeID: 10})

		require.NoError(t, err)
		ticketTypeRepo.AssertExpectations(t)
	})

	t.Run("Failed - ledger sold out rolls back cache", func(t *testing.T) {
		svc, _, _, ticketTypeRepo, _, inventory := newOrderServiceForTest(&fakeTxManager{})

		ticketTypeRepo.On("FindByID", ctx, 10).Return(ticketType, nil).Once()
		inventory.On("Reserve", ctx, 10, 1).Return(true, nil).Once()
		ticketTypeRepo.On("ReserveStock", ctx, mock.Anything, 10, 1).Return(apperrors.ErrSoldOut).Once()
		inventory.On("Rollback", mock.Anything, 10, 1).Return(nil).Once()

		_, _, err := svc.ReserveTicket(ctx, 7, model.ReserveTicketRequest{TicketTypeID: 10})

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrSoldOut)
		inventory.AssertExpectations(t)
	})

	t.Run("Failed - unknown ticket type", func(t *testing.T) {
		svc, _, _, ticketTypeRepo, _, _ := newOrderServiceForTest(&fakeTxManager{})

		ticketTypeRepo.On("FindByID", ctx, 99).Return(nil, apperrors.ErrTicketTypeNotFound).Once()

		_, _, err := svc.ReserveTicket(ctx, 7, model.ReserveTicketRequest{TicketTypeID: 99})

		assert.ErrorIs(t, err, apperrors.ErrTicketTypeNotFound)
	})

	t.Run("Failed - no units left", func(t *testing.T) {
		svc, _, _, ticketTypeRepo, _, inventory := newOrderServiceForTest(&fakeTxManager{})

		exhausted := &model.TicketType{
			ID: 10, EventID: 3, Name: "General", Price: 50.0,
			TotalQuantity: 100, AvailableQuantity: 0, SoldQuantity: 100,
		}
		ticketTypeRepo.On("FindByID", ctx, 10).Return(exhausted, nil).Once()

		_, _, err := svc.ReserveTicket(ctx, 7, model.ReserveTicketRequest{TicketTypeID: 10})

		assert.ErrorIs(t, err, apperrors.ErrSoldOut)
		inventory.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed - row lock timed out rolls back cache", func(t *testing.T) {
		svc, _, _, ticketTypeRepo, _, inventory := newOrderServiceForTest(&fakeTxManager{})

		ticketTypeRepo.On("FindByID", ctx, 10).Return(ticketType, nil).Once()
		inventory.On("Reserve", ctx, 10, 1).Return(true, nil).Once()
		ticketTypeRepo.On("ReserveStock", ctx, mock.Anything, 10, 1).Return(apperrors.ErrConcurrencyConflict).Once()
		inventory.On("Rollback", mock.Anything, 10, 1).Return(nil).Once()

		_, _, err := svc.ReserveTicket(ctx, 7, model.ReserveTicketRequest{TicketTypeID: 10})

		assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)
		inventory.AssertExpectations(t)
	})
}

func TestOrderService_InitiatePayment(t *testing.T) {
	ctx := context.Background()
	req := model.InitiatePaymentRequest{ExternalRef: "pay_abc", Amount: 50.0, Currency: "USD"}

	t.Run("Success", func(t *testing.T) {
		svc, orderRepo, _, _, paymentRepo, _ := newOrderServiceForTest(&fakeTxManager{})

		orderRepo.On("FindByID", ctx, 1).
			Return(&model.Order{ID: 1, UserID: 7, Status: model.OrderStatusPending}, nil).Once()
		paymentRepo.On("Create", ctx, mock.MatchedBy(func(p *model.PaymentTransaction) bool {
			return p.OrderID == 1 && p.ExternalRef == "pay_abc" && p.Status == model.PaymentStatusPending
		})).Return(&model.PaymentTransaction{ID: 5, OrderID: 1, ExternalRef: "pay_abc", Status: model.PaymentStatusPending}, nil).Once()

		payment, err := svc.InitiatePayment(ctx, 1, model.Principal{ID: 7, Role: model.RoleUser}, req)

		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusPending, payment.Status)
	})

	t.Run("Failed - not the buyer", func(t *testing.T) {
		svc, orderRepo, _, _, _, _ := newOrderServiceForTest(&fakeTxManager{})

		orderRepo.On("FindByID", ctx, 1).
			Return(&model.Order{ID: 1, UserID: 7, Status: model.OrderStatusPending}, nil).Once()

		_, err := svc.InitiatePayment(ctx, 1, model.Principal{ID: 8, Role: model.RoleUser}, req)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("Failed - order no longer pending", func(t *testing.T) {
		svc, orderRepo, _, _, _, _ := newOrderServiceForTest(&fakeTxManager{})

		orderRepo.On("FindByID", ctx, 1).
			Return(&model.Order{ID: 1, UserID: 7, Status: model.OrderStatusCompleted}, nil).Once()

		_, err := svc.InitiatePayment(ctx, 1, model.Principal{ID: 7, Role: model.RoleUser}, req)

		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	})
}

func TestOrderService_CancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - releases stock and mirrors the cache", func(t *testing.T) {
		svc, orderRepo, ticketRepo, ticketTypeRepo, _, inventory := newOrderServiceForTest(&fakeTxManager{})

		orderRepo.On("FindByIDWithLock", ctx, mock.Anything, 1).
			Return(&model.Order{ID: 1, UserID: 7, Status: model.OrderStatusPending}, nil).Once()
		ticketRepo.On("FindByOrderIDWithLock", ctx, mock.Anything, 1).
			Return([]*model.Ticket{
				{ID: 100, TicketTypeID: 10, State: model.TicketStateReserved},
			}, nil).Once()
		ticketTypeRepo.On("ReleaseStock", ctx, mock.Anything, 10, 1).Return(nil).Once()
		ticketRepo.On("UpdateState", ctx, mock.Anything, 100, model.TicketStateReserved, model.TicketStateCancelled).Return(nil).Once()
		orderRepo.On("UpdateStatus", ctx, mock.Anything, 1, model.OrderStatusCancelled).
			Return(&model.Order{ID: 1, Status: model.OrderStatusCancelled}, nil).Once()
		inventory.On("Rollback", ctx, 10, 1).Return(nil).Once()

		err := svc.CancelOrder(ctx, 1, model.Principal{ID: 7, Role: model.RoleUser})

		require.NoError(t, err)
		inventory.AssertExpectations(t)
		ticketTypeRepo.AssertExpectations(t)
	})

	t.Run("Failed - not the buyer", func(t *testing.T) {
		svc, orderRepo, _, _, _, _ := newOrderServiceForTest(&fakeTxManager{})

		orderRepo.On("FindByIDWithLock", ctx, mock.Anything, 1).
			Return(&model.Order{ID: 1, UserID: 7, Status: model.OrderStatusPending}, nil).Once()

		err := svc.CancelOrder(ctx, 1, model.Principal{ID: 8, Role: model.RoleUser})

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("Failed - completed orders cannot be cancelled", func(t *testing.T) {
		svc, orderRepo, _, _, _, _ := newOrderServiceForTest(&fakeTxManager{})

		orderRepo.On("FindByIDWithLock", ctx, mock.Anything, 1).
			Return(&model.Order{ID: 1, UserID: 7, Status: model.OrderStatusCompleted}, nil).Once()

		err := svc.CancelOrder(ctx, 1, model.Principal{ID: 7, Role: model.RoleUser})

		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	})
}

// ledgerStub is an in-memory conditional-update ledger with the same
// semantics as the real repository: decrement only while stock remains.
type ledgerStub struct {
	repository.TicketTypeRepository

	mu         sync.Mutex
	ticketType model.TicketType
}

func (l *ledgerStub) FindByID(ctx context.Context, id int) (*model.TicketType, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	copied := l.ticketType
	return &copied, nil
}

func (l *ledgerStub) ReserveStock(ctx context.Context, tx pgx.Tx, id int, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ticketType.AvailableQuantity < quantity {
		return apperrors.ErrSoldOut
	}
	l.ticketType.AvailableQuantity -= quantity
	l.ticketType.SoldQuantity += quantity
	return nil
}

type passthroughCache struct {
	cache.InventoryCache
}

func (passthroughCache) Reserve(ctx context.Context, ticketTypeID int, quantity int) (bool, error) {
	return true, nil
}

func (passthroughCache) Rollback(ctx context.Context, ticketTypeID int, quantity int) error {
	return nil
}

// Concurrent reservations must never oversell: with 5 units and 50 buyers,
// exactly 5 succeed and the rest see sold out.
func TestOrderService_ReserveTicket_Concurrent(t *testing.T) {
	ctx := context.Background()

	ledger := &ledgerStub{ticketType: model.TicketType{
		ID: 10, EventID: 3, Name: "General", Price: 50.0,
		TotalQuantity: 5, AvailableQuantity: 5,
	}}

	orderRepo := new(mockOrderRepository)
	ticketRepo := new(mockTicketRepository)
	orderRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(&model.Order{ID: 1, Status: model.OrderStatusPending}, nil)
	ticketRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(&model.Ticket{ID: 100, State: model.TicketStateReserved}, nil)

	svc := NewOrderService(&fakeTxManager{}, orderRepo, ticketRepo, ledger, new(mockPaymentRepository), passthroughCache{})

	const buyers = 50
	var wg sync.WaitGroup
	results := make(chan error, buyers)

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			_, _, err := svc.ReserveTicket(ctx, userID, model.ReserveTicketRequest{TicketTypeID: 10})
			results <- err
		}(i + 1)
	}
	wg.Wait()
	close(results)

	var succeeded, soldOut int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperrors.ErrSoldOut):
			soldOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, buyers-5, soldOut)
	assert.Equal(t, 0, ledger.ticketType.AvailableQuantity)
	assert.Equal(t, 5, ledger.ticketType.SoldQuantity)
}
