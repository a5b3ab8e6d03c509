package service

import (
	"context"
	"time"

	"ticketpro/internal/model"
	"ticketpro/internal/notification"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

// fakeTxManager runs the transactional function directly. The repositories
// under it are mocks, so no real transaction is needed.
type fakeTxManager struct {
	beginErr error
}

func (f *fakeTxManager) WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	return fn(nil)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id int) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *mockOrderRepository) FindByUserID(ctx context.Context, userID int) ([]*model.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Order), args.Error(1)
}

func (m *mockOrderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) (*model.Order, error) {
	args := m.Called(ctx, tx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *mockOrderRepository) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.OrderStatus) (*model.Order, error) {
	args := m.Called(ctx, tx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

type mockTicketRepository struct {
	mock.Mock
}

func (m *mockTicketRepository) FindByID(ctx context.Context, id int) (*model.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *mockTicketRepository) FindByOrderID(ctx context.Context, orderID int) ([]*model.Ticket, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Ticket), args.Error(1)
}

func (m *mockTicketRepository) Create(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) (*model.Ticket, error) {
	args := m.Called(ctx, tx, ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *mockTicketRepository) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Ticket, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *mockTicketRepository) FindByOrderIDWithLock(ctx context.Context, tx pgx.Tx, orderID int) ([]*model.Ticket, error) {
	args := m.Called(ctx, tx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Ticket), args.Error(1)
}

func (m *mockTicketRepository) SetIssued(ctx context.Context, tx pgx.Tx, id int, qrPayload string) error {
	args := m.Called(ctx, tx, id, qrPayload)
	return args.Error(0)
}

func (m *mockTicketRepository) UpdateState(ctx context.Context, tx pgx.Tx, id int, from, to model.TicketState) error {
	args := m.Called(ctx, tx, id, from, to)
	return args.Error(0)
}

func (m *mockTicketRepository) MarkCheckedIn(ctx context.Context, tx pgx.Tx, id int, staffID int, at time.Time) error {
	args := m.Called(ctx, tx, id, staffID, at)
	return args.Error(0)
}

func (m *mockTicketRepository) MarkCheckedOut(ctx context.Context, tx pgx.Tx, id int) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *mockTicketRepository) Reassign(ctx context.Context, tx pgx.Tx, id int, newOrderID int) error {
	args := m.Called(ctx, tx, id, newOrderID)
	return args.Error(0)
}

type mockTicketTypeRepository struct {
	mock.Mock
}

func (m *mockTicketTypeRepository) Create(ctx context.Context, ticketType *model.TicketType) (*model.TicketType, error) {
	args := m.Called(ctx, ticketType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TicketType), args.Error(1)
}

func (m *mockTicketTypeRepository) FindByID(ctx context.Context, id int) (*model.TicketType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TicketType), args.Error(1)
}

func (m *mockTicketTypeRepository) FindAllActive(ctx context.Context) ([]*model.TicketType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TicketType), args.Error(1)
}

func (m *mockTicketTypeRepository) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockTicketTypeRepository) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.TicketType, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TicketType), args.Error(1)
}

func (m *mockTicketTypeRepository) ReserveStock(ctx context.Context, tx pgx.Tx, id int, quantity int) error {
	args := m.Called(ctx, tx, id, quantity)
	return args.Error(0)
}

func (m *mockTicketTypeRepository) ReleaseStock(ctx context.Context, tx pgx.Tx, id int, quantity int) error {
	args := m.Called(ctx, tx, id, quantity)
	return args.Error(0)
}

type mockPaymentRepository struct {
	mock.Mock
}

func (m *mockPaymentRepository) Create(ctx context.Context, payment *model.PaymentTransaction) (*model.PaymentTransaction, error) {
	args := m.Called(ctx, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentTransaction), args.Error(1)
}

func (m *mockPaymentRepository) FindByExternalRef(ctx context.Context, externalRef string) (*model.PaymentTransaction, error) {
	args := m.Called(ctx, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentTransaction), args.Error(1)
}

func (m *mockPaymentRepository) FindByOrderID(ctx context.Context, orderID int) (*model.PaymentTransaction, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentTransaction), args.Error(1)
}

func (m *mockPaymentRepository) FindByExternalRefWithLock(ctx context.Context, tx pgx.Tx, externalRef string) (*model.PaymentTransaction, error) {
	args := m.Called(ctx, tx, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentTransaction), args.Error(1)
}

func (m *mockPaymentRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.PaymentStatus, errorMessage *string) error {
	args := m.Called(ctx, tx, id, status, errorMessage)
	return args.Error(0)
}

type mockEventRepository struct {
	mock.Mock
}

func (m *mockEventRepository) FindByID(ctx context.Context, id int) (*model.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

type mockInventoryCache struct {
	mock.Mock
}

func (m *mockInventoryCache) WarmUp(ctx context.Context, ticketTypeID int, stock int) error {
	args := m.Called(ctx, ticketTypeID, stock)
	return args.Error(0)
}

func (m *mockInventoryCache) GetStock(ctx context.Context, ticketTypeID int) (int, error) {
	args := m.Called(ctx, ticketTypeID)
	return args.Int(0), args.Error(1)
}

func (m *mockInventoryCache) Reserve(ctx context.Context, ticketTypeID int, quantity int) (bool, error) {
	args := m.Called(ctx, ticketTypeID, quantity)
	return args.Bool(0), args.Error(1)
}

func (m *mockInventoryCache) Rollback(ctx context.Context, ticketTypeID int, quantity int) error {
	args := m.Called(ctx, ticketTypeID, quantity)
	return args.Error(0)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Publish(ctx context.Context, n notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *mockQueue) Subscribe(ctx context.Context) (<-chan notification.Delivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan notification.Delivery), args.Error(1)
}
