package service

import (
	"context"

	"ticketpro/internal/cache"
	"ticketpro/internal/model"
	"ticketpro/internal/repository"
	"ticketpro/pkg/apperrors"
	"ticketpro/pkg/logger"

	"go.uber.org/zap"
)

// Availability pairs the authoritative counters with the cached fast-path
// stock. CachedStock is negative when the cache holds nothing for the type.
type Availability struct {
	TicketType  *model.TicketType `json:"ticket_type"`
	CachedStock int               `json:"cached_stock"`
}

// InventoryService manages the sellable catalog: ticket type creation and
// retirement, and keeping the cache gate in step with the ledger.
type InventoryService interface {
	CreateTicketType(ctx context.Context, principal model.Principal, req model.CreateTicketTypeRequest) (*model.TicketType, error)
	DeleteTicketType(ctx context.Context, ticketTypeID int, principal model.Principal) error
	GetAvailability(ctx context.Context, ticketTypeID int) (*Availability, error)
	// WarmUpAll seeds the cache from the ledger for every live ticket type.
	// Called at startup so the gate reflects current stock from the first
	// request on.
	WarmUpAll(ctx context.Context) error
}

type InventoryServiceImpl struct {
	ticketTypes repository.TicketTypeRepository
	events      repository.EventRepository
	inventory   cache.InventoryCache
	log         *zap.Logger
}

func NewInventoryService(
	ticketTypes repository.TicketTypeRepository,
	events repository.EventRepository,
	inventory cache.InventoryCache,
) InventoryService {
	return &InventoryServiceImpl{
		ticketTypes: ticketTypes,
		events:      events,
		inventory:   inventory,
		log:         logger.WithComponent("inventory_service"),
	}
}

func (s *InventoryServiceImpl) CreateTicketType(ctx context.Context, principal model.Principal, req model.CreateTicketTypeRequest) (*model.TicketType, error) {
	event, err := s.events.FindByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	if !principal.CanValidateEvent(event.OrganizerID) {
		return nil, apperrors.ErrForbidden
	}

	ticketType, err := s.ticketTypes.Create(ctx, &model.TicketType{
		EventID:       req.EventID,
		Name:          req.Name,
		Price:         req.Price,
		TotalQuantity: req.Quantity,
	})
	if err != nil {
		return nil, err
	}

	// A stale gate would refuse sales for a type the ledger can serve, so
	// warm-up failure is logged but never blocks creation.
	if err := s.inventory.WarmUp(ctx, ticketType.ID, ticketType.AvailableQuantity); err != nil {
		s.log.Warn("failed to warm inventory cache for new ticket type",
			zap.Int("ticket_type_id", ticketType.ID), zap.Error(err))
	}

	return ticketType, nil
}

func (s *InventoryServiceImpl) DeleteTicketType(ctx context.Context, ticketTypeID int, principal model.Principal) error {
	ticketType, err := s.ticketTypes.FindByID(ctx, ticketTypeID)
	if err != nil {
		return err
	}

	event, err := s.events.FindByID(ctx, ticketType.EventID)
	if err != nil {
		return err
	}

	if !principal.CanValidateEvent(event.OrganizerID) {
		return apperrors.ErrForbidden
	}

	if err := s.ticketTypes.Delete(ctx, ticketTypeID); err != nil {
		return err
	}

	// Empty the gate so the fast path stops admitting reservations for a
	// retired type.
	if err := s.inventory.WarmUp(ctx, ticketTypeID, 0); err != nil {
		s.log.Warn("failed to clear inventory cache for deleted ticket type",
			zap.Int("ticket_type_id", ticketTypeID), zap.Error(err))
	}

	return nil
}

func (s *InventoryServiceImpl) GetAvailability(ctx context.Context, ticketTypeID int) (*Availability, error) {
	ticketType, err := s.ticketTypes.FindByID(ctx, ticketTypeID)
	if err != nil {
		return nil, err
	}

	cached, err := s.inventory.GetStock(ctx, ticketTypeID)
	if err != nil {
		s.log.Warn("failed to read inventory cache",
			zap.Int("ticket_type_id", ticketTypeID), zap.Error(err))
		cached = -1
	}

	return &Availability{
		TicketType:  ticketType,
		CachedStock: cached,
	}, nil
}

func (s *InventoryServiceImpl) WarmUpAll(ctx context.Context) error {
	ticketTypes, err := s.ticketTypes.FindAllActive(ctx)
	if err != nil {
		return err
	}

	for _, ticketType := range ticketTypes {
		if err := s.inventory.WarmUp(ctx, ticketType.ID, ticketType.AvailableQuantity); err != nil {
			return err
		}
	}

	s.log.Info("inventory cache warmed", zap.Int("ticket_types", len(ticketTypes)))
	return nil
}
