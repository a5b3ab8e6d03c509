package model

import "time"

// TicketType carries the inventory counters for one sellable category of an
// event. The counters are mutated only through TicketTypeRepository, which
// guarantees available_quantity + sold_quantity == total_quantity at rest.
type TicketType struct {
	ID                int        `json:"id" db:"id"`
	EventID           int        `json:"event_id" db:"event_id"`
	Name              string     `json:"name" db:"name"`
	Price             float64    `json:"price" db:"price"`
	TotalQuantity     int        `json:"total_quantity" db:"total_quantity"`
	AvailableQuantity int        `json:"available_quantity" db:"available_quantity"`
	SoldQuantity      int        `json:"sold_quantity" db:"sold_quantity"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

func (t *TicketType) IsDeleted() bool {
	return t.DeletedAt != nil
}

// IsAvailable reports whether at least one unit can still be reserved.
func (t *TicketType) IsAvailable() bool {
	return !t.IsDeleted() && t.AvailableQuantity > 0
}

type CreateTicketTypeRequest struct {
	EventID  int     `json:"event_id" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Price    float64 `json:"price" binding:"min=0"`
	Quantity int     `json:"quantity" binding:"required,min=1"`
}
