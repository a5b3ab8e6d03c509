package model

import "time"

// Event is read-only in this service; it exists so venue-side operations can
// resolve the organizer for authorization checks.
type Event struct {
	ID          int        `json:"id" db:"id"`
	OrganizerID int        `json:"organizer_id" db:"organizer_id"`
	Name        string     `json:"name" db:"name"`
	Location    string     `json:"location" db:"location"`
	StartsAt    time.Time  `json:"starts_at" db:"starts_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

func (e *Event) IsDeleted() bool {
	return e.DeletedAt != nil
}
