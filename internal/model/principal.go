package model

type Role string

const (
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated caller, supplied by the auth layer in front
// of this service. The core trusts it.
type Principal struct {
	ID   int  `json:"id"`
	Role Role `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanValidateEvent reports whether the principal may perform venue-side
// operations (scan, check-in, check-out, transfer) for the event owned by
// organizerID.
func (p Principal) CanValidateEvent(organizerID int) bool {
	if p.Role == RoleAdmin {
		return true
	}
	return p.Role == RoleOrganizer && p.ID == organizerID
}
