package principal

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/sport_shop/internal/models"
)

// Principal is the authenticated caller every workflow authorizes against.
type Principal struct {
	ID      uuid.UUID
	Name    string
	IsAdmin bool
}

func FromUser(u *models.User) Principal {
	return Principal{ID: u.ID, Name: u.DisplayName(), IsAdmin: u.IsAdmin()}
}

// Owns reports whether the principal owns a record referencing userID, or is admin.
func (p Principal) Owns(userID *uuid.UUID) bool {
	if p.IsAdmin {
		return true
	}
	return userID != nil && *userID == p.ID
}
