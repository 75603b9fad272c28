package auth

import (
	"github.com/google/uuid"
	"github.com/rentwise/rentwise-backend/pkg/enums"
)

// Actor is the authenticated caller a service acts on behalf of.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

// IsStaff reports whether the actor may manage resources owned by other users.
func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

// CanAccess reports whether the actor may read a resource owned by ownerID.
func (a Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.IsStaff() || a.UserID == ownerID
}
