// internal/services/principal.go
package services

import "github.com/google/uuid"

// Principal is the authenticated caller handed over by the auth middleware.
type Principal struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// CanActFor reports whether the principal may act on a resource owned by ownerID.
func (p Principal) CanActFor(ownerID uuid.UUID) bool {
	return p.IsAdmin || (p.UserID != uuid.Nil && p.UserID == ownerID)
}
