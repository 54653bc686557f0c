package service

import (
	"platepos/internal/model"

	"github.com/google/uuid"
)

// Scope identifies the authenticated caller for authorization decisions made
// inside services: tenant pinning and admin bypasses.
type Scope struct {
	UserID       uuid.UUID
	Role         model.Role
	RestaurantID *uuid.UUID
}

// Admin reports whether the caller bypasses tenant scoping.
func (s Scope) Admin() bool { return s.Role == model.RoleAdmin }

// Elevated reports whether the caller bypasses ownership checks.
func (s Scope) Elevated() bool {
	return s.Role == model.RoleAdmin || s.Role == model.RoleManager
}

// SameTenant reports whether the caller's tenant matches restaurantID.
// Admins match every tenant.
func (s Scope) SameTenant(restaurantID uuid.UUID) bool {
	if s.Admin() {
		return true
	}
	return s.RestaurantID != nil && *s.RestaurantID == restaurantID
}
