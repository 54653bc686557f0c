package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the fixed role enumeration. Every user holds exactly one role.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleWaiter   Role = "waiter"
	RoleKitchen  Role = "kitchen"
	RoleCustomer Role = "customer"
)

// ValidRole reports whether r is one of the enumerated roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleWaiter, RoleKitchen, RoleCustomer:
		return true
	}
	return false
}

// User stores system principals with role-based access.
// Users are never hard-deleted; Active=false is the destruction equivalent.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Username     string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         Role      `gorm:"type:varchar(20);not null"`
	// ExtraPermissions are identity-specific grants on top of the role set.
	ExtraPermissions []string `gorm:"type:text;serializer:json"`
	// RestaurantID scopes the user to one tenant; nil only for admin.
	RestaurantID *uuid.UUID `gorm:"type:uuid;index"`
	Active       bool       `gorm:"not null;default:true"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
