package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusServed    OrderStatus = "served"
	StatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus tracks payment settlement independently of the lifecycle.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentPartial  PaymentStatus = "partial"
)

// statusTransitions is the authoritative state machine. served and cancelled
// are terminal: they map to an empty set.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusServed},
	StatusServed:    {},
	StatusCancelled: {},
}

// ValidStatus reports whether s is one of the enumerated lifecycle states.
func ValidStatus(s OrderStatus) bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether the state machine allows moving from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the valid next states from s (empty for terminal states).
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	return statusTransitions[s]
}

// Terminal reports whether s admits no further transitions.
func (s OrderStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

// OrderItem is one line of an order. Prices are snapshotted at order time so
// later menu edits do not rewrite history.
type OrderItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	MenuItemID uuid.UUID       `gorm:"type:uuid;not null"`
	Name       string          `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity   int             `gorm:"not null"`
	Notes      string
}

// Order is the tenant-scoped order aggregate.
// Invariant: Total = Subtotal + Tax − Discount, and Subtotal = Σ price×qty
// over Items. Recalculate enforces both; callers must invoke it before
// persisting whenever items or monetary fields change.
type Order struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RestaurantID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_orders_restaurant_number,priority:1"`
	// OrderNumber is sequential per (restaurant, calendar day), format
	// YYMMDD-NNNN. Uniqueness is scoped to the tenant: two restaurants'
	// first orders of the day both carry -0001.
	OrderNumber   string      `gorm:"uniqueIndex:idx_orders_restaurant_number,priority:2;not null"`
	Items         []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Tax           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status        OrderStatus     `gorm:"type:varchar(20);not null;default:pending"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);not null;default:pending"`
	PaymentMethod *string
	Notes         string
	CreatedBy     uuid.UUID  `gorm:"type:uuid;not null"`
	CustomerID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Recalculate re-derives the monetary invariants. When itemsChanged, Subtotal
// is rebuilt from the line items first. Total is never clamped: a discount
// larger than subtotal+tax yields a negative total.
func (o *Order) Recalculate(itemsChanged bool) {
	if itemsChanged {
		sum := decimal.Zero
		for _, it := range o.Items {
			sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
		o.Subtotal = sum
	}
	o.Total = o.Subtotal.Add(o.Tax).Sub(o.Discount)
}

// Deletable reports whether the order may be physically removed.
func (o *Order) Deletable() bool {
	return o.Status == StatusPending || o.Status == StatusCancelled
}

// Mutable reports whether content updates are still allowed. served and
// cancelled orders are frozen regardless of what the patch touches.
func (o *Order) Mutable() bool {
	return o.Status != StatusServed && o.Status != StatusCancelled
}
