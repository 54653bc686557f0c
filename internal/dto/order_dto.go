package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// OrderFilter is bound from the query string of GET /v1/orders.
// RestaurantID is never bound from the request for non-admin callers — the
// tenant-scope middleware forces the caller's own tenant into it.
type OrderFilter struct {
	Status       string `form:"status"        validate:"omitempty,oneof=pending confirmed preparing ready served cancelled all"`
	Date         string `form:"date"          validate:"omitempty,datetime=2006-01-02"`
	RestaurantID string `form:"restaurant_id" validate:"omitempty,uuid"`
	Page         int    `form:"page,default=1"   validate:"min=1"`
	Limit        int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Requests ────────────────────────────────────────────────────────────────

type OrderItemRequest struct {
	MenuItemID string          `json:"menu_item_id" validate:"required,uuid"`
	Name       string          `json:"name"         validate:"required"`
	UnitPrice  decimal.Decimal `json:"unit_price"   validate:"min=0"`
	Quantity   int             `json:"quantity"     validate:"required,min=1"`
	Notes      string          `json:"notes"`
}

type CreateOrderRequest struct {
	Items         []OrderItemRequest `json:"items"          validate:"required,min=1,dive"`
	Tax           decimal.Decimal    `json:"tax"            validate:"min=0"`
	Discount      decimal.Decimal    `json:"discount"       validate:"min=0"`
	PaymentMethod *string            `json:"payment_method" validate:"omitempty,oneof=cash card transfer"`
	Notes         string             `json:"notes"`
	CustomerID    *string            `json:"customer_id"    validate:"omitempty,uuid"`
	// RestaurantID may only be honored for admin callers; everyone else is
	// pinned to their own tenant.
	RestaurantID *string `json:"restaurant_id" validate:"omitempty,uuid"`
}

// UpdateOrderRequest patches order content. Rejected outright when the order
// is served or cancelled, before any field is inspected.
type UpdateOrderRequest struct {
	Items         []OrderItemRequest `json:"items"          validate:"omitempty,min=1,dive"`
	Tax           *decimal.Decimal   `json:"tax"            validate:"omitempty"`
	Discount      *decimal.Decimal   `json:"discount"       validate:"omitempty"`
	PaymentStatus string             `json:"payment_status" validate:"omitempty,oneof=pending paid failed refunded partial"`
	PaymentMethod *string            `json:"payment_method" validate:"omitempty,oneof=cash card transfer"`
	Notes         *string            `json:"notes"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed preparing ready served cancelled"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type OrderItemResponse struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	Notes      string          `json:"notes,omitempty"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	RestaurantID  string              `json:"restaurant_id"`
	OrderNumber   string              `json:"order_number"`
	Items         []OrderItemResponse `json:"items"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Tax           decimal.Decimal     `json:"tax"`
	Discount      decimal.Decimal     `json:"discount"`
	Total         decimal.Decimal     `json:"total"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	PaymentMethod *string             `json:"payment_method,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	CreatedBy     string              `json:"created_by"`
	CustomerID    *string             `json:"customer_id,omitempty"`
	CreatedAt     string              `json:"created_at"`
}
