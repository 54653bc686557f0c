package dto

// UserFilter is bound from the query string of GET /v1/users.
type UserFilter struct {
	IncludeInactive bool   `form:"include_inactive"`
	Role            string `form:"role" validate:"omitempty,oneof=admin manager waiter kitchen customer"`
	Page            int    `form:"page,default=1"   validate:"min=1"`
	Limit           int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// UpdateUserRequest patches a user. Empty / nil fields are left untouched.
type UpdateUserRequest struct {
	Email            *string  `json:"email"             validate:"omitempty,email"`
	Role             string   `json:"role"              validate:"omitempty,oneof=admin manager waiter kitchen customer"`
	ExtraPermissions []string `json:"extra_permissions" validate:"omitempty,dive,min=1"`
	RestaurantID     *string  `json:"restaurant_id"     validate:"omitempty,uuid"`
	Password         string   `json:"password"          validate:"omitempty,min=8"`
}
