package dto

// ─── Requests ────────────────────────────────────────────────────────────────

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"     validate:"required,oneof=admin manager waiter kitchen customer"`
	// RestaurantID is required for every role except admin; the service
	// enforces that rule since validator tags cannot express it.
	RestaurantID *string `json:"restaurant_id" validate:"omitempty,uuid"`
}

type LoginRequest struct {
	// Username accepts either the username or the email address.
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// StepUpRequest re-proves the password and names the sensitive operation the
// resulting token will be bound to.
type StepUpRequest struct {
	Password  string `json:"password"  validate:"required"`
	Operation string `json:"operation" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type UserResponse struct {
	ID               string   `json:"id"`
	Email            string   `json:"email"`
	Username         string   `json:"username"`
	Role             string   `json:"role"`
	ExtraPermissions []string `json:"extra_permissions,omitempty"`
	RestaurantID     *string  `json:"restaurant_id,omitempty"`
	Active           bool     `json:"active"`
	LastLoginAt      *string  `json:"last_login_at,omitempty"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	User         UserResponse `json:"user"`
}

type StepUpResponse struct {
	StepUpToken string `json:"step_up_token"`
	Operation   string `json:"operation"`
	ExpiresIn   int    `json:"expires_in"`
}

type PermissionsResponse struct {
	Role        string   `json:"role"`
	Level       int      `json:"level"`
	Permissions []string `json:"permissions"`
}
