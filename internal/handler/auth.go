package handler

import (
	"platepos/internal/dto"
	"platepos/internal/middleware"
	"platepos/internal/permission"
	"platepos/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Register godoc
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body dto.RegisterRequest true "New user"
// @Success      201  {object} apierror.Envelope
// @Failure      400  {object} apierror.Envelope
// @Router       /v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, resp)
}

// Login godoc
// @Summary      Authenticate with username/email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body dto.LoginRequest true "Credentials"
// @Success      200  {object} apierror.Envelope
// @Failure      401  {object} apierror.Envelope
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, resp)
}

// Refresh godoc
// @Summary      Exchange a refresh token for a new session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body dto.RefreshRequest true "Refresh token"
// @Success      200  {object} apierror.Envelope
// @Failure      401  {object} apierror.Envelope
// @Router       /v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, resp)
}

// StepUp godoc
// @Summary      Mint an operation-bound step-up token
// @Description  Re-proves the password and returns a short-lived credential bound to one sensitive operation.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.StepUpRequest true "Password and operation"
// @Success      200  {object} apierror.Envelope
// @Failure      401  {object} apierror.Envelope
// @Router       /v1/auth/step-up [post]
func (h *AuthHandler) StepUp(c *gin.Context) {
	var req dto.StepUpRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.StepUp(c.Request.Context(), middleware.GetUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, resp)
}

// ChangePassword godoc
// @Summary      Change own password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ChangePasswordRequest true "Current and new password"
// @Success      200  {object} apierror.Envelope
// @Router       /v1/auth/password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), middleware.GetUser(c).ID, req); err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"changed": true})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	resp, err := h.svc.GetUser(c.Request.Context(), middleware.GetUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, resp)
}

// RequiresAdditionalAuth answers whether the named action demands extra
// authentication for the caller. Clients use this to decide whether to prompt
// before submitting; the gate itself fails safe to "required" when the
// identity lookup errors.
func (h *AuthHandler) RequiresAdditionalAuth(c *gin.Context) {
	action := c.Query("action")
	required := h.svc.RequireAdditionalAuth(c.Request.Context(), middleware.GetUser(c).ID, action)
	ok(c, gin.H{"action": action, "required": required})
}

// MyPermissions returns the caller's effective permission set. Introspection
// only — enforcement always goes through the middleware gates.
func (h *AuthHandler) MyPermissions(c *gin.Context) {
	user := middleware.GetUser(c)
	ok(c, dto.PermissionsResponse{
		Role:        string(user.Role),
		Level:       permission.Level(user.Role),
		Permissions: permission.UserPermissions(user.Role, user.ExtraPermissions...),
	})
}
