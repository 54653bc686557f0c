package handler

import (
	"platepos/internal/apierror"
	"platepos/internal/dto"
	"platepos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UsersHandler struct{ svc service.AuthService }

func NewUsersHandler(svc service.AuthService) *UsersHandler { return &UsersHandler{svc: svc} }

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		fail(c, apierror.New(apierror.CodeValidationError, "invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

// List godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} apierror.Envelope
// @Router       /v1/users [get]
func (h *UsersHandler) List(c *gin.Context) {
	var filter dto.UserFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	users, total, err := h.svc.ListUsers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	okPaged(c, users, filter.Page, filter.Limit, total)
}

// Get returns one user. Ownership middleware has already ensured that a
// non-elevated caller can only reach their own id.
func (h *UsersHandler) Get(c *gin.Context) {
	id, isValid := parseID(c, "id")
	if !isValid {
		return
	}
	resp, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, resp)
}

// Update patches a user's profile, role, grants, or password.
func (h *UsersHandler) Update(c *gin.Context) {
	id, isValid := parseID(c, "id")
	if !isValid {
		return
	}
	var req dto.UpdateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, resp)
}

// Deactivate godoc
// @Summary      Deactivate a user
// @Description  Users are never hard-deleted; deactivation is the destruction equivalent. Requires a step-up credential for the user:delete operation.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User UUID"
// @Success      200  {object} apierror.Envelope
// @Failure      403  {object} apierror.Envelope
// @Router       /v1/users/{id} [delete]
func (h *UsersHandler) Deactivate(c *gin.Context) {
	id, isValid := parseID(c, "id")
	if !isValid {
		return
	}
	if err := h.svc.DeactivateUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"deactivated": true})
}

func (h *UsersHandler) Reactivate(c *gin.Context) {
	id, isValid := parseID(c, "id")
	if !isValid {
		return
	}
	if err := h.svc.ReactivateUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"reactivated": true})
}
