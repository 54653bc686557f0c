package handler

import (
	"platepos/internal/middleware"
	"platepos/internal/worker"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes operator endpoints that ride on top of sensitive
// operations (step-up protected at the router).
type AdminHandler struct{ dispatcher *worker.Dispatcher }

func NewAdminHandler(dispatcher *worker.Dispatcher) *AdminHandler {
	return &AdminHandler{dispatcher: dispatcher}
}

// Export godoc
// @Summary      Export order data
// @Description  Sensitive operation (data:export): requires a valid step-up credential. The export runs asynchronously.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      202  {object} apierror.Envelope
// @Failure      403  {object} apierror.Envelope
// @Router       /v1/admin/export [post]
func (h *AdminHandler) Export(c *gin.Context) {
	user := middleware.GetUser(c)
	payload := worker.ExportJobPayload{RequestedBy: user.ID.String()}
	// Non-admin elevated callers export only their own tenant
	if user.RestaurantID != nil {
		payload.RestaurantID = user.RestaurantID.String()
	}
	if err := h.dispatcher.EnqueueExport(c.Request.Context(), payload); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(202, gin.H{"success": true, "data": gin.H{"queued": true}})
}
