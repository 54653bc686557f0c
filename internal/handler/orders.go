package handler

import (
	"fmt"
	"net/http"

	"platepos/internal/dto"
	"platepos/internal/infra"
	"platepos/internal/model"
	"platepos/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdersHandler struct {
	svc            service.OrderService
	restaurantName string
}

func NewOrdersHandler(svc service.OrderService, restaurantName string) *OrdersHandler {
	return &OrdersHandler{svc: svc, restaurantName: restaurantName}
}

// Create godoc
// @Summary      Place a new order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateOrderRequest true "Order content"
// @Success      201  {object} apierror.Envelope
// @Failure      400  {object} apierror.Envelope
// @Router       /v1/orders [post]
func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), scopeOf(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, resp)
}

// List godoc
// @Summary      List orders (tenant-scoped, paginated)
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} apierror.Envelope
// @Router       /v1/orders [get]
func (h *OrdersHandler) List(c *gin.Context) {
	var filter dto.OrderFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	orders, total, err := h.svc.List(c.Request.Context(), scopeOf(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	okPaged(c, orders, filter.Page, filter.Limit, total)
}

func (h *OrdersHandler) Get(c *gin.Context) {
	id, isValid := parseID(c, "id")
	if !isValid {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, resp)
}

// UpdateStatus godoc
// @Summary      Move an order through its lifecycle
// @Description  Rejects transitions not allowed by the state machine with INVALID_STATUS_TRANSITION.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                  true "Order UUID"
// @Param        body body dto.UpdateStatusRequest true "Target status"
// @Success      200  {object} apierror.Envelope
// @Failure      400  {object} apierror.Envelope
// @Router       /v1/orders/{id}/status [patch]
func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	id, isValid := parseID(c, "id")
	if !isValid {
		return
	}
	var req dto.UpdateStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateStatus(c.Request.Context(), scopeOf(c), id, model.OrderStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, resp)
}

// Update patches order content. Served and cancelled orders reject every
// patch with ORDER_IMMUTABLE_STATE.
func (h *OrdersHandler) Update(c *gin.Context) {
	id, isValid := parseID(c, "id")
	if !isValid {
		return
	}
	var req dto.UpdateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), scopeOf(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, resp)
}

// Delete removes an order; only pending and cancelled orders are deletable.
func (h *OrdersHandler) Delete(c *gin.Context) {
	id, isValid := parseID(c, "id")
	if !isValid {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), scopeOf(c), id); err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"deleted": true})
}

// Receipt streams the order receipt as a PDF.
func (h *OrdersHandler) Receipt(c *gin.Context) {
	id, isValid := parseID(c, "id")
	if !isValid {
		return
	}
	order, err := h.svc.Receipt(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	pdf, err := infra.RenderReceipt(order, h.restaurantName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=receipt_%s.pdf", order.OrderNumber))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
