package service

import (
	"context"
	"fmt"
	"time"

	"platepos/internal/apierror"
	"platepos/internal/dto"
	"platepos/internal/model"
	"platepos/internal/repository"
	"platepos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type OrderService interface {
	Create(ctx context.Context, scope Scope, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Get(ctx context.Context, scope Scope, id uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, scope Scope, filter dto.OrderFilter) ([]dto.OrderResponse, int64, error)
	UpdateStatus(ctx context.Context, scope Scope, id uuid.UUID, newStatus model.OrderStatus) (*dto.OrderResponse, error)
	Update(ctx context.Context, scope Scope, id uuid.UUID, req dto.UpdateOrderRequest) (*dto.OrderResponse, error)
	Delete(ctx context.Context, scope Scope, id uuid.UUID) error
	// Receipt returns the raw order aggregate for receipt rendering.
	Receipt(ctx context.Context, scope Scope, id uuid.UUID) (*model.Order, error)
}

type orderService struct {
	repo       repository.OrderRepository
	users      repository.UserRepository
	dispatcher *worker.Dispatcher
	now        func() time.Time
}

func NewOrderService(repo repository.OrderRepository, users repository.UserRepository, dispatcher *worker.Dispatcher) OrderService {
	return &orderService{repo: repo, users: users, dispatcher: dispatcher, now: time.Now}
}

// orderNumber formats seq into the canonical YYMMDD-NNNN order number.
func orderNumber(day time.Time, seq int) string {
	return fmt.Sprintf("%s-%04d", day.Format("060102"), seq)
}

func (s *orderService) Create(ctx context.Context, scope Scope, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	// Resolve the tenant: non-admin callers are pinned to their own
	// restaurant no matter what the request says.
	var restaurantID uuid.UUID
	switch {
	case !scope.Admin():
		if scope.RestaurantID == nil {
			return nil, apierror.New(apierror.CodeResourceAccessDenied, "caller has no restaurant scope")
		}
		restaurantID = *scope.RestaurantID
	case req.RestaurantID != nil:
		rid, err := uuid.Parse(*req.RestaurantID)
		if err != nil {
			return nil, apierror.New(apierror.CodeValidationError, "invalid restaurant_id")
		}
		restaurantID = rid
	default:
		return nil, apierror.New(apierror.CodeValidationError, "restaurant_id is required for admin-created orders")
	}

	order := &model.Order{
		RestaurantID: restaurantID,
		Tax:          req.Tax,
		Discount:     req.Discount,
		Status:       model.StatusPending,
		PaymentStatus: model.PaymentPending,
		PaymentMethod: req.PaymentMethod,
		Notes:        req.Notes,
		CreatedBy:    scope.UserID,
	}
	for _, item := range req.Items {
		mid, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return nil, apierror.New(apierror.CodeValidationError, "invalid menu_item_id")
		}
		order.Items = append(order.Items, model.OrderItem{
			MenuItemID: mid,
			Name:       item.Name,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
			Notes:      item.Notes,
		})
	}
	if req.CustomerID != nil {
		cid, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return nil, apierror.New(apierror.CodeValidationError, "invalid customer_id")
		}
		order.CustomerID = &cid
	}
	order.Recalculate(true)

	// Order number: atomic per-(restaurant, day) sequence — never
	// count-then-format, which races under concurrent creation.
	day := s.now()
	seq, err := s.repo.NextSeq(ctx, restaurantID, day.Format("060102"))
	if err != nil {
		return nil, err
	}
	order.OrderNumber = orderNumber(day, seq)

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	return orderToResponse(order), nil
}

// load fetches the order and enforces tenant scoping: a non-admin caller can
// never see another restaurant's order, not even its existence.
func (s *orderService) load(ctx context.Context, scope Scope, id uuid.UUID) (*model.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.New(apierror.CodeOrderNotFound, "order not found")
	}
	if !scope.SameTenant(order.RestaurantID) {
		return nil, apierror.New(apierror.CodeOrderNotFound, "order not found")
	}
	return order, nil
}

func (s *orderService) Get(ctx context.Context, scope Scope, id uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return orderToResponse(order), nil
}

func (s *orderService) List(ctx context.Context, scope Scope, filter dto.OrderFilter) ([]dto.OrderResponse, int64, error) {
	// Tenant scoping: the caller's restaurant is forced into the filter
	// unless the caller is admin (who may pass any tenant, or none).
	if !scope.Admin() {
		if scope.RestaurantID == nil {
			return nil, 0, apierror.New(apierror.CodeResourceAccessDenied, "caller has no restaurant scope")
		}
		filter.RestaurantID = scope.RestaurantID.String()
	}
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]dto.OrderResponse, len(orders))
	for i := range orders {
		resp[i] = *orderToResponse(&orders[i])
	}
	return resp, total, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, scope Scope, id uuid.UUID, newStatus model.OrderStatus) (*dto.OrderResponse, error) {
	order, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(newStatus) {
		return nil, apierror.New(apierror.CodeInvalidStatusTransition,
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, newStatus)).
			WithDetails(map[string]string{"from": string(order.Status), "to": string(newStatus)})
	}
	if err := s.repo.UpdateStatus(ctx, id, newStatus); err != nil {
		return nil, err
	}
	order.Status = newStatus

	// Best-effort notification when the order is ready or served — never
	// blocks or fails the request.
	if s.dispatcher != nil && (newStatus == model.StatusReady || newStatus == model.StatusServed) {
		s.notify(ctx, order)
	}
	return orderToResponse(order), nil
}

func (s *orderService) notify(ctx context.Context, order *model.Order) {
	creator, err := s.users.FindByID(ctx, order.CreatedBy)
	if err != nil {
		log.Warn().Err(err).Str("order", order.OrderNumber).Msg("skipping notification, creator lookup failed")
		return
	}
	payload := worker.NotifyJobPayload{
		ToEmail:     creator.Email,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
	}
	if err := s.dispatcher.EnqueueNotify(ctx, payload); err != nil {
		log.Warn().Err(err).Str("order", order.OrderNumber).Msg("failed to enqueue notification")
	}
}

func (s *orderService) Update(ctx context.Context, scope Scope, id uuid.UUID, req dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	order, err := s.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	// State rule comes first: a served or cancelled order rejects every
	// update regardless of what the patch contains.
	if !order.Mutable() {
		return nil, apierror.New(apierror.CodeOrderImmutableState,
			fmt.Sprintf("order in %s status cannot be modified", order.Status))
	}

	itemsChanged := false
	moneyChanged := false
	if req.Items != nil {
		items := make([]model.OrderItem, 0, len(req.Items))
		for _, item := range req.Items {
			mid, err := uuid.Parse(item.MenuItemID)
			if err != nil {
				return nil, apierror.New(apierror.CodeValidationError, "invalid menu_item_id")
			}
			items = append(items, model.OrderItem{
				OrderID:    order.ID,
				MenuItemID: mid,
				Name:       item.Name,
				UnitPrice:  item.UnitPrice,
				Quantity:   item.Quantity,
				Notes:      item.Notes,
			})
		}
		order.Items = items
		itemsChanged = true
	}
	if req.Tax != nil {
		order.Tax = *req.Tax
		moneyChanged = true
	}
	if req.Discount != nil {
		order.Discount = *req.Discount
		moneyChanged = true
	}
	if req.PaymentStatus != "" {
		order.PaymentStatus = model.PaymentStatus(req.PaymentStatus)
	}
	if req.PaymentMethod != nil {
		order.PaymentMethod = req.PaymentMethod
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}
	if itemsChanged || moneyChanged {
		order.Recalculate(itemsChanged)
	}
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return orderToResponse(order), nil
}

func (s *orderService) Delete(ctx context.Context, scope Scope, id uuid.UUID) error {
	order, err := s.load(ctx, scope, id)
	if err != nil {
		return err
	}
	if !order.Deletable() {
		return apierror.New(apierror.CodeOrderImmutableState,
			fmt.Sprintf("only pending or cancelled orders can be deleted, not %s", order.Status))
	}
	return s.repo.Delete(ctx, id)
}

func (s *orderService) Receipt(ctx context.Context, scope Scope, id uuid.UUID) (*model.Order, error) {
	return s.load(ctx, scope, id)
}

func orderToResponse(o *model.Order) *dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, dto.OrderItemResponse{
			MenuItemID: item.MenuItemID.String(),
			Name:       item.Name,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
			Notes:      item.Notes,
		})
	}
	resp := &dto.OrderResponse{
		ID:            o.ID.String(),
		RestaurantID:  o.RestaurantID.String(),
		OrderNumber:   o.OrderNumber,
		Items:         items,
		Subtotal:      o.Subtotal,
		Tax:           o.Tax,
		Discount:      o.Discount,
		Total:         o.Total,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: o.PaymentMethod,
		Notes:         o.Notes,
		CreatedBy:     o.CreatedBy.String(),
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
	}
	if o.CustomerID != nil {
		cid := o.CustomerID.String()
		resp.CustomerID = &cid
	}
	return resp
}
