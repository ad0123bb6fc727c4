package services

import (
	"ecommerce/internal/auth"
	"ecommerce/internal/httperr"
	"ecommerce/internal/models"
	"ecommerce/internal/repositories"
	"ecommerce/pkg/money"
)

// OrderItemInput is one requested line item. Quantity and price are taken
// as supplied; there is no catalog to validate them against here.
type OrderItemInput struct {
	ProductID uint        `json:"product_id" validate:"required"`
	Quantity  int         `json:"quantity"`
	Price     money.Cents `json:"price"`
}

// CreateOrderRequest is the body of POST /api/orders. An empty item list
// is accepted and yields a zero total.
type CreateOrderRequest struct {
	Items []OrderItemInput `json:"items" validate:"dive"`
	Notes *string          `json:"notes"`
}

// UpdateOrderRequest is the body of PUT /api/orders/{id}; only non-null
// fields are applied.
type UpdateOrderRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

// OrderService orchestrates order creation and mutation. Every state
// change records its side effects (events, the payment-initiation call) as
// outbox rows in the same transaction, so the HTTP response never waits on
// the broker or the payment service.
type OrderService struct {
	repo repositories.OrderRepository
}

// NewOrderService creates a new OrderService.
func NewOrderService(repo repositories.OrderRepository) *OrderService {
	return &OrderService{repo: repo}
}

// CreateOrder persists a new order for the caller. The total is the sum of
// price x quantity over the items, computed in minor units.
func (s *OrderService) CreateOrder(caller auth.Claims, req CreateOrderRequest) (*models.Order, error) {
	var total money.Cents
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, in := range req.Items {
		quantity := in.Quantity
		if quantity == 0 {
			quantity = 1
		}
		items = append(items, models.OrderItem{
			ProductID: in.ProductID,
			Quantity:  quantity,
			Price:     in.Price,
		})
		total += in.Price.Mul(quantity)
	}

	order := &models.Order{
		UserID: caller.UserID,
		Status: models.OrderPending,
		Total:  total,
		Notes:  req.Notes,
		Items:  items,
	}

	err := s.repo.Create(order, func() ([]*models.OutboxMessage, error) {
		created, err := models.NewEventMessage("order.created", map[string]interface{}{
			"order_id": order.ID,
			"user_id":  order.UserID,
			"total":    order.Total,
		})
		if err != nil {
			return nil, err
		}
		payment, err := models.NewPaymentRequestMessage(map[string]interface{}{
			"order_id": order.ID,
			"amount":   order.Total,
			"user_id":  order.UserID,
		})
		if err != nil {
			return nil, err
		}
		return []*models.OutboxMessage{created, payment}, nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns the caller's orders, newest first.
func (s *OrderService) ListOrders(caller auth.Claims) ([]models.Order, error) {
	return s.repo.ListByUser(caller.UserID)
}

// GetOrder returns one of the caller's orders or NotFound.
func (s *OrderService) GetOrder(caller auth.Claims, id uint) (*models.Order, error) {
	return s.repo.GetByUser(id, caller.UserID)
}

// UpdateOrder applies a partial update. Status changes must follow the
// order state machine; illegal transitions are rejected as validation
// errors. On success an order.updated event row is recorded with the write.
func (s *OrderService) UpdateOrder(caller auth.Claims, id uint, req UpdateOrderRequest) (*models.Order, error) {
	order, err := s.repo.GetByUser(id, caller.UserID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		next := models.OrderStatus(*req.Status)
		if !next.Valid() {
			return nil, httperr.Validationf("unknown order status %q", *req.Status)
		}
		if !order.Status.CanTransitionTo(next) {
			return nil, httperr.Validationf("cannot transition order from %s to %s", order.Status, next)
		}
		order.Status = next
	}
	if req.Notes != nil {
		order.Notes = req.Notes
	}

	err = s.repo.Update(order, func() ([]*models.OutboxMessage, error) {
		msg, err := models.NewEventMessage("order.updated", map[string]interface{}{
			"order_id": order.ID,
			"status":   order.Status,
		})
		if err != nil {
			return nil, err
		}
		return []*models.OutboxMessage{msg}, nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CancelOrder moves the order to cancelled via the same state machine, so
// a delivered order can no longer be cancelled.
func (s *OrderService) CancelOrder(caller auth.Claims, id uint) error {
	order, err := s.repo.GetByUser(id, caller.UserID)
	if err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(models.OrderCancelled) {
		return httperr.Validationf("cannot cancel order in status %s", order.Status)
	}
	order.Status = models.OrderCancelled

	return s.repo.Update(order, func() ([]*models.OutboxMessage, error) {
		msg, err := models.NewEventMessage("order.cancelled", map[string]interface{}{
			"order_id": order.ID,
			"user_id":  order.UserID,
		})
		if err != nil {
			return nil, err
		}
		return []*models.OutboxMessage{msg}, nil
	})
}
