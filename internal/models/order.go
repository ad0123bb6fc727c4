package models

import (
	"time"

	"ecommerce/pkg/money"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// orderTransitions is the allowed state machine for orders. Terminal states
// (delivered, cancelled) have no outgoing edges.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderPaid, OrderCancelled},
	OrderPaid:      {OrderShipped, OrderCancelled},
	OrderShipped:   {OrderDelivered},
	OrderDelivered: {},
	OrderCancelled: {},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether the status may move to next. Re-setting
// the current status is an allowed no-op.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order represents a customer order.
type Order struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	UserID    uint        `json:"user_id" gorm:"index;not null"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(50);default:pending"`
	Total     money.Cents `json:"total"`
	Notes     *string     `json:"notes"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Items     []OrderItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
}

// OrderItem is a single line of an order. Items are immutable after the
// order is created; the stored price is whatever the caller supplied, not
// a catalog lookup.
type OrderItem struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	OrderID   uint        `json:"-" gorm:"index;not null"`
	ProductID uint        `json:"product_id" gorm:"not null"`
	Quantity  int         `json:"quantity" gorm:"default:1"`
	Price     money.Cents `json:"price" gorm:"not null"`
}
