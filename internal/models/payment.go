package models

import (
	"time"

	"ecommerce/pkg/money"
)

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentCompleted, PaymentFailed},
	PaymentCompleted: {PaymentRefunded},
	PaymentFailed:    {},
	PaymentRefunded:  {},
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

// CanTransitionTo reports whether the status may move to next. Re-setting
// the current status is an allowed no-op.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Payment is one payment attempt against an order. Correlation with the
// order is by order_id value only; there is no cross-service foreign key.
type Payment struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	OrderID       uint          `json:"order_id" gorm:"index;not null"`
	UserID        uint          `json:"user_id" gorm:"not null"`
	Amount        money.Cents   `json:"amount" gorm:"not null"`
	Status        PaymentStatus `json:"status" gorm:"type:varchar(50);default:pending"`
	PaymentMethod string        `json:"payment_method" gorm:"type:varchar(50);default:credit_card"`
	TransactionID string        `json:"transaction_id" gorm:"type:varchar(255)"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
