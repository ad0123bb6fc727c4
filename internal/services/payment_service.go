package services

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"ecommerce/internal/auth"
	"ecommerce/internal/httperr"
	"ecommerce/internal/models"
	"ecommerce/internal/repositories"
	"ecommerce/pkg/money"
)

// CreatePaymentRequest is the body of POST /api/payments. UserID is kept
// for wire compatibility with older callers but the persisted owner is
// always the verified token identity.
type CreatePaymentRequest struct {
	OrderID       uint        `json:"order_id" validate:"required"`
	Amount        money.Cents `json:"amount"`
	UserID        uint        `json:"user_id"`
	PaymentMethod string      `json:"payment_method"`
}

// UpdatePaymentRequest is the body of PUT /api/payments/{id}.
type UpdatePaymentRequest struct {
	Status *string `json:"status"`
}

// PaymentService records payment attempts. Processing is a deterministic
// stub: no settlement network is contacted, every attempt succeeds and the
// transaction id is fabricated server-side.
type PaymentService struct {
	repo repositories.PaymentRepository
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(repo repositories.PaymentRepository) *PaymentService {
	return &PaymentService{repo: repo}
}

// newTransactionID fabricates an opaque transaction token, "txn_" followed
// by 16 hex characters.
func newTransactionID() string {
	u := uuid.New()
	return fmt.Sprintf("txn_%s", hex.EncodeToString(u[:8]))
}

// CreatePayment records a completed payment for the caller and enqueues a
// payment.completed event row in the same transaction.
func (s *PaymentService) CreatePayment(caller auth.Claims, req CreatePaymentRequest) (*models.Payment, error) {
	method := req.PaymentMethod
	if method == "" {
		method = "credit_card"
	}

	payment := &models.Payment{
		OrderID:       req.OrderID,
		UserID:        caller.UserID,
		Amount:        req.Amount,
		Status:        models.PaymentCompleted,
		PaymentMethod: method,
		TransactionID: newTransactionID(),
	}

	err := s.repo.Create(payment, func() ([]*models.OutboxMessage, error) {
		msg, err := models.NewEventMessage("payment.completed", map[string]interface{}{
			"payment_id":     payment.ID,
			"order_id":       payment.OrderID,
			"amount":         payment.Amount,
			"transaction_id": payment.TransactionID,
		})
		if err != nil {
			return nil, err
		}
		return []*models.OutboxMessage{msg}, nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// ListPayments returns all of the caller's payments.
func (s *PaymentService) ListPayments(caller auth.Claims) ([]models.Payment, error) {
	return s.repo.ListByUser(caller.UserID)
}

// GetPayment returns one of the caller's payments or NotFound.
func (s *PaymentService) GetPayment(caller auth.Claims, id uint) (*models.Payment, error) {
	return s.repo.GetByUser(id, caller.UserID)
}

// GetPaymentsByOrder returns the caller's payments against one order.
func (s *PaymentService) GetPaymentsByOrder(caller auth.Claims, orderID uint) ([]models.Payment, error) {
	return s.repo.ListByOrder(orderID, caller.UserID)
}

// UpdatePayment applies a status change through the payment state machine
// (completed may move to refunded, pending to completed or failed) and
// enqueues a payment.updated event row with the write.
func (s *PaymentService) UpdatePayment(caller auth.Claims, id uint, req UpdatePaymentRequest) (*models.Payment, error) {
	payment, err := s.repo.GetByUser(id, caller.UserID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		next := models.PaymentStatus(*req.Status)
		if !next.Valid() {
			return nil, httperr.Validationf("unknown payment status %q", *req.Status)
		}
		if !payment.Status.CanTransitionTo(next) {
			return nil, httperr.Validationf("cannot transition payment from %s to %s", payment.Status, next)
		}
		payment.Status = next
	}

	err = s.repo.Update(payment, func() ([]*models.OutboxMessage, error) {
		msg, err := models.NewEventMessage("payment.updated", map[string]interface{}{
			"payment_id": payment.ID,
			"order_id":   payment.OrderID,
			"status":     payment.Status,
		})
		if err != nil {
			return nil, err
		}
		return []*models.OutboxMessage{msg}, nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}
