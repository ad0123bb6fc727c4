package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ecommerce/internal/httperr"
	"ecommerce/internal/models"
)

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
type GORMPaymentRepository struct {
	db *gorm.DB
}

// NewGORMPaymentRepository creates a new instance of GORMPaymentRepository.
func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{db: db}
}

// Create persists the payment and the outbox rows atomically.
func (r *GORMPaymentRepository) Create(payment *models.Payment, buildOutbox OutboxFunc) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		return createOutbox(tx, buildOutbox)
	})
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// ListByUser returns all of the user's payments.
func (r *GORMPaymentRepository) ListByUser(userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.Where("user_id = ?", userID).Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments for user %d: %w", userID, err)
	}
	return payments, nil
}

// GetByUser returns the payment only when it exists and belongs to userID.
func (r *GORMPaymentRepository) GetByUser(id, userID uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.First(&payment, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFoundf("payment not found")
		}
		return nil, fmt.Errorf("failed to get payment %d: %w", id, err)
	}
	return &payment, nil
}

// ListByOrder returns the user's payments recorded against one order.
func (r *GORMPaymentRepository) ListByOrder(orderID, userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("order_id = ? AND user_id = ?", orderID, userID).Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for order %d: %w", orderID, err)
	}
	return payments, nil
}

// Update saves the payment and the outbox rows atomically.
func (r *GORMPaymentRepository) Update(payment *models.Payment, buildOutbox OutboxFunc) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(payment).Error; err != nil {
			return err
		}
		return createOutbox(tx, buildOutbox)
	})
	if err != nil {
		return fmt.Errorf("failed to update payment %d: %w", payment.ID, err)
	}
	return nil
}
