package repositories

import (
	"ecommerce/internal/models"
)

// PaymentRepository defines the interface for payment data access. Reads
// are scoped to the owning user; payments are never deleted.
type PaymentRepository interface {
	Create(payment *models.Payment, buildOutbox OutboxFunc) error
	ListByUser(userID uint) ([]models.Payment, error)
	GetByUser(id, userID uint) (*models.Payment, error)
	ListByOrder(orderID, userID uint) ([]models.Payment, error)
	Update(payment *models.Payment, buildOutbox OutboxFunc) error
}
