package repositories

import (
	"ecommerce/internal/models"
)

// OutboxFunc builds the outbox rows to persist in the same transaction as
// the row they describe. It runs after the primary row has its ID.
type OutboxFunc func() ([]*models.OutboxMessage, error)

// OrderRepository defines the interface for order data access. All reads
// are scoped to the owning user; an order owned by someone else is
// indistinguishable from a missing one.
type OrderRepository interface {
	// Create persists the order with its items and the outbox rows built
	// by buildOutbox as a single transaction.
	Create(order *models.Order, buildOutbox OutboxFunc) error
	ListByUser(userID uint) ([]models.Order, error)
	GetByUser(id, userID uint) (*models.Order, error)
	// Update saves the order and the outbox rows built by buildOutbox as
	// a single transaction.
	Update(order *models.Order, buildOutbox OutboxFunc) error
}
