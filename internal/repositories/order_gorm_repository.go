package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ecommerce/internal/httperr"
	"ecommerce/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create persists the order, its items and the outbox rows atomically.
// Either everything commits or the whole write rolls back.
func (r *GORMOrderRepository) Create(order *models.Order, buildOutbox OutboxFunc) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return createOutbox(tx, buildOutbox)
	})
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// ListByUser returns the user's orders, newest first, with items preloaded
// in creation order.
func (r *GORMOrderRepository) ListByUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %d: %w", userID, err)
	}
	return orders, nil
}

// GetByUser returns the order only when it exists and belongs to userID.
func (r *GORMOrderRepository) GetByUser(id, userID uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").
		First(&order, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFoundf("order not found")
		}
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	return &order, nil
}

// Update saves the order and the outbox rows atomically.
func (r *GORMOrderRepository) Update(order *models.Order, buildOutbox OutboxFunc) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(order).Error; err != nil {
			return err
		}
		return createOutbox(tx, buildOutbox)
	})
	if err != nil {
		return fmt.Errorf("failed to update order %d: %w", order.ID, err)
	}
	return nil
}

// createOutbox inserts the rows built by buildOutbox inside tx.
func createOutbox(tx *gorm.DB, buildOutbox OutboxFunc) error {
	if buildOutbox == nil {
		return nil
	}
	messages, err := buildOutbox()
	if err != nil {
		return err
	}
	for _, msg := range messages {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
	}
	return nil
}
