package repositories

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"ecommerce/internal/models"
)

// OutboxRepository is the dispatcher's view of the outbox table.
type OutboxRepository interface {
	// Due returns up to limit pending rows whose next attempt is not
	// after now, oldest first.
	Due(now time.Time, limit int) ([]models.OutboxMessage, error)
	MarkDelivered(id uint, at time.Time) error
	// Reschedule records a failed attempt and the next retry time.
	Reschedule(id uint, attempts int, next time.Time) error
	// MarkFailed abandons a row that exhausted its attempts.
	MarkFailed(id uint, attempts int) error
}

// GORMOutboxRepository is a GORM implementation of OutboxRepository.
type GORMOutboxRepository struct {
	db *gorm.DB
}

// NewGORMOutboxRepository creates a new instance of GORMOutboxRepository.
func NewGORMOutboxRepository(db *gorm.DB) *GORMOutboxRepository {
	return &GORMOutboxRepository{db: db}
}

// Due returns pending rows ready for dispatch.
func (r *GORMOutboxRepository) Due(now time.Time, limit int) ([]models.OutboxMessage, error) {
	var messages []models.OutboxMessage
	err := r.db.
		Where("status = ? AND next_attempt_at <= ?", models.OutboxPending, now).
		Order("id").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load due outbox rows: %w", err)
	}
	return messages, nil
}

// MarkDelivered records a successful dispatch.
func (r *GORMOutboxRepository) MarkDelivered(id uint, at time.Time) error {
	err := r.db.Model(&models.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.OutboxDelivered,
			"delivered_at": at,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark outbox row %d delivered: %w", id, err)
	}
	return nil
}

// Reschedule records a failed attempt and when to retry.
func (r *GORMOutboxRepository) Reschedule(id uint, attempts int, next time.Time) error {
	err := r.db.Model(&models.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":        attempts,
			"next_attempt_at": next,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to reschedule outbox row %d: %w", id, err)
	}
	return nil
}

// MarkFailed abandons a row after the attempt limit.
func (r *GORMOutboxRepository) MarkFailed(id uint, attempts int) error {
	err := r.db.Model(&models.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   models.OutboxFailed,
			"attempts": attempts,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark outbox row %d failed: %w", id, err)
	}
	return nil
}
