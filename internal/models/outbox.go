package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// OutboxKind distinguishes what a pending outbox row carries.
type OutboxKind string

const (
	// OutboxEvent rows are published to the topic exchange.
	OutboxEvent OutboxKind = "event"
	// OutboxPaymentRequest rows are POSTed to the payment service.
	OutboxPaymentRequest OutboxKind = "payment_request"
)

// OutboxStatus is the delivery state of an outbox row.
type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "pending"
	OutboxDelivered OutboxStatus = "delivered"
	// OutboxFailed marks rows abandoned after the attempt limit.
	OutboxFailed OutboxStatus = "failed"
)

// OutboxMessage is a durable side effect recorded in the same transaction
// as the state change it describes and dispatched asynchronously. This is
// what turns event publication and payment initiation from best-effort
// into at-least-once.
type OutboxMessage struct {
	ID            uint         `gorm:"primaryKey"`
	Kind          OutboxKind   `gorm:"type:varchar(50);not null"`
	RoutingKey    string       `gorm:"type:varchar(255)"`
	Payload       []byte       `gorm:"not null"`
	Status        OutboxStatus `gorm:"type:varchar(50);default:pending;index:idx_outbox_due"`
	Attempts      int          `gorm:"default:0"`
	NextAttemptAt time.Time    `gorm:"index:idx_outbox_due"`
	CreatedAt     time.Time
	DeliveredAt   *time.Time
}

// NewEventMessage builds a pending outbox row for a topic-exchange event.
func NewEventMessage(routingKey string, payload interface{}) (*OutboxMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", routingKey, err)
	}
	return &OutboxMessage{
		Kind:          OutboxEvent,
		RoutingKey:    routingKey,
		Payload:       body,
		Status:        OutboxPending,
		NextAttemptAt: time.Now(),
	}, nil
}

// NewPaymentRequestMessage builds a pending outbox row carrying the body of
// the payment-initiation call.
func NewPaymentRequestMessage(payload interface{}) (*OutboxMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request payload: %w", err)
	}
	return &OutboxMessage{
		Kind:          OutboxPaymentRequest,
		Payload:       body,
		Status:        OutboxPending,
		NextAttemptAt: time.Now(),
	}, nil
}
