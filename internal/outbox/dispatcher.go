// Package outbox dispatches durable side-effect rows recorded by the
// workflows: topic-exchange events and the payment-initiation call. Rows
// are written in the same transaction as the state change they describe
// and retried here with exponential backoff, giving at-least-once delivery
// without coupling request handling to broker or downstream availability.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ecommerce/internal/auth"
	"ecommerce/internal/models"
	"ecommerce/internal/repositories"
)

const (
	defaultInterval = 2 * time.Second
	defaultBatch    = 50
	backoffBase     = 2 * time.Second
	backoffCap      = 5 * time.Minute
	serviceTokenTTL = 5 * time.Minute
)

// Publisher sends an event body to the topic exchange.
type Publisher interface {
	Publish(routingKey string, body []byte) error
}

// PaymentSender posts a payment-initiation body to the payment service.
type PaymentSender interface {
	CreatePayment(ctx context.Context, token string, body []byte) error
}

// Signer mints service tokens for the inter-service call.
type Signer interface {
	Sign(claims auth.Claims, ttl time.Duration) (string, error)
}

// Dispatcher polls the outbox table and delivers due rows. One Dispatcher
// runs per process.
type Dispatcher struct {
	repo        repositories.OutboxRepository
	publisher   Publisher
	payments    PaymentSender // nil in processes that never enqueue payment requests
	signer      Signer
	interval    time.Duration
	maxAttempts int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPaymentSender wires the payment client and the token signer used for
// payment_request rows.
func WithPaymentSender(sender PaymentSender, signer Signer) Option {
	return func(d *Dispatcher) {
		d.payments = sender
		d.signer = signer
	}
}

// WithInterval overrides the poll interval.
func WithInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// WithMaxAttempts overrides the attempt limit after which a row is
// abandoned as failed.
func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// NewDispatcher creates a Dispatcher delivering events via publisher.
func NewDispatcher(repo repositories.OutboxRepository, publisher Publisher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		repo:        repo,
		publisher:   publisher,
		interval:    defaultInterval,
		maxAttempts: 10,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run polls until ctx is cancelled. Intended to be started as a single
// background goroutine from main.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Tick(ctx); err != nil {
				log.Printf("outbox: tick failed: %v", err)
			}
		}
	}
}

// Tick delivers one batch of due rows. Exported so tests and mains can
// drive the dispatcher without the timer.
func (d *Dispatcher) Tick(ctx context.Context) error {
	now := time.Now()
	messages, err := d.repo.Due(now, defaultBatch)
	if err != nil {
		return err
	}

	for i := range messages {
		msg := &messages[i]
		if err := d.dispatch(ctx, msg); err != nil {
			d.recordFailure(msg, err)
			continue
		}
		if err := d.repo.MarkDelivered(msg.ID, time.Now()); err != nil {
			log.Printf("outbox: %v", err)
		}
	}
	return nil
}

func (d *Dispatcher) dispatch(ctx context.Context, msg *models.OutboxMessage) error {
	switch msg.Kind {
	case models.OutboxEvent:
		return d.publisher.Publish(msg.RoutingKey, msg.Payload)
	case models.OutboxPaymentRequest:
		return d.sendPaymentRequest(ctx, msg)
	default:
		return fmt.Errorf("unknown outbox kind %q", msg.Kind)
	}
}

// sendPaymentRequest posts the stored body to the payment service with a
// freshly minted service token carrying the buyer's identity. Tokens are
// minted per attempt so a row retried hours later never carries an expired
// credential.
func (d *Dispatcher) sendPaymentRequest(ctx context.Context, msg *models.OutboxMessage) error {
	if d.payments == nil || d.signer == nil {
		return fmt.Errorf("no payment sender configured for row %d", msg.ID)
	}

	var body struct {
		UserID uint `json:"user_id"`
	}
	if err := json.Unmarshal(msg.Payload, &body); err != nil {
		return fmt.Errorf("malformed payment request payload: %w", err)
	}

	token, err := d.signer.Sign(auth.Claims{UserID: body.UserID, Role: "service"}, serviceTokenTTL)
	if err != nil {
		return err
	}
	return d.payments.CreatePayment(ctx, token, msg.Payload)
}

func (d *Dispatcher) recordFailure(msg *models.OutboxMessage, cause error) {
	attempts := msg.Attempts + 1
	if attempts >= d.maxAttempts {
		log.Printf("outbox: abandoning row %d (%s) after %d attempts: %v",
			msg.ID, msg.Kind, attempts, cause)
		if err := d.repo.MarkFailed(msg.ID, attempts); err != nil {
			log.Printf("outbox: %v", err)
		}
		return
	}

	next := time.Now().Add(Backoff(attempts))
	log.Printf("outbox: row %d (%s) attempt %d failed, retrying at %s: %v",
		msg.ID, msg.Kind, attempts, next.Format(time.RFC3339), cause)
	if err := d.repo.Reschedule(msg.ID, attempts, next); err != nil {
		log.Printf("outbox: %v", err)
	}
}

// Backoff returns the delay before the given attempt number is retried:
// exponential from backoffBase, capped at backoffCap.
func Backoff(attempts int) time.Duration {
	delay := backoffBase
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= backoffCap {
			return backoffCap
		}
	}
	if delay > backoffCap {
		return backoffCap
	}
	return delay
}
