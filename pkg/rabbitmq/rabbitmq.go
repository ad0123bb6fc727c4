// Package rabbitmq wraps a shared AMQP channel publishing to the durable
// topic exchange used by all services.
package rabbitmq

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// Exchange is the name of the shared topic exchange.
const Exchange = "ecommerce_events"

// ErrNotConnected is returned by Publish when the broker was unreachable at
// startup. The outbox dispatcher treats it as retryable.
var ErrNotConnected = errors.New("rabbitmq channel is not available")

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// Client holds the RabbitMQ connection and channel. A single Client is
// shared by all requests in a process; the mutex serializes channel use.
type Client struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Connect dials the broker and declares the topic exchange. Connection
// failure is soft: the returned Client publishes nothing and every Publish
// returns ErrNotConnected, so the process still starts with the broker
// down.
func Connect(cfg Config) *Client {
	c := &Client{}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		log.Printf("Warning: RabbitMQ connection failed, publishing disabled: %v", err)
		return c
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		log.Printf("Warning: failed to open RabbitMQ channel, publishing disabled: %v", err)
		return c
	}

	if err := ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		log.Printf("Warning: failed to declare exchange %s, publishing disabled: %v", Exchange, err)
		return c
	}

	log.Printf("Connected to RabbitMQ, exchange %s declared", Exchange)
	c.conn = conn
	c.channel = ch
	return c
}

// Connected reports whether the client has a usable channel.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel != nil
}

// Publish sends a JSON body to the topic exchange with persistent delivery,
// routed by the dot-separated routing key (e.g. "order.created").
func (c *Client) Publish(routingKey string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil {
		return ErrNotConnected
	}

	err := c.channel.Publish(
		Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

// Close tears down the channel and connection at shutdown.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
		c.channel = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
		c.conn = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing RabbitMQ client: %v", errs)
	}
	return nil
}
