// Package clients holds outbound HTTP clients for sibling services.
package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// paymentCallTimeout bounds the payment-initiation call so a slow payment
// service can never exhaust dispatcher capacity.
const paymentCallTimeout = 5 * time.Second

// PaymentClient posts payment-initiation requests to the payment service.
type PaymentClient struct {
	baseURL string
	http    *http.Client
}

// NewPaymentClient creates a client for the payment service at baseURL.
func NewPaymentClient(baseURL string) *PaymentClient {
	return &PaymentClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: paymentCallTimeout},
	}
}

// CreatePayment POSTs the pre-serialized request body to /api/payments,
// authenticated by the given bearer token. Any non-2xx status is an error.
func (c *PaymentClient) CreatePayment(ctx context.Context, token string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/payments", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("payment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("payment service returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}
