// Package payment talks to the external payment gateway.  The
// application never handles card data itself; the client only
// confirms, by reference, that a payment the frontend initiated
// has actually settled.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotSettled is returned when the gateway knows the reference
// but the payment has not (or not yet) settled.
var ErrNotSettled = errors.New("payment not settled")

// Gateway verifies that a payment reference has settled.
type Gateway interface {
	Confirm(ctx context.Context, reference string, amountCents uint64) error
}

// HTTPGateway confirms payments against a REST gateway endpoint.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway returns a gateway client for the given base URL.
func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type confirmResponse struct {
	Status      string `json:"status"`       // "settled", "pending" or "failed"
	AmountCents uint64 `json:"amount_cents"` // settled amount
}

// Confirm fetches the payment by reference and checks that it
// settled for at least the expected amount.
func (g *HTTPGateway) Confirm(ctx context.Context, reference string, amountCents uint64) error {
	url := fmt.Sprintf("%s/v1/payments/%s", g.baseURL, reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("payment gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotSettled
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("payment gateway returned %d", resp.StatusCode)
	}

	var body confirmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}
	if body.Status != "settled" || body.AmountCents < amountCents {
		return ErrNotSettled
	}
	return nil
}

// NoopGateway accepts every confirmation.  Used when no gateway
// URL is configured, e.g. in development.
type NoopGateway struct{}

// Confirm always reports the payment as settled.
func (NoopGateway) Confirm(context.Context, string, uint64) error { return nil }
