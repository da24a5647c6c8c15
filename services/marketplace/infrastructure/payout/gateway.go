// Package payout is the HTTP client for the external payout gateway that
// executes withdrawals of credited balances.
package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrRejected indicates the gateway refused the payout. Retrying the same
// request will not succeed.
var ErrRejected = errors.New("payout rejected")

// Request is one payout. ID doubles as the idempotency key.
type Request struct {
	ID      string          `json:"id"`
	Account string          `json:"account"`
	Amount  decimal.Decimal `json:"amount"`
}

type response struct {
	Reference string `json:"reference"`
	Error     string `json:"error,omitempty"`
}

// Client sends payouts to the gateway at baseURL.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client with an OTel-instrumented transport.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Send submits req and returns the gateway's payout reference.
// A 4xx answer wraps ErrRejected; 5xx answers and transport failures are
// returned as plain errors and may be retried with the same request.
func (c *Client) Send(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("payout: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payouts", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("payout: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.ID)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("payout: send %s: %w", req.ID, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("payout: read response: %w", err)
	}

	var out response
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}

	switch {
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("payout: gateway unavailable: status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		reason := out.Error
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("%w: %s", ErrRejected, reason)
	}

	if out.Reference == "" {
		return "", fmt.Errorf("payout: gateway returned no reference for %s", req.ID)
	}
	return out.Reference, nil
}
