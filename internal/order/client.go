package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the order lifecycle API over REST.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client rooted at baseURL (e.g. "http://localhost:8080").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Create submits req as POST /api/orders. The idempotency key travels in
// the Idempotency-Key header so a retried request cannot create a second
// order. A non-2xx status maps to ErrSubmissionRejected, a transport
// failure to ErrSubmissionTransport.
func (c *Client) Create(ctx context.Context, req CreateRequest, idempotencyKey string) (Placed, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Placed{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return Placed{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Placed{}, fmt.Errorf("%w: %v", ErrSubmissionTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Placed{}, fmt.Errorf("%w: read body: %v", ErrSubmissionTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Placed{}, fmt.Errorf("%w: status %d: %s", ErrSubmissionRejected, resp.StatusCode, truncate(data))
	}

	var placed Placed
	if err := json.Unmarshal(data, &placed); err != nil {
		return Placed{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if placed.ID == "" {
		return Placed{}, fmt.Errorf("%w: missing order id", ErrMalformedResponse)
	}
	return placed, nil
}

// Get reads back an order's current status.
func (c *Client) Get(ctx context.Context, orderID string) (View, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/orders/"+orderID, nil)
	if err != nil {
		return View{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return View{}, fmt.Errorf("%w: %v", ErrSubmissionTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return View{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if resp.StatusCode != http.StatusOK {
		return View{}, fmt.Errorf("%w: status %d", ErrSubmissionRejected, resp.StatusCode)
	}

	var v View
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return View{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if v.ID == "" || v.Status == "" {
		return View{}, fmt.Errorf("%w: missing id or status", ErrMalformedResponse)
	}
	return v, nil
}

func truncate(b []byte) string {
	const max = 256
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
