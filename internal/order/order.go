// Package order is the storefront's client for the order lifecycle API.
// It emits the initial order-creation request and reads status back for
// display; all further lifecycle transitions belong to the backend.
package order

import "errors"

var (
	// ErrSubmissionRejected indicates the backend refused the order; no
	// partial order was created and the cart must be left intact.
	ErrSubmissionRejected = errors.New("order submission rejected")

	// ErrSubmissionTransport indicates the request never produced a
	// definitive answer (connection failure, timeout). Safe to retry
	// with the same idempotency key.
	ErrSubmissionTransport = errors.New("order submission transport error")

	// ErrMalformedResponse indicates a response missing required fields.
	ErrMalformedResponse = errors.New("malformed order response")

	// ErrOrderNotFound indicates the order id is unknown to the backend.
	ErrOrderNotFound = errors.New("order not found")
)

// Item is one order line, copied from a cart snapshot at submission time.
type Item struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// CreateRequest is the POST /api/orders payload. It is built fresh from a
// cart snapshot for every submission attempt and never mutated after
// construction.
type CreateRequest struct {
	UserID              string  `json:"userId"`
	CustomerName        string  `json:"customerName"`
	Email               string  `json:"email"`
	Phone               string  `json:"phone"`
	DeliveryAddress     string  `json:"deliveryAddress"`
	Items               []Item  `json:"items"`
	TotalAmount         float64 `json:"totalAmount"`
	SpecialInstructions string  `json:"specialInstructions,omitempty"`
}

// Placed is the acknowledgment for a created order.
type Placed struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// View is the read-back shape used to display an order's current status.
type View struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	TotalAmount float64 `json:"totalAmount"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}
