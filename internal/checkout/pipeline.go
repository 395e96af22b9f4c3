// Package checkout drives a cart through order submission: validate the
// form, snapshot the cart, submit exactly one order-creation request, and
// clear the cart exactly once on success.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cakedaddy/storefront/internal/cart"
	"github.com/cakedaddy/storefront/internal/order"
	"github.com/cakedaddy/storefront/internal/pricing"
)

// Pipeline states.
const (
	StateIdle       = "IDLE"
	StateValidating = "VALIDATING"
	StateSubmitting = "SUBMITTING"
	StateSucceeded  = "SUCCEEDED"
	StateFailed     = "FAILED"
)

var (
	// ErrEmptyCart blocks checkout entry before any validation or
	// network traffic.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrSubmissionInFlight rejects a second submit while one is
	// unresolved; interleaved submissions could double-place an order.
	ErrSubmissionInFlight = errors.New("submission already in flight")

	// ErrAttemptAbandoned reports that a submission resolved after the
	// attempt was cancelled; its result was discarded and the cart left
	// alone.
	ErrAttemptAbandoned = errors.New("submission attempt abandoned")
)

// OrderPlacer is the slice of the order API the pipeline needs.
type OrderPlacer interface {
	Create(ctx context.Context, req order.CreateRequest, idempotencyKey string) (order.Placed, error)
}

// Pipeline is the per-session submission state machine. It is the only
// component permitted to clear the cart, and only after a success
// acknowledgment.
type Pipeline struct {
	cart     *cart.Store
	placer   OrderPlacer
	shipping decimal.Decimal
	taxRate  decimal.Decimal
	validate *validatorv10.Validate

	mu      sync.Mutex
	state   string
	attempt uint64 // generation counter; a bumped value invalidates in-flight results
	orderID string
}

// NewPipeline wires a pipeline to a cart and an order placer.
func NewPipeline(c *cart.Store, placer OrderPlacer, shipping, taxRate decimal.Decimal) *Pipeline {
	return &Pipeline{
		cart:     c,
		placer:   placer,
		shipping: shipping,
		taxRate:  taxRate,
		validate: newValidator(),
		state:    StateIdle,
	}
}

// State returns the current pipeline state.
func (p *Pipeline) State() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// OrderID returns the identifier of the last successfully placed order.
func (p *Pipeline) OrderID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.orderID
}

// Submit runs one attempt: Idle -> Validating -> Submitting, then
// Succeeded or Failed. On success the cart is cleared exactly once and
// the server-assigned order id returned. On any failure the cart is left
// untouched so the user can retry; a retry rebuilds the request from a
// fresh snapshot.
func (p *Pipeline) Submit(ctx context.Context, form Form) (string, error) {
	p.mu.Lock()

	if p.state == StateSubmitting {
		p.mu.Unlock()
		return "", ErrSubmissionInFlight
	}
	if p.cart.IsEmpty() {
		p.state = StateIdle
		p.mu.Unlock()
		return "", ErrEmptyCart
	}

	p.state = StateValidating
	if err := p.validate.Struct(form); err != nil {
		p.state = StateIdle
		p.mu.Unlock()
		return "", validationErrorFrom(err)
	}

	p.attempt++
	myAttempt := p.attempt
	p.state = StateSubmitting

	req := buildRequest(p.cart.Snapshot(), form, p.shipping, p.taxRate)
	p.mu.Unlock()

	// One idempotency key per attempt. The single automatic retry reuses
	// it, so a request that was delivered but not acknowledged cannot
	// place a second order. Unbounded automatic retry stays forbidden.
	key := uuid.NewString()
	placed, err := p.placer.Create(ctx, req, key)
	if err != nil && errors.Is(err, order.ErrSubmissionTransport) && ctx.Err() == nil {
		log.Printf("[checkout] transport error, retrying once: %v", err)
		placed, err = p.placer.Create(ctx, req, key)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.attempt != myAttempt || p.state != StateSubmitting {
		// The attempt was cancelled while in flight. Whatever came back,
		// it must not touch a cart that may have been rebuilt since.
		return "", ErrAttemptAbandoned
	}

	if err != nil {
		p.state = StateFailed
		return "", err
	}

	p.state = StateSucceeded
	p.orderID = placed.ID
	if cerr := p.cart.Clear(); cerr != nil {
		// order is placed either way; the stale persisted cart only
		// affects the next session start
		log.Printf("[checkout] cart clear after success: %v", cerr)
	}
	return placed.ID, nil
}

// Retry re-enters submission after a failure. The request is rebuilt from
// the current cart, which may have changed since the failed attempt.
func (p *Pipeline) Retry(ctx context.Context, form Form) (string, error) {
	p.mu.Lock()
	if p.state != StateFailed {
		state := p.state
		p.mu.Unlock()
		return "", fmt.Errorf("retry only valid from %s, pipeline is %s", StateFailed, state)
	}
	p.mu.Unlock()
	return p.Submit(ctx, form)
}

// Cancel abandons the current attempt and returns to Idle. An in-flight
// submission is not aborted server-side; its eventual resolution is
// discarded locally.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateSubmitting {
		p.attempt++
	}
	p.state = StateIdle
}

// buildRequest converts a snapshot plus validated form fields into an
// order-creation request. Deterministic for a given snapshot; never
// reused across attempts.
func buildRequest(snapshot []cart.Line, form Form, shipping, taxRate decimal.Decimal) order.CreateRequest {
	items := make([]order.Item, 0, len(snapshot))
	for _, ln := range snapshot {
		items = append(items, order.Item{
			ProductID:   ln.ProductID,
			ProductName: ln.Name,
			Quantity:    ln.Quantity,
			Price:       ln.UnitPrice.InexactFloat64(),
		})
	}

	userID := form.UserID
	if userID == "" {
		userID = fmt.Sprintf("user_%d", time.Now().UnixMilli())
	}

	summary := pricing.Compute(snapshot, shipping, taxRate)

	return order.CreateRequest{
		UserID:              userID,
		CustomerName:        form.FullName,
		Email:               form.Email,
		Phone:               form.Phone,
		DeliveryAddress:     form.DeliveryAddress,
		Items:               items,
		TotalAmount:         summary.Total.InexactFloat64(),
		SpecialInstructions: form.SpecialInstructions,
	}
}
