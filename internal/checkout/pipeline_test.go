package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cakedaddy/storefront/internal/cart"
	"github.com/cakedaddy/storefront/internal/order"
	"github.com/cakedaddy/storefront/internal/pricing"
)

type nopPersister struct{}

func (nopPersister) Save([]cart.Line) error   { return nil }
func (nopPersister) Load() ([]cart.Line, error) { return nil, nil }

// fakePlacer scripts Create outcomes and records every call.
type fakePlacer struct {
	mu      sync.Mutex
	results []func() (order.Placed, error)
	calls   []order.CreateRequest
	keys    []string
	block   chan struct{} // when set, Create waits until closed
}

func (f *fakePlacer) Create(ctx context.Context, req order.CreateRequest, key string) (order.Placed, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	f.keys = append(f.keys, key)
	if len(f.results) == 0 {
		return order.Placed{ID: "ord_123", Status: "PENDING"}, nil
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next()
}

func (f *fakePlacer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func validForm() Form {
	return Form{
		FullName:        "Jamie Baker",
		Email:           "jamie@example.com",
		Phone:           "+1 (555) 123-4567",
		DeliveryAddress: "1 Flour St",
		CardNumber:      "4111 1111 1111 1111",
		ExpiryDate:      "09/27",
		CVV:             "123",
	}
}

func newCartWithItems(t *testing.T) *cart.Store {
	t.Helper()
	c := cart.NewStore(nopPersister{})
	if err := c.Add(cart.Line{ProductID: "A", Name: "Chocolate Cake", UnitPrice: decimal.RequireFromString("10.00")}, 2, 0); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	if err := c.Add(cart.Line{ProductID: "B", Name: "Croissant", UnitPrice: decimal.RequireFromString("5.00")}, 1, 0); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	return c
}

func newPipeline(c *cart.Store, placer OrderPlacer) *Pipeline {
	return NewPipeline(c, placer, pricing.DefaultShipping, pricing.DefaultTaxRate)
}

func TestSubmitSuccessClearsCartOnce(t *testing.T) {
	c := newCartWithItems(t)
	placer := &fakePlacer{}
	p := newPipeline(c, placer)

	id, err := p.Submit(context.Background(), validForm())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "ord_123" {
		t.Fatalf("order id: got %s want ord_123", id)
	}
	if p.State() != StateSucceeded {
		t.Fatalf("state: got %s want %s", p.State(), StateSucceeded)
	}
	if !c.IsEmpty() {
		t.Fatal("cart must be cleared after success")
	}
	if p.OrderID() != "ord_123" {
		t.Fatalf("OrderID: got %s", p.OrderID())
	}

	// request built from the snapshot: 25.00 + 5.00 shipping + 2.00 tax
	req := placer.calls[0]
	if len(req.Items) != 2 || req.Items[0].Quantity != 2 {
		t.Fatalf("request items: %+v", req.Items)
	}
	if req.TotalAmount != 32.00 {
		t.Fatalf("total: got %v want 32.00", req.TotalAmount)
	}
	if req.UserID == "" {
		t.Fatal("userId must be generated when absent")
	}
}

func TestSubmitEmptyCartBlockedBeforeNetwork(t *testing.T) {
	c := cart.NewStore(nopPersister{})
	placer := &fakePlacer{}
	p := newPipeline(c, placer)

	_, err := p.Submit(context.Background(), validForm())
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if p.State() != StateIdle {
		t.Fatalf("state: got %s want %s", p.State(), StateIdle)
	}
	if placer.callCount() != 0 {
		t.Fatal("no network call may be issued for an empty cart")
	}
}

func TestSubmitValidationFailure(t *testing.T) {
	c := newCartWithItems(t)
	placer := &fakePlacer{}
	p := newPipeline(c, placer)

	form := validForm()
	form.Email = "not-an-email"
	form.Phone = "0"
	form.CardNumber = "1234"
	form.DeliveryAddress = ""

	_, err := p.Submit(context.Background(), form)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	for field, want := range map[string]string{
		"Email":           "Please enter a valid email address",
		"Phone":           "Please enter a valid phone number",
		"CardNumber":      "Please enter a valid 16-digit card number",
		"DeliveryAddress": "This field is required",
	} {
		if got := ve.Fields[field]; got != want {
			t.Fatalf("field %s: got %q want %q", field, got, want)
		}
	}
	if placer.callCount() != 0 {
		t.Fatal("validation failure must not reach the network")
	}
	if p.State() != StateIdle {
		t.Fatalf("state: got %s want %s", p.State(), StateIdle)
	}
	if c.IsEmpty() {
		t.Fatal("cart must be untouched")
	}
}

func TestFormEdgeFormats(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Form)
		ok     bool
	}{
		{"separated phone", func(f *Form) { f.Phone = "(555) 123-4567" }, true},
		{"plus phone", func(f *Form) { f.Phone = "+447911123456" }, true},
		{"zero-led phone", func(f *Form) { f.Phone = "0123456" }, false},
		{"spaced card", func(f *Form) { f.CardNumber = "4111 1111 1111 1111" }, true},
		{"short card", func(f *Form) { f.CardNumber = "4111111111111" }, false},
		{"expiry month 13", func(f *Form) { f.ExpiryDate = "13/27" }, false},
		{"expiry no slash", func(f *Form) { f.ExpiryDate = "0927" }, false},
		{"four digit cvv", func(f *Form) { f.CVV = "1234" }, true},
		{"alpha cvv", func(f *Form) { f.CVV = "12a" }, false},
	}

	v := newValidator()
	for _, tc := range cases {
		form := validForm()
		tc.mutate(&form)
		err := v.Struct(form)
		if tc.ok && err != nil {
			t.Fatalf("%s: expected valid, got %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected invalid", tc.name)
		}
	}
}

func TestSubmitRejectionPreservesCartAndRetries(t *testing.T) {
	c := newCartWithItems(t)
	placer := &fakePlacer{results: []func() (order.Placed, error){
		func() (order.Placed, error) {
			return order.Placed{}, fmt.Errorf("%w: status 500", order.ErrSubmissionRejected)
		},
	}}
	p := newPipeline(c, placer)

	_, err := p.Submit(context.Background(), validForm())
	if !errors.Is(err, order.ErrSubmissionRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if p.State() != StateFailed {
		t.Fatalf("state: got %s want %s", p.State(), StateFailed)
	}
	if c.IsEmpty() {
		t.Fatal("cart must survive a rejected submission")
	}

	// the cart changed between attempts; the retry must see the change
	if err := c.Add(cart.Line{ProductID: "C", Name: "Baguette", UnitPrice: decimal.RequireFromString("3.00")}, 1, 0); err != nil {
		t.Fatalf("add: %v", err)
	}

	id, err := p.Retry(context.Background(), validForm())
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if id != "ord_123" {
		t.Fatalf("retry id: %s", id)
	}
	retryReq := placer.calls[len(placer.calls)-1]
	if len(retryReq.Items) != 3 {
		t.Fatalf("retry must rebuild from a fresh snapshot, got %d items", len(retryReq.Items))
	}
	if !c.IsEmpty() {
		t.Fatal("cart must clear after the successful retry")
	}
}

func TestRetryOnlyFromFailed(t *testing.T) {
	p := newPipeline(newCartWithItems(t), &fakePlacer{})
	if _, err := p.Retry(context.Background(), validForm()); err == nil {
		t.Fatal("Retry from Idle must error")
	}
}

func TestTransportErrorRetriedOnceWithSameKey(t *testing.T) {
	c := newCartWithItems(t)
	transportErr := func() (order.Placed, error) {
		return order.Placed{}, fmt.Errorf("%w: connection refused", order.ErrSubmissionTransport)
	}

	// first attempt: transport error then success -> placed, 2 calls, same key
	placer := &fakePlacer{results: []func() (order.Placed, error){transportErr}}
	p := newPipeline(c, placer)
	if _, err := p.Submit(context.Background(), validForm()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if placer.callCount() != 2 {
		t.Fatalf("expected 1 automatic retry, got %d calls", placer.callCount())
	}
	if placer.keys[0] != placer.keys[1] {
		t.Fatal("automatic retry must reuse the idempotency key")
	}
}

func TestTransportErrorNotRetriedTwice(t *testing.T) {
	c := newCartWithItems(t)
	transportErr := func() (order.Placed, error) {
		return order.Placed{}, fmt.Errorf("%w: connection refused", order.ErrSubmissionTransport)
	}
	placer := &fakePlacer{results: []func() (order.Placed, error){transportErr, transportErr}}
	p := newPipeline(c, placer)

	_, err := p.Submit(context.Background(), validForm())
	if !errors.Is(err, order.ErrSubmissionTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if placer.callCount() != 2 {
		t.Fatalf("automatic retry is capped at one, got %d calls", placer.callCount())
	}
	if p.State() != StateFailed {
		t.Fatalf("state: got %s", p.State())
	}
	if c.IsEmpty() {
		t.Fatal("cart must survive transport failure")
	}
}

func TestSecondSubmitWhileInFlightRejected(t *testing.T) {
	c := newCartWithItems(t)
	placer := &fakePlacer{block: make(chan struct{})}
	p := newPipeline(c, placer)

	done := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background(), validForm())
		done <- err
	}()

	waitForState(t, p, StateSubmitting)

	if _, err := p.Submit(context.Background(), validForm()); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}

	close(placer.block)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
}

func TestLateResolutionAfterCancelIsDiscarded(t *testing.T) {
	c := newCartWithItems(t)
	placer := &fakePlacer{block: make(chan struct{})}
	p := newPipeline(c, placer)

	done := make(chan error, 1)
	go func() {
		_, err := p.Submit(context.Background(), validForm())
		done <- err
	}()

	waitForState(t, p, StateSubmitting)
	p.Cancel()

	// the user rebuilds the cart while the old attempt is still in flight
	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := c.Add(cart.Line{ProductID: "Z", Name: "Eclair", UnitPrice: decimal.RequireFromString("4.00")}, 2, 0); err != nil {
		t.Fatalf("rebuild cart: %v", err)
	}

	close(placer.block) // old attempt now resolves successfully

	if err := <-done; !errors.Is(err, ErrAttemptAbandoned) {
		t.Fatalf("expected ErrAttemptAbandoned, got %v", err)
	}
	// the late success must not clear the rebuilt cart
	if c.IsEmpty() {
		t.Fatal("late resolution cleared a rebuilt cart")
	}
	if got := c.Snapshot()[0].ProductID; got != "Z" {
		t.Fatalf("rebuilt cart corrupted: %s", got)
	}
	if p.State() != StateIdle {
		t.Fatalf("state after cancel: got %s want %s", p.State(), StateIdle)
	}
}

func waitForState(t *testing.T, p *Pipeline, state string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.State() == state {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("pipeline never reached %s (stuck at %s)", state, p.State())
}
