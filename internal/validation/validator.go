package validation

import (
	"fmt"
	"math"

	validatorv10 "github.com/go-playground/validator/v10"
)

// Pricing terms applied on top of the item subtotal. Every order ships
// for a flat fee and is taxed on the subtotal only.
const (
	ShippingFee = 5.00
	TaxRate     = 0.08
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for CreateOrderRequest to ensure
	// the provided TotalAmount matches subtotal + shipping + tax.
	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})

	return v
}

// ExpectedTotal computes subtotal + flat shipping + tax, with the tax
// rounded to cents half-up the same way clients compute it.
func ExpectedTotal(items []Item) float64 {
	var subtotal float64
	for _, it := range items {
		subtotal += float64(it.Quantity) * it.Price
	}
	tax := math.Round(subtotal*TaxRate*100) / 100
	return subtotal + ShippingFee + tax
}

// createOrderStructValidation verifies TotalAmount equals the server-side
// recomputed total (compared in cents to sidestep float rounding).
func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)

	expected := ExpectedTotal(req.Items)

	expectedCents := int(math.Round(expected * 100))
	amountCents := int(math.Round(req.TotalAmount * 100))
	if expectedCents != amountCents {
		sl.ReportError(req.TotalAmount, "totalAmount", "TotalAmount", "amount_match_items", fmt.Sprintf("expected total %.2f != totalAmount %.2f", expected, req.TotalAmount))
	}
}
