package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/cakedaddy/storefront/internal/cart"
)

// Storefront defaults: flat delivery fee and 8% tax.
var (
	DefaultShipping = decimal.NewFromFloat(5.00)
	DefaultTaxRate  = decimal.NewFromFloat(0.08)
)

// Summary is the derived price breakdown for a cart snapshot. It is never
// stored; callers recompute it from a fresh snapshot whenever they need
// it, so it can never go stale.
type Summary struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Compute derives the summary for a snapshot. Pure function: subtotal is
// the line-item sum, tax is the subtotal times taxRate rounded half-up to
// cents, shipping is passed through as a flat fee. An empty snapshot
// yields total == shipping.
func Compute(snapshot []cart.Line, shipping, taxRate decimal.Decimal) Summary {
	subtotal := decimal.Zero
	for _, ln := range snapshot {
		subtotal = subtotal.Add(ln.UnitPrice.Mul(decimal.NewFromInt(int64(ln.Quantity))))
	}

	tax := subtotal.Mul(taxRate).Round(2)

	return Summary{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}
