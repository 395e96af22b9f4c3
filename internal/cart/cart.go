package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Persisted client-side state layout: the full line slice, JSON-encoded,
// under this single key.
const StorageKey = "cart"

var (
	// ErrInvalidQuantity indicates an insert whose resulting quantity
	// would be zero or negative.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrItemNotFound indicates the cart has no line for the product.
	ErrItemNotFound = errors.New("item not found in cart")

	// ErrPersistenceFailed indicates the in-memory mutation applied but
	// the durable write did not land. The session may continue; the
	// caller should warn that state will not survive a restart.
	ErrPersistenceFailed = errors.New("cart persistence failed")
)

// Line is one product entry in the cart. Name, UnitPrice and ImageURL are
// display caches copied from the catalog at add time.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

// Persister is the durable storage the cart writes through on every
// mutation.
type Persister interface {
	Save(lines []Line) error
	Load() ([]Line, error)
}
