// Package catalog is the storefront's read-side client for product data:
// pricing, stock ceilings and display metadata.
package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound indicates the catalog has no product with the
	// requested id.
	ErrProductNotFound = errors.New("product not found")

	// ErrMalformedResponse indicates a catalog response missing required
	// fields. Surfaced instead of letting zero values propagate.
	ErrMalformedResponse = errors.New("malformed catalog response")

	// ErrCatalogUnavailable indicates the catalog could not be reached.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// Rating is one customer rating attached to a product.
type Rating struct {
	UserID    string `json:"userId"`
	Score     int    `json:"score"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Product is a validated catalog record.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price"`
	Category      string   `json:"category,omitempty"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	StockQuantity int      `json:"stockQuantity"`
	Ratings       []Rating `json:"ratings,omitempty"`
}

// AverageRating is the mean score over all ratings, 0 when unrated.
func (p Product) AverageRating() float64 {
	if len(p.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range p.Ratings {
		sum += r.Score
	}
	return float64(sum) / float64(len(p.Ratings))
}

// validate rejects records that would propagate unusable zero values into
// the cart.
func (p Product) validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedResponse)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: product %s missing name", ErrMalformedResponse, p.ID)
	}
	if p.Price <= 0 {
		return fmt.Errorf("%w: product %s has price %v", ErrMalformedResponse, p.ID, p.Price)
	}
	return nil
}
