package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Client fetches product records over REST and keeps a small read-through
// cache so repeated product-detail lookups within one session do not
// refetch.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	product Product
	fetched time.Time
}

// NewClient returns a Client rooted at baseURL with the given cache TTL.
// A non-positive ttl disables caching.
func NewClient(baseURL string, ttl time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   map[string]cacheEntry{},
		ttl:     ttl,
	}
}

// List fetches all products.
func (c *Client) List(ctx context.Context) ([]Product, error) {
	return c.list(ctx, "/api/products")
}

// ListByCategory fetches products in one category.
func (c *Client) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	return c.list(ctx, "/api/products/category/"+url.PathEscape(category))
}

// Search fetches products matching a free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]Product, error) {
	return c.list(ctx, "/api/products/search?query="+url.QueryEscape(query))
}

func (c *Client) list(ctx context.Context, path string) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	for _, p := range products {
		if err := p.validate(); err != nil {
			return nil, err
		}
	}
	return products, nil
}

// Get fetches a single product, serving from cache while fresh.
func (c *Client) Get(ctx context.Context, id string) (Product, error) {
	if c.ttl > 0 {
		c.mu.Lock()
		if e, ok := c.cache[id]; ok && time.Since(e.fetched) < c.ttl {
			c.mu.Unlock()
			return e.product, nil
		}
		c.mu.Unlock()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/products/"+url.PathEscape(id), nil)
	if err != nil {
		return Product{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Product{}, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		return Product{}, fmt.Errorf("%w: status %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	var p Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Product{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := p.validate(); err != nil {
		return Product{}, err
	}

	if c.ttl > 0 {
		c.mu.Lock()
		c.cache[id] = cacheEntry{product: p, fetched: time.Now()}
		c.mu.Unlock()
	}
	return p, nil
}
