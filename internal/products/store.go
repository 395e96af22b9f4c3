package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/cakedaddy/storefront/internal/aws"
)

// ErrNotFound indicates the products table has no record with the id.
var ErrNotFound = errors.New("product not found")

// Store encapsulates operations on the products table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new products Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Put writes a product, setting timestamps. Used for both create and
// full update (the catalog is admin-curated, last write wins).
func (s *Store) Put(ctx context.Context, p Product) (Product, error) {
	if p.ProductID == "" {
		return Product{}, fmt.Errorf("product id is empty")
	}

	now := s.nowFunc()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return Product{}, fmt.Errorf("marshal product: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return Product{}, fmt.Errorf("put item: %w", err)
	}
	return p, nil
}

// Get fetches a product by id. Returns ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, productID string) (Product, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err != nil {
		return Product{}, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, productID)
	}
	var p Product
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return Product{}, fmt.Errorf("unmarshal product: %w", err)
	}
	return p, nil
}

// Delete removes a product. Reports whether a record existed.
func (s *Store) Delete(ctx context.Context, productID string) (bool, error) {
	out, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	return len(out.Attributes) > 0, nil
}

// List scans the whole catalog.
func (s *Store) List(ctx context.Context) ([]Product, error) {
	return s.scan(ctx, &dyn.ScanInput{TableName: &s.tableName})
}

// ListByCategory scans products in one category.
func (s *Store) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	return s.scan(ctx, &dyn.ScanInput{
		TableName:        &s.tableName,
		FilterExpression: awsString("category = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: category},
		},
	})
}

// Search returns products whose name or description contains the query,
// case-insensitive. The catalog is small (a bakery's menu), so this
// filters a full scan client-side rather than maintaining a search index.
func (s *Store) Search(ctx context.Context, query string) ([]Product, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var matched []Product
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// AddRating appends a rating to a product and returns the updated record.
func (s *Store) AddRating(ctx context.Context, productID string, r Rating) (Product, error) {
	if r.Score < 1 || r.Score > 5 {
		return Product{}, fmt.Errorf("score %d out of range 1-5", r.Score)
	}

	p, err := s.Get(ctx, productID)
	if err != nil {
		return Product{}, err
	}

	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.nowFunc()
	}
	p.Ratings = append(p.Ratings, r)

	return s.Put(ctx, p)
}

func (s *Store) scan(ctx context.Context, input *dyn.ScanInput) ([]Product, error) {
	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	products := make([]Product, 0, len(out.Items))
	for _, item := range out.Items {
		var p Product
		if err := attributevalue.UnmarshalMap(item, &p); err != nil {
			return nil, fmt.Errorf("unmarshal product: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

func awsString(s string) *string { return &s }
