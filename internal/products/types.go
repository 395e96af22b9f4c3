package products

import "time"

// Rating is one customer rating on a product. The average is derived on
// read, never stored.
type Rating struct {
	UserID    string    `dynamodbav:"user_id" json:"userId"`
	Score     int       `dynamodbav:"score" json:"score"`
	Comment   string    `dynamodbav:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"createdAt"`
}

// Product is the item stored in the products DynamoDB table.
type Product struct {
	ProductID     string    `dynamodbav:"product_id" json:"id"` // PK
	Name          string    `dynamodbav:"name" json:"name"`
	Description   string    `dynamodbav:"description,omitempty" json:"description,omitempty"`
	Price         float64   `dynamodbav:"price" json:"price"`
	Category      string    `dynamodbav:"category,omitempty" json:"category,omitempty"`
	ImageURL      string    `dynamodbav:"image_url,omitempty" json:"imageUrl,omitempty"`
	StockQuantity int       `dynamodbav:"stock_quantity" json:"stockQuantity"`
	Ratings       []Rating  `dynamodbav:"ratings,omitempty" json:"ratings,omitempty"`
	CreatedAt     time.Time `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `dynamodbav:"updated_at" json:"updatedAt"`
}
