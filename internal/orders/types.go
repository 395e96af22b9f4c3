package orders

import "time"

// Order statuses: the bakery lifecycle. PENDING orders are confirmed by
// the worker, then move through preparation by the admin console until
// delivery. CANCELLED is reachable from any non-terminal status.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusBaking    = "BAKING"
	StatusReady     = "READY"
	StatusDelivered = "DELIVERED"
	StatusCancelled = "CANCELLED"
)

var nextStatuses = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusBaking, StatusCancelled},
	StatusBaking:    {StatusReady, StatusCancelled},
	StatusReady:     {StatusDelivered, StatusCancelled},
	StatusDelivered: nil,
	StatusCancelled: nil,
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	_, ok := nextStatuses[s]
	return ok
}

// CanTransition reports whether an order may move from one status to the
// next. Terminal statuses (DELIVERED, CANCELLED) allow no moves.
func CanTransition(from, to string) bool {
	for _, s := range nextStatuses[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Item is one order line as persisted.
type Item struct {
	ProductID   string  `dynamodbav:"product_id" json:"productId"`
	ProductName string  `dynamodbav:"product_name" json:"productName"`
	Quantity    int     `dynamodbav:"quantity" json:"quantity"`
	Price       float64 `dynamodbav:"price" json:"price"`
}

// Order is the item stored in the orders DynamoDB table.
type Order struct {
	OrderID             string    `dynamodbav:"order_id" json:"id"` // PK
	UserID              string    `dynamodbav:"user_id,omitempty" json:"userId,omitempty"`
	CustomerName        string    `dynamodbav:"customer_name" json:"customerName"`
	Email               string    `dynamodbav:"email" json:"email"`
	Phone               string    `dynamodbav:"phone" json:"phone"`
	DeliveryAddress     string    `dynamodbav:"delivery_address" json:"deliveryAddress"`
	Items               []Item    `dynamodbav:"items" json:"items"`
	TotalAmount         float64   `dynamodbav:"total_amount" json:"totalAmount"`
	SpecialInstructions string    `dynamodbav:"special_instructions,omitempty" json:"specialInstructions,omitempty"`
	Status              string    `dynamodbav:"status" json:"status"`
	CreatedAt           time.Time `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `dynamodbav:"updated_at" json:"updatedAt"`
}
