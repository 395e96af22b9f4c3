package validation

// Item represents a single order line item.
type Item struct {
	ProductID   string  `json:"productId" validate:"required"`      // catalog id
	ProductName string  `json:"productName" validate:"required"`    // display name at time of order
	Quantity    int     `json:"quantity" validate:"required,min=1"` // must be >= 1
	Price       float64 `json:"price" validate:"required,gt=0"`     // unit price
}

// CreateOrderRequest is the payload for POST /api/orders
type CreateOrderRequest struct {
	UserID              string  `json:"userId" validate:"required"`           // business id for customer
	CustomerName        string  `json:"customerName" validate:"required"`     // delivery contact name
	Email               string  `json:"email" validate:"required,email"`      // delivery contact email
	Phone               string  `json:"phone" validate:"required"`            // delivery contact phone
	DeliveryAddress     string  `json:"deliveryAddress" validate:"required"`  // full street address
	Items               []Item  `json:"items" validate:"required,min=1,dive"` // at least one item
	TotalAmount         float64 `json:"totalAmount" validate:"required,gt=0"` // total the client claims, incl. shipping and tax
	SpecialInstructions string  `json:"specialInstructions,omitempty"`        // optional free-form note
}
