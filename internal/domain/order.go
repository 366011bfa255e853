package domain

import "time"

// OrderStatus is the lifecycle state of a placed order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

// ValidOrderStatus reports whether s is one of the known statuses.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// OrderLine is an immutable snapshot of a cart line taken at order time.
// Name, price and image are copied so later product edits do not affect
// the order.
type OrderLine struct {
	ProductID string  `bson:"product_id" json:"product_id"`
	Name      string  `bson:"name" json:"name"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	UnitPrice float64 `bson:"unit_price" json:"unit_price"`
	Image     string  `bson:"image,omitempty" json:"image,omitempty"`
}

// PaymentResult holds provider metadata reported after a payment settles.
// Empty until a payment callback fills it in.
type PaymentResult struct {
	ID         string `bson:"id,omitempty" json:"id,omitempty"`
	Status     string `bson:"status,omitempty" json:"status,omitempty"`
	UpdateTime string `bson:"update_time,omitempty" json:"update_time,omitempty"`
	Email      string `bson:"email,omitempty" json:"email,omitempty"`
}

// ShippingAddress is captured as-is from the placing request.
type ShippingAddress struct {
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postal_code" json:"postal_code"`
	Country    string `bson:"country" json:"country"`
}

// Order is created once by order placement. Status is the only field that
// changes afterwards.
type Order struct {
	ID              string          `bson:"_id" json:"id"`
	UserID          string          `bson:"user_id" json:"user_id"`
	Lines           []OrderLine     `bson:"lines" json:"lines"`
	ShippingAddress ShippingAddress `bson:"shipping_address" json:"shipping_address"`
	PaymentMethod   string          `bson:"payment_method" json:"payment_method"`
	PaymentResult   *PaymentResult  `bson:"payment_result,omitempty" json:"payment_result,omitempty"`
	Total           float64         `bson:"total" json:"total"`
	Status          OrderStatus     `bson:"status" json:"status"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updated_at"`
}
