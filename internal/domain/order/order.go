// Package order holds the order model, the lifecycle state machine, and the
// checkout and status-update services.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer intends to pay. The method is recorded
// with the order; payment itself is handled outside this service.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentOnline PaymentMethod = "online"
)

// PaymentStatus tracks whether the recorded payment has settled.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Customer identifies the person placing the order.
type Customer struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

// LineSnapshot freezes a product's identity and price at order time. Later
// catalog edits never change an order's recorded prices.
type LineSnapshot struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order is a priced, validated order moving through the fulfillment lifecycle.
type Order struct {
	ID            string
	Number        string
	Customer      Customer
	DeliveryType  string
	Items         []LineSnapshot
	Subtotal      decimal.Decimal
	DeliveryFee   decimal.Decimal
	Discount      decimal.Decimal
	DiscountCode  string
	Total         decimal.Decimal
	Status        Status
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeliveredAt   *time.Time
}

// ListFilter narrows and bounds an order listing.
type ListFilter struct {
	Status Status // empty matches all statuses
	Limit  int    // 0 means the repository default
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	List(ctx context.Context, filter ListFilter) ([]Order, error)
}
