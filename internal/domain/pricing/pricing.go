// Package pricing derives an order's price breakdown from cart contents, an
// optional discount code, and the delivery fee schedule.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vkuzmenko/storefront/internal/domain/discount"
)

var hundred = decimal.NewFromInt(100)

// DeliveryType selects how the customer receives the order.
type DeliveryType string

const (
	// DeliveryPickup means the customer collects the order; no delivery fee.
	DeliveryPickup DeliveryType = "pickup"
	// DeliveryCourier means the order is delivered and the fee applies.
	DeliveryCourier DeliveryType = "delivery"
)

// CartLine is one product entry prior to order commitment. DiscountPercent is
// a per-product markdown independent of any discount code.
type CartLine struct {
	ProductID       string
	Name            string
	Image           string
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	Quantity        int
}

// EffectiveUnitPrice returns the unit price after the per-product markdown.
func (l CartLine) EffectiveUnitPrice() decimal.Decimal {
	if l.DiscountPercent.IsZero() {
		return l.UnitPrice
	}
	markdown := l.UnitPrice.Mul(l.DiscountPercent).Div(hundred)
	return l.UnitPrice.Sub(markdown)
}

// Breakdown holds the priced components of an order.
type Breakdown struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// InvalidLineError indicates a cart line with a negative price or quantity,
// or a markdown percentage outside [0, 100].
type InvalidLineError struct {
	ProductID string
	Reason    string
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("invalid cart line for product %s: %s", e.ProductID, e.Reason)
}

// Price computes the breakdown for the given cart. code may be nil when no
// discount applies; it is assumed to have been validated already. The total
// is floored at zero, so a fixed discount larger than the subtotal yields a
// free order rather than a negative one. Deterministic and side-effect free.
func Price(lines []CartLine, code *discount.Code, deliveryType DeliveryType, deliveryFee decimal.Decimal) (Breakdown, error) {
	subtotal, err := Subtotal(lines)
	if err != nil {
		return Breakdown{}, err
	}

	discountAmount := discountFor(code, subtotal)

	fee := decimal.Zero
	if deliveryType == DeliveryCourier {
		fee = deliveryFee
	}

	// Round each component before deriving the total so that
	// total = subtotal - discount + fee holds on the values callers see.
	subtotal = subtotal.Round(2)
	discountAmount = discountAmount.Round(2)
	fee = fee.Round(2)

	total := subtotal.Sub(discountAmount).Add(fee)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Breakdown{
		Subtotal:    subtotal,
		Discount:    discountAmount,
		DeliveryFee: fee,
		Total:       total,
	}, nil
}

// Subtotal validates the cart lines and sums their effective line prices.
// Discount code minimums are checked against this value before pricing.
func Subtotal(lines []CartLine) (decimal.Decimal, error) {
	subtotal := decimal.Zero
	for _, line := range lines {
		if err := checkLine(line); err != nil {
			return decimal.Decimal{}, err
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		subtotal = subtotal.Add(line.EffectiveUnitPrice().Mul(qty))
	}
	return subtotal, nil
}

// discountFor returns the discount amount for the subtotal. Percentage codes
// are capped at MaxDiscount when one is set; fixed codes apply in full even
// when they exceed the subtotal (Price clamps the total instead).
func discountFor(code *discount.Code, subtotal decimal.Decimal) decimal.Decimal {
	if code == nil {
		return decimal.Zero
	}

	switch code.Type {
	case discount.TypePercentage:
		amount := subtotal.Mul(code.Value).Div(hundred)
		if code.MaxDiscount.IsPositive() {
			amount = decimal.Min(amount, code.MaxDiscount)
		}
		return amount
	case discount.TypeFixed:
		return code.Value
	default:
		return decimal.Zero
	}
}

func checkLine(line CartLine) error {
	switch {
	case line.Quantity < 1:
		return &InvalidLineError{ProductID: line.ProductID, Reason: "quantity must be at least 1"}
	case line.UnitPrice.IsNegative():
		return &InvalidLineError{ProductID: line.ProductID, Reason: "unit price must not be negative"}
	case line.DiscountPercent.IsNegative() || line.DiscountPercent.GreaterThan(hundred):
		return &InvalidLineError{ProductID: line.ProductID, Reason: "discount percent must be within [0, 100]"}
	}
	return nil
}
