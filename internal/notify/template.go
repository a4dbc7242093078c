package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Message templates render one plain-text body per event class, using the
// transport's inline HTML subset (<b>, <code>) for emphasis. View models are
// local to this package so rendering stays decoupled from the domain types.

// OrderLine is one frozen line of an order for message rendering.
type OrderLine struct {
	Name      string
	Quantity  int
	LineTotal decimal.Decimal
}

// OrderMessage is the view model for new-order and status-change messages.
type OrderMessage struct {
	Number        string
	CustomerName  string
	Phone         string
	Address       string
	DeliveryType  string
	PaymentMethod string
	Lines         []OrderLine
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	DeliveryFee   decimal.Decimal
	Total         decimal.Decimal
	Notes         string
}

// NewOrder renders the message sent when a customer places an order.
func NewOrder(m OrderMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛒 <b>New order</b> <code>%s</code>\n\n", m.Number)
	fmt.Fprintf(&b, "Customer: %s\n", m.CustomerName)
	fmt.Fprintf(&b, "Phone: %s\n", m.Phone)
	if m.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", m.Address)
	}
	fmt.Fprintf(&b, "Delivery: %s\n", m.DeliveryType)
	fmt.Fprintf(&b, "Payment: %s\n\n", m.PaymentMethod)

	for _, line := range m.Lines {
		fmt.Fprintf(&b, "• %s ×%d — %s\n", line.Name, line.Quantity, line.LineTotal.StringFixed(2))
	}

	fmt.Fprintf(&b, "\nSubtotal: %s\n", m.Subtotal.StringFixed(2))
	if m.Discount.IsPositive() {
		fmt.Fprintf(&b, "Discount: −%s\n", m.Discount.StringFixed(2))
	}
	if m.DeliveryFee.IsPositive() {
		fmt.Fprintf(&b, "Delivery fee: %s\n", m.DeliveryFee.StringFixed(2))
	}
	fmt.Fprintf(&b, "<b>Total: %s</b>", m.Total.StringFixed(2))

	if m.Notes != "" {
		fmt.Fprintf(&b, "\n\nNotes: %s", m.Notes)
	}
	return b.String()
}

// StatusChange renders the message sent when an order moves to a new status.
func StatusChange(number, oldStatus, newStatus string) string {
	return fmt.Sprintf("📦 Order <code>%s</code>: <b>%s</b> → <b>%s</b>",
		number, oldStatus, newStatus)
}

// NewMessage renders the message sent for a new customer message.
func NewMessage(from, text string) string {
	return fmt.Sprintf("✉️ <b>New message</b>\nFrom: %s\n\n%s", from, text)
}

// NewReview renders the message sent for a new product review.
func NewReview(product, author string, rating int, text string) string {
	return fmt.Sprintf("⭐ <b>New review</b> (%d/5)\nProduct: %s\nBy: %s\n\n%s",
		rating, product, author, text)
}

// ContactForm renders the message sent for a contact-form submission.
func ContactForm(name, phone, text string) string {
	return fmt.Sprintf("📨 <b>Contact form</b>\nName: %s\nPhone: %s\n\n%s",
		name, phone, text)
}
