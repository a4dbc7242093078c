package order

import (
	"context"

	"github.com/vkuzmenko/storefront/internal/domain/settings"
	"github.com/vkuzmenko/storefront/internal/notify"
)

// Notifier renders order events into operator messages and hands them to the
// dispatcher. All methods are fire-and-forget: outcomes are logged by the
// dispatcher and never reach the caller.
type Notifier struct {
	dispatcher *notify.Dispatcher
}

// NewNotifier creates a Notifier over the given dispatcher.
func NewNotifier(dispatcher *notify.Dispatcher) *Notifier {
	return &Notifier{dispatcher: dispatcher}
}

// OrderPlaced announces a new order to channels with the orders permission.
func (n *Notifier) OrderPlaced(ctx context.Context, o *Order, s *settings.Settings) {
	text := notify.NewOrder(orderMessage(o))
	n.dispatcher.Dispatch(ctx, notify.EventOrders, text, s.Channels)
}

// StatusChanged announces a lifecycle transition to channels with the
// order_status permission.
func (n *Notifier) StatusChanged(ctx context.Context, o *Order, old Status, s *settings.Settings) {
	text := notify.StatusChange(o.Number, string(old), string(o.Status))
	n.dispatcher.Dispatch(ctx, notify.EventOrderStatus, text, s.Channels)
}

func orderMessage(o *Order) notify.OrderMessage {
	lines := make([]notify.OrderLine, len(o.Items))
	for i, item := range o.Items {
		lines[i] = notify.OrderLine{
			Name:      item.Name,
			Quantity:  item.Quantity,
			LineTotal: item.Subtotal,
		}
	}
	return notify.OrderMessage{
		Number:        o.Number,
		CustomerName:  o.Customer.Name,
		Phone:         o.Customer.Phone,
		Address:       o.Customer.Address,
		DeliveryType:  o.DeliveryType,
		PaymentMethod: string(o.PaymentMethod),
		Lines:         lines,
		Subtotal:      o.Subtotal,
		Discount:      o.Discount,
		DeliveryFee:   o.DeliveryFee,
		Total:         o.Total,
		Notes:         o.Notes,
	}
}
