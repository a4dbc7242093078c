// Package notify fans significant storefront events out to operator channels.
//
// Delivery is best-effort: each eligible channel gets exactly one send
// attempt, attempts run concurrently and independently, and the overall
// result is true when at least one channel accepted the message. The
// triggering business action has already been committed by the time a
// dispatch happens, so failures are logged and never propagated.
package notify

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Event classifies a notification for per-channel permission filtering.
type Event string

const (
	// EventOrders is a new order placed by a customer.
	EventOrders Event = "orders"
	// EventOrderStatus is an order lifecycle status change.
	EventOrderStatus Event = "order_status"
	// EventMessages is a new customer message.
	EventMessages Event = "messages"
	// EventReviews is a new product review.
	EventReviews Event = "reviews"
	// EventContact is a contact-form submission.
	EventContact Event = "contact"
)

// Permissions lists the event classes a channel is subscribed to.
type Permissions struct {
	Orders      bool
	OrderStatus bool
	Messages    bool
	Reviews     bool
	Contact     bool
}

// Allows reports whether the given event class is enabled.
func (p Permissions) Allows(event Event) bool {
	switch event {
	case EventOrders:
		return p.Orders
	case EventOrderStatus:
		return p.OrderStatus
	case EventMessages:
		return p.Messages
	case EventReviews:
		return p.Reviews
	case EventContact:
		return p.Contact
	default:
		return false
	}
}

// Channel is an operator-facing destination for event notifications.
type Channel struct {
	ID          string
	ChatID      string
	Name        string
	Enabled     bool
	Permissions Permissions
}

// Sender delivers one message to one destination.
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

// DefaultSendTimeout bounds a single channel delivery. The transport gives no
// guarantee of timely failure, so a hung send must not outlive the batch.
const DefaultSendTimeout = 10 * time.Second

// Dispatcher fans one event out to every eligible channel.
type Dispatcher struct {
	sender      Sender
	lg          *zap.Logger
	sendTimeout time.Duration
}

// NewDispatcher creates a Dispatcher delivering through sender.
func NewDispatcher(sender Sender, lg *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		lg:          lg,
		sendTimeout: DefaultSendTimeout,
	}
}

// Dispatch delivers text to every enabled channel permitted to receive event.
// Sends run concurrently; one channel's failure never blocks or cancels
// another's. It returns true when at least one delivery succeeded and false
// when every delivery failed or no channel was eligible — the false case is a
// normal outcome, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event, text string, channels []Channel) bool {
	eligible := filter(event, channels)
	if len(eligible) == 0 {
		d.lg.Debug("no eligible notification channels", zap.String("event", string(event)))
		return false
	}

	var delivered atomic.Int64
	var g errgroup.Group
	for _, ch := range eligible {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
			defer cancel()

			if err := d.sender.Send(sendCtx, ch.ChatID, text); err != nil {
				d.lg.Warn("notification delivery failed",
					zap.String("event", string(event)),
					zap.String("channel", ch.Name),
					zap.String("chat_id", ch.ChatID),
					zap.Error(err),
				)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	d.lg.Info("notification dispatched",
		zap.String("event", string(event)),
		zap.Int("eligible", len(eligible)),
		zap.Int64("delivered", delivered.Load()),
	)
	return delivered.Load() > 0
}

func filter(event Event, channels []Channel) []Channel {
	eligible := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.Enabled && ch.Permissions.Allows(event) {
			eligible = append(eligible, ch)
		}
	}
	return eligible
}
