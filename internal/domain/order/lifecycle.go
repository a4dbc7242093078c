package order

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// Status is an order's position in the fulfillment lifecycle.
type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// statusRank orders the forward path. Any jump to a higher rank is allowed
// (the admin UI offers an unconstrained status dropdown, so pending→delivered
// is a legal shortcut); moving backward is not.
var statusRank = map[Status]int{
	StatusPending:        0,
	StatusConfirmed:      1,
	StatusPreparing:      2,
	StatusOutForDelivery: 3,
	StatusDelivered:      4,
}

// ErrAlreadyFinalized is returned when transitioning an order that is already
// in a terminal state.
var ErrAlreadyFinalized = errors.New("order already finalized")

// InvalidTransitionError indicates a backward, duplicate, or unknown status
// transition.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// IsTerminal reports whether s ends the lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s Status) bool {
	_, ok := statusRank[s]
	return ok || s == StatusCancelled
}

// Transition moves the order to newStatus at the given instant. It updates
// UpdatedAt on success and sets DeliveredAt exactly when the order enters
// delivered. Terminal orders reject every transition with ErrAlreadyFinalized;
// backward, duplicate, and unknown targets fail with InvalidTransitionError.
// The order is left unchanged on failure.
func (o *Order) Transition(newStatus Status, now time.Time) error {
	if o.Status.IsTerminal() {
		return errors.Wrapf(ErrAlreadyFinalized, "order %s is %s", o.Number, o.Status)
	}

	if !ValidStatus(newStatus) {
		return &InvalidTransitionError{From: o.Status, To: newStatus}
	}

	if newStatus != StatusCancelled {
		from, to := statusRank[o.Status], statusRank[newStatus]
		if to <= from {
			return &InvalidTransitionError{From: o.Status, To: newStatus}
		}
	}

	o.Status = newStatus
	o.UpdatedAt = now
	if newStatus == StatusDelivered {
		o.DeliveredAt = &now
	}
	return nil
}
