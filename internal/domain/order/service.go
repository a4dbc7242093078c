package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vkuzmenko/storefront/internal/domain/discount"
	"github.com/vkuzmenko/storefront/internal/domain/pricing"
	"github.com/vkuzmenko/storefront/internal/domain/settings"
)

// Sentinel errors for checkout validation.
var (
	ErrEmptyItems      = errors.New("items required")
	ErrMissingCustomer = errors.New("customer name and phone required")
)

// UsageConsumer records one use of a discount code at order-commit time.
// The increment is guarded: consuming an exhausted code fails instead of
// overshooting the limit.
type UsageConsumer interface {
	ConsumeUsage(ctx context.Context, code string) error
}

// notifier publishes order events to the operator channels. Implementations
// must tolerate failure silently; the service never checks an outcome.
type notifier interface {
	OrderPlaced(ctx context.Context, o *Order, s *settings.Settings)
	StatusChanged(ctx context.Context, o *Order, old Status, s *settings.Settings)
}

// CheckoutRequest holds the input for converting a cart into an order.
type CheckoutRequest struct {
	Customer      Customer
	Lines         []pricing.CartLine
	DeliveryType  pricing.DeliveryType
	PaymentMethod PaymentMethod
	DiscountCode  string
	Notes         string
}

// Service implements checkout and lifecycle operations over the order store.
type Service struct {
	orders    Repository
	discounts UsageConsumer
	settings  settings.Provider
	notify    notifier
	lg        *zap.Logger
	now       func() time.Time
}

// NewService creates an order Service with the required dependencies.
func NewService(
	orders Repository,
	discounts UsageConsumer,
	sp settings.Provider,
	n *Notifier,
	lg *zap.Logger,
) *Service {
	return &Service{
		orders:    orders,
		discounts: discounts,
		settings:  sp,
		notify:    n,
		lg:        lg,
		now:       time.Now,
	}
}

// Checkout converts a cart into a priced, persisted order. The discount code
// (when present) is validated against the current settings snapshot and its
// usage is consumed after the order commits. The new-order notification is
// fired without being awaited: a persistence failure aborts checkout, a
// notification failure never does.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyItems
	}
	if strings.TrimSpace(req.Customer.Name) == "" || strings.TrimSpace(req.Customer.Phone) == "" {
		return nil, ErrMissingCustomer
	}

	snap, err := s.settings.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load settings")
	}

	now := s.now()

	subtotal, err := pricing.Subtotal(req.Lines)
	if err != nil {
		return nil, err
	}

	var code *discount.Code
	if req.DiscountCode != "" {
		code, err = discount.Validate(req.DiscountCode, snap.DiscountCodes, subtotal, now)
		if err != nil {
			return nil, err
		}
	}

	breakdown, err := pricing.Price(req.Lines, code, req.DeliveryType, snap.DeliveryFee)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:            uuid.New().String(),
		Number:        newOrderNumber(now),
		Customer:      req.Customer,
		DeliveryType:  string(req.DeliveryType),
		Items:         snapshotLines(req.Lines),
		Subtotal:      breakdown.Subtotal,
		DeliveryFee:   breakdown.DeliveryFee,
		Discount:      breakdown.Discount,
		Total:         breakdown.Total,
		Status:        StatusPending,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: PaymentPending,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if code != nil {
		o.DiscountCode = code.Code
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	// The order is committed; a lost increment only under-counts usage.
	if code != nil {
		if err := s.discounts.ConsumeUsage(ctx, code.Code); err != nil {
			s.lg.Warn("consume discount code usage",
				zap.String("code", code.Code),
				zap.String("order", o.Number),
				zap.Error(err),
			)
		}
	}

	go s.notify.OrderPlaced(context.WithoutCancel(ctx), o, snap)

	return o, nil
}

// UpdateStatus advances an order through the lifecycle. The updated order is
// persisted before the status-change notification fires.
func (s *Service) UpdateStatus(ctx context.Context, id string, newStatus Status) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}

	old := o.Status
	if err := o.Transition(newStatus, s.now()); err != nil {
		return nil, err
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	snap, err := s.settings.Get(ctx)
	if err != nil {
		// The transition is already committed; skip the notification.
		s.lg.Warn("load settings for status notification", zap.Error(err))
		return o, nil
	}

	go s.notify.StatusChanged(context.WithoutCancel(ctx), o, old, snap)

	return o, nil
}

// Get returns one order by ID.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.Get(ctx, id)
}

// List returns orders matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	return s.orders.List(ctx, filter)
}

// newOrderNumber derives a human-readable order number from the creation
// time plus a short random suffix to disambiguate same-second orders.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return "ORD-" + now.UTC().Format("20060102") + "-" + suffix
}

func snapshotLines(lines []pricing.CartLine) []LineSnapshot {
	items := make([]LineSnapshot, len(lines))
	for i, line := range lines {
		unit := line.EffectiveUnitPrice().Round(2)
		items[i] = LineSnapshot{
			ProductID: line.ProductID,
			Name:      line.Name,
			Image:     line.Image,
			UnitPrice: unit,
			Quantity:  line.Quantity,
			Subtotal:  unit.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2),
		}
	}
	return items
}
