// Package settings exposes the operator-managed storefront configuration:
// the delivery fee, the discount code catalog, and the notification channels.
package settings

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vkuzmenko/storefront/internal/domain/discount"
	"github.com/vkuzmenko/storefront/internal/notify"
)

// Settings is a point-in-time snapshot of the storefront configuration.
// Components fetch a fresh snapshot per operation; there is no subscription.
type Settings struct {
	DeliveryFee   decimal.Decimal
	DiscountCodes []discount.Code
	Channels      []notify.Channel
	BotToken      string
}

// Provider supplies the current settings snapshot.
type Provider interface {
	Get(ctx context.Context) (*Settings, error)
}
