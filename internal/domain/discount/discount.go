// Package discount implements the storefront's discount code catalog and the
// validation rules that decide whether a code applies to an order.
package discount

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercentage reduces the subtotal by a percentage, optionally capped.
	TypePercentage Type = "percentage"
	// TypeFixed reduces the subtotal by a fixed amount.
	TypeFixed Type = "fixed"
)

var (
	// ErrNotFound is returned when a code does not exist or is inactive.
	ErrNotFound = errors.New("discount code not found")
	// ErrExpired is returned when a code is outside its valid time window.
	ErrExpired = errors.New("discount code expired")
	// ErrUsageExhausted is returned when a code has no remaining uses.
	ErrUsageExhausted = errors.New("discount code usage limit reached")
)

// MinPurchaseError indicates the order subtotal is below the code's minimum.
// It carries the required minimum so callers can render an actionable message.
type MinPurchaseError struct {
	Code     string
	Required decimal.Decimal
	Subtotal decimal.Decimal
}

func (e *MinPurchaseError) Error() string {
	return fmt.Sprintf("discount code %s requires a minimum purchase of %s", e.Code, e.Required)
}

// Code defines a discount code's behaviour and eligibility constraints.
// MinPurchase of zero means no minimum; MaxDiscount of zero means no cap
// (the cap only applies to percentage codes); UsageLimit of zero means
// unlimited uses.
type Code struct {
	Code        string
	Type        Type
	Value       decimal.Decimal
	MinPurchase decimal.Decimal
	MaxDiscount decimal.Decimal
	ValidFrom   time.Time
	ValidUntil  time.Time
	Active      bool
	UsageLimit  int
	UsedCount   int
}

// Validate checks code against the catalog snapshot for an order with the
// given subtotal at the given instant. The lookup is case-insensitive. On
// success it returns the matched catalog entry unchanged; consuming a use is
// the caller's responsibility at order-commit time.
func Validate(code string, catalog []Code, subtotal decimal.Decimal, now time.Time) (*Code, error) {
	match := lookup(code, catalog)
	if match == nil || !match.Active {
		return nil, ErrNotFound
	}

	if now.Before(match.ValidFrom) || now.After(match.ValidUntil) {
		return nil, ErrExpired
	}

	if subtotal.LessThan(match.MinPurchase) {
		return nil, &MinPurchaseError{
			Code:     match.Code,
			Required: match.MinPurchase,
			Subtotal: subtotal,
		}
	}

	if match.UsageLimit > 0 && match.UsedCount >= match.UsageLimit {
		return nil, ErrUsageExhausted
	}

	return match, nil
}

func lookup(code string, catalog []Code) *Code {
	for i := range catalog {
		if strings.EqualFold(catalog[i].Code, code) {
			return &catalog[i]
		}
	}
	return nil
}
