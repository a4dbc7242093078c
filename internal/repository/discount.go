package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vkuzmenko/storefront/internal/domain/discount"
	"github.com/vkuzmenko/storefront/internal/domain/order"
)

const (
	listDiscountCodesSQL = `SELECT code, discount_type, value, min_purchase, max_discount,
		valid_from, valid_until, active, usage_limit, used_count
		FROM discount_codes`

	// The increment is guarded so two concurrent checkouts cannot push
	// used_count past the limit; the loser sees zero rows affected.
	consumeUsageSQL = `UPDATE discount_codes
		SET used_count = used_count + 1
		WHERE UPPER(code) = UPPER($1)
		  AND (usage_limit = 0 OR used_count < usage_limit)`
)

var _ order.UsageConsumer = (*DiscountRepository)(nil)

// DiscountRepository manages the discount code catalog.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// List returns the full discount code catalog.
func (r *DiscountRepository) List(ctx context.Context) ([]discount.Code, error) {
	rows, err := r.pool.Query(ctx, listDiscountCodesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list discount codes")
	}

	codes, err := pgx.CollectRows(rows, scanDiscountCode)
	if err != nil {
		return nil, errors.Wrap(err, "list discount codes")
	}
	return codes, nil
}

// ConsumeUsage records one use of the code. It fails with ErrUsageExhausted
// when a concurrent checkout took the last remaining use.
func (r *DiscountRepository) ConsumeUsage(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, consumeUsageSQL, code)
	if err != nil {
		return errors.Wrapf(err, "consume usage for code %q", code)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrUsageExhausted
	}
	return nil
}

func scanDiscountCode(row pgx.CollectableRow) (discount.Code, error) {
	var (
		c            discount.Code
		discountType string
		usageLimit   int32
		usedCount    int32
	)
	err := row.Scan(
		&c.Code, &discountType, &c.Value, &c.MinPurchase, &c.MaxDiscount,
		&c.ValidFrom, &c.ValidUntil, &c.Active, &usageLimit, &usedCount,
	)
	c.Type = discount.Type(discountType)
	c.UsageLimit = int(usageLimit)
	c.UsedCount = int(usedCount)
	return c, err
}
