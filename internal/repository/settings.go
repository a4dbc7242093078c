package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vkuzmenko/storefront/internal/domain/settings"
	"github.com/vkuzmenko/storefront/internal/notify"
)

const (
	getStoreSettingsSQL = `SELECT delivery_fee, bot_token FROM store_settings WHERE id = 1`

	listChannelsSQL = `SELECT id, chat_id, name, enabled,
		perm_orders, perm_order_status, perm_messages, perm_reviews, perm_contact
		FROM notification_channels`
)

var _ settings.Provider = (*SettingsRepository)(nil)

// SettingsRepository assembles the settings snapshot from the settings row,
// the discount catalog, and the channel table. Each Get is a fresh read.
type SettingsRepository struct {
	pool      *pgxpool.Pool
	discounts *DiscountRepository
}

// NewSettingsRepository returns a SettingsRepository that uses the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{
		pool:      pool,
		discounts: NewDiscountRepository(pool),
	}
}

// Get returns the current settings snapshot.
func (r *SettingsRepository) Get(ctx context.Context) (*settings.Settings, error) {
	var snap settings.Settings

	err := r.pool.QueryRow(ctx, getStoreSettingsSQL).Scan(&snap.DeliveryFee, &snap.BotToken)
	if err != nil {
		return nil, errors.Wrap(err, "get store settings")
	}

	snap.DiscountCodes, err = r.discounts.List(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, listChannelsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list notification channels")
	}
	snap.Channels, err = pgx.CollectRows(rows, scanChannel)
	if err != nil {
		return nil, errors.Wrap(err, "list notification channels")
	}

	return &snap, nil
}

func scanChannel(row pgx.CollectableRow) (notify.Channel, error) {
	var ch notify.Channel
	err := row.Scan(
		&ch.ID, &ch.ChatID, &ch.Name, &ch.Enabled,
		&ch.Permissions.Orders, &ch.Permissions.OrderStatus,
		&ch.Permissions.Messages, &ch.Permissions.Reviews, &ch.Permissions.Contact,
	)
	return ch, err
}
