// Command seed-db prepares a storefront database for local development: it
// runs migrations, sets store settings, and upserts discount codes and
// notification channels from a JSON file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vkuzmenko/storefront/internal/repository"
)

type seedFile struct {
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	BotToken    string          `json:"bot_token"`
	Discounts   []discountJSON  `json:"discounts"`
	Channels    []channelJSON   `json:"channels"`
}

type discountJSON struct {
	Code        string          `json:"code"`
	Type        string          `json:"type"`
	Value       decimal.Decimal `json:"value"`
	MinPurchase decimal.Decimal `json:"min_purchase"`
	MaxDiscount decimal.Decimal `json:"max_discount"`
	ValidFrom   time.Time       `json:"valid_from"`
	ValidUntil  time.Time       `json:"valid_until"`
	Active      bool            `json:"active"`
	UsageLimit  int             `json:"usage_limit"`
}

type channelJSON struct {
	ChatID      string   `json:"chat_id"`
	Name        string   `json:"name"`
	Enabled     bool     `json:"enabled"`
	Permissions []string `json:"permissions"`
}

func main() {
	var (
		databaseURL string
		seedPath    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedPath, "seed-file", "db/seed/storefront.json", "path to seed JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, seedPath); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, seedPath string) error {
	slog.Info("reading seed file", slog.String("path", seedPath))

	data, err := os.ReadFile(seedPath)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "parse seed JSON")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedSettings(ctx, pool, seed); err != nil {
		return errors.Wrap(err, "seed settings")
	}
	if err := seedDiscounts(ctx, pool, seed.Discounts); err != nil {
		return errors.Wrap(err, "seed discount codes")
	}
	if err := seedChannels(ctx, pool, seed.Channels); err != nil {
		return errors.Wrap(err, "seed notification channels")
	}

	return nil
}

func seedSettings(ctx context.Context, pool *pgxpool.Pool, seed seedFile) error {
	slog.Info("updating store settings", slog.String("delivery_fee", seed.DeliveryFee.String()))

	_, err := pool.Exec(ctx, `
		INSERT INTO store_settings (id, delivery_fee, bot_token)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET delivery_fee = $1, bot_token = $2`,
		seed.DeliveryFee, seed.BotToken,
	)
	return err
}

func seedDiscounts(ctx context.Context, pool *pgxpool.Pool, discounts []discountJSON) error {
	slog.Info("upserting discount codes", slog.Int("count", len(discounts)))

	for _, d := range discounts {
		_, err := pool.Exec(ctx, `
			INSERT INTO discount_codes
				(code, discount_type, value, min_purchase, max_discount,
				 valid_from, valid_until, active, usage_limit)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (code) DO UPDATE SET
				discount_type = $2, value = $3, min_purchase = $4,
				max_discount = $5, valid_from = $6, valid_until = $7,
				active = $8, usage_limit = $9`,
			d.Code, d.Type, d.Value, d.MinPurchase, d.MaxDiscount,
			d.ValidFrom, d.ValidUntil, d.Active, d.UsageLimit,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert code %s", d.Code)
		}

		slog.Info("upserted discount code", slog.String("code", d.Code), slog.String("type", d.Type))
	}
	return nil
}

func seedChannels(ctx context.Context, pool *pgxpool.Pool, channels []channelJSON) error {
	slog.Info("replacing notification channels", slog.Int("count", len(channels)))

	// Channels carry no natural key, so reseeding replaces the whole set.
	if _, err := pool.Exec(ctx, `DELETE FROM notification_channels`); err != nil {
		return errors.Wrap(err, "clear channels")
	}

	for _, c := range channels {
		perms := map[string]bool{}
		for _, p := range c.Permissions {
			perms[p] = true
		}

		_, err := pool.Exec(ctx, `
			INSERT INTO notification_channels
				(id, chat_id, name, enabled,
				 perm_orders, perm_order_status, perm_messages, perm_reviews, perm_contact)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.NewString(), c.ChatID, c.Name, c.Enabled,
			perms["orders"], perms["order_status"], perms["messages"],
			perms["reviews"], perms["contact"],
		)
		if err != nil {
			return errors.Wrapf(err, "insert channel %s", c.Name)
		}

		slog.Info("inserted channel", slog.String("name", c.Name), slog.String("chat_id", c.ChatID))
	}
	return nil
}
