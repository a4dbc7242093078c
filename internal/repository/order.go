package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vkuzmenko/storefront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (
		id, number, customer_name, customer_phone, customer_email, customer_address,
		delivery_type, items, subtotal, delivery_fee, discount, discount_code, total,
		status, payment_method, payment_status, notes, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	getOrderSQL = `SELECT id, number, customer_name, customer_phone, customer_email, customer_address,
		delivery_type, items, subtotal, delivery_fee, discount, discount_code, total,
		status, payment_method, payment_status, notes, created_at, updated_at, delivered_at
		FROM orders WHERE id = $1`

	updateOrderSQL = `UPDATE orders
		SET status = $2, payment_status = $3, updated_at = $4, delivered_at = $5
		WHERE id = $1`

	listOrdersSQL = `SELECT id, number, customer_name, customer_phone, customer_email, customer_address,
		delivery_type, items, subtotal, delivery_fee, discount, discount_code, total,
		status, payment_method, payment_status, notes, created_at, updated_at, delivered_at
		FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2`
)

const defaultListLimit = 100

// ErrOrderNotFound is returned when an order ID does not exist.
var ErrOrderNotFound = errors.New("order not found")

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. The line snapshots are serialized to JSON for
// storage in the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.Number,
		o.Customer.Name, o.Customer.Phone, o.Customer.Email, o.Customer.Address,
		o.DeliveryType, itemsJSON,
		o.Subtotal, o.DeliveryFee, o.Discount, o.DiscountCode, o.Total,
		string(o.Status), string(o.PaymentMethod), string(o.PaymentStatus),
		o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.Number)
	}
	return nil
}

// Get returns one order by ID, or ErrOrderNotFound.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return &o, nil
}

// Update persists the mutable lifecycle fields of an order. Pricing and line
// snapshots are immutable after creation and are deliberately not written.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.ID, string(o.Status), string(o.PaymentStatus), o.UpdatedAt, o.DeliveredAt,
	)
	if err != nil {
		return errors.Wrapf(err, "update order %q", o.ID)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// List returns orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter order.ListFilter) ([]order.Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.pool.Query(ctx, listOrdersSQL, string(filter.Status), limit)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		itemsJSON     []byte
		status        string
		paymentMethod string
		paymentStatus string
		deliveredAt   *time.Time
		subtotal      decimal.Decimal
		deliveryFee   decimal.Decimal
		discountAmt   decimal.Decimal
		total         decimal.Decimal
	)

	err := row.Scan(
		&o.ID, &o.Number,
		&o.Customer.Name, &o.Customer.Phone, &o.Customer.Email, &o.Customer.Address,
		&o.DeliveryType, &itemsJSON,
		&subtotal, &deliveryFee, &discountAmt, &o.DiscountCode, &total,
		&status, &paymentMethod, &paymentStatus,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt, &deliveredAt,
	)
	if err != nil {
		return order.Order{}, err
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return order.Order{}, errors.Wrap(err, "unmarshal order items")
	}

	o.Subtotal = subtotal
	o.DeliveryFee = deliveryFee
	o.Discount = discountAmt
	o.Total = total
	o.Status = order.Status(status)
	o.PaymentMethod = order.PaymentMethod(paymentMethod)
	o.PaymentStatus = order.PaymentStatus(paymentStatus)
	o.DeliveredAt = deliveredAt
	return o, nil
}
