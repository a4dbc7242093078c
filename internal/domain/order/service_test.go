package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vkuzmenko/storefront/internal/domain/discount"
	"github.com/vkuzmenko/storefront/internal/domain/pricing"
	"github.com/vkuzmenko/storefront/internal/domain/settings"
)

type mockOrderRepo struct {
	mu        sync.Mutex
	created   []*Order
	stored    map[string]*Order
	createErr error
	updateErr error
	getErr    error
	updated   []*Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{stored: make(map[string]*Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, o)
	m.stored[o.ID] = o
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	o, ok := m.stored[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, o)
	m.stored[o.ID] = o
	return nil
}

func (m *mockOrderRepo) List(_ context.Context, _ ListFilter) ([]Order, error) {
	return nil, nil
}

type mockUsage struct {
	mu       sync.Mutex
	consumed []string
	err      error
}

func (m *mockUsage) ConsumeUsage(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.consumed = append(m.consumed, code)
	return nil
}

func (m *mockUsage) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.consumed...)
}

type mockSettings struct {
	snap *settings.Settings
	err  error
}

func (m *mockSettings) Get(_ context.Context) (*settings.Settings, error) {
	return m.snap, m.err
}

// mockNotifier records events; done is closed after the first event of each
// kind so tests can wait for the fire-and-forget goroutine.
type mockNotifier struct {
	mu      sync.Mutex
	placed  []*Order
	changed []*Order
	oldStat []Status
	done    chan struct{}
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{done: make(chan struct{}, 2)}
}

func (m *mockNotifier) OrderPlaced(_ context.Context, o *Order, _ *settings.Settings) {
	m.mu.Lock()
	m.placed = append(m.placed, o)
	m.mu.Unlock()
	m.done <- struct{}{}
}

func (m *mockNotifier) StatusChanged(_ context.Context, o *Order, old Status, _ *settings.Settings) {
	m.mu.Lock()
	m.changed = append(m.changed, o)
	m.oldStat = append(m.oldStat, old)
	m.mu.Unlock()
	m.done <- struct{}{}
}

func (m *mockNotifier) wait(t *testing.T) {
	t.Helper()
	select {
	case <-m.done:
	case <-time.After(time.Second):
		t.Fatal("notification was never fired")
	}
}

func testSnapshot() *settings.Settings {
	return &settings.Settings{
		DeliveryFee: decimal.RequireFromString("5.00"),
		DiscountCodes: []discount.Code{{
			Code:       "SAVE10",
			Type:       discount.TypePercentage,
			Value:      decimal.NewFromInt(10),
			ValidFrom:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			ValidUntil: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Active:     true,
		}},
	}
}

func newTestService(repo *mockOrderRepo, usage *mockUsage, sp *mockSettings, n *mockNotifier) *Service {
	s := NewService(repo, usage, sp, nil, zap.NewNop())
	s.notify = n
	s.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return s
}

func validRequest() CheckoutRequest {
	return CheckoutRequest{
		Customer: Customer{Name: "Jamie", Phone: "+15550100", Address: "1 Main St"},
		Lines: []pricing.CartLine{
			{ProductID: "p1", Name: "Beans", UnitPrice: decimal.NewFromInt(100), Quantity: 2},
		},
		DeliveryType:  pricing.DeliveryCourier,
		PaymentMethod: PaymentCash,
	}
}

func TestCheckout(t *testing.T) {
	repo := newMockOrderRepo()
	usage := &mockUsage{}
	notifier := newMockNotifier()
	svc := newTestService(repo, usage, &mockSettings{snap: testSnapshot()}, notifier)

	req := validRequest()
	req.DiscountCode = "save10"

	o, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, "SAVE10", o.DiscountCode)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(200)), "subtotal %s", o.Subtotal)
	assert.True(t, o.Discount.Equal(decimal.NewFromInt(20)), "discount %s", o.Discount)
	assert.True(t, o.DeliveryFee.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, o.Total.Equal(decimal.NewFromInt(185)), "total %s", o.Total)
	assert.Regexp(t, `^ORD-20250615-[0-9A-F]{6}$`, o.Number)

	require.Len(t, repo.created, 1)
	assert.Equal(t, []string{"SAVE10"}, usage.all())

	notifier.wait(t)
	require.Len(t, notifier.placed, 1)
	assert.Equal(t, o.ID, notifier.placed[0].ID)
}

func TestCheckout_SnapshotFreezesPrices(t *testing.T) {
	repo := newMockOrderRepo()
	notifier := newMockNotifier()
	svc := newTestService(repo, &mockUsage{}, &mockSettings{snap: testSnapshot()}, notifier)

	req := validRequest()
	req.Lines = []pricing.CartLine{{
		ProductID: "p1", Name: "Beans", Image: "beans.jpg",
		UnitPrice: decimal.NewFromInt(100), DiscountPercent: decimal.NewFromInt(25),
		Quantity: 2,
	}}

	o, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	notifier.wait(t)

	require.Len(t, o.Items, 1)
	item := o.Items[0]
	assert.Equal(t, "Beans", item.Name)
	assert.Equal(t, "beans.jpg", item.Image)
	assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(75)), "unit %s", item.UnitPrice)
	assert.True(t, item.Subtotal.Equal(decimal.NewFromInt(150)), "line subtotal %s", item.Subtotal)
}

func TestCheckout_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CheckoutRequest)
		wantErr error
	}{
		{
			name:    "empty items",
			mutate:  func(r *CheckoutRequest) { r.Lines = nil },
			wantErr: ErrEmptyItems,
		},
		{
			name:    "missing customer name",
			mutate:  func(r *CheckoutRequest) { r.Customer.Name = "  " },
			wantErr: ErrMissingCustomer,
		},
		{
			name:    "missing phone",
			mutate:  func(r *CheckoutRequest) { r.Customer.Phone = "" },
			wantErr: ErrMissingCustomer,
		},
		{
			name:    "unknown discount code",
			mutate:  func(r *CheckoutRequest) { r.DiscountCode = "BOGUS" },
			wantErr: discount.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockOrderRepo()
			svc := newTestService(repo, &mockUsage{}, &mockSettings{snap: testSnapshot()}, newMockNotifier())

			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Checkout(context.Background(), req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.created, "nothing may be persisted on validation failure")
		})
	}
}

func TestCheckout_RepositoryFailureIsFatal(t *testing.T) {
	repo := newMockOrderRepo()
	repo.createErr = errors.New("connection refused")
	usage := &mockUsage{}
	notifier := newMockNotifier()
	svc := newTestService(repo, usage, &mockSettings{snap: testSnapshot()}, notifier)

	req := validRequest()
	req.DiscountCode = "SAVE10"

	_, err := svc.Checkout(context.Background(), req)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
	assert.Empty(t, usage.all(), "usage must not be consumed when the order did not commit")
	assert.Empty(t, notifier.placed)
}

func TestCheckout_UsageConsumeFailureDoesNotFailCheckout(t *testing.T) {
	repo := newMockOrderRepo()
	usage := &mockUsage{err: errors.New("db error")}
	notifier := newMockNotifier()
	svc := newTestService(repo, usage, &mockSettings{snap: testSnapshot()}, notifier)

	req := validRequest()
	req.DiscountCode = "SAVE10"

	o, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, o)
	notifier.wait(t)
}

func TestUpdateStatus(t *testing.T) {
	repo := newMockOrderRepo()
	notifier := newMockNotifier()
	svc := newTestService(repo, &mockUsage{}, &mockSettings{snap: testSnapshot()}, notifier)

	seed := &Order{ID: "o1", Number: "ORD-1", Status: StatusPending}
	repo.stored["o1"] = seed

	o, err := svc.UpdateStatus(context.Background(), "o1", StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, o.Status)
	require.Len(t, repo.updated, 1)

	notifier.wait(t)
	require.Len(t, notifier.changed, 1)
	assert.Equal(t, StatusPending, notifier.oldStat[0])
}

func TestUpdateStatus_TerminalOrder(t *testing.T) {
	repo := newMockOrderRepo()
	notifier := newMockNotifier()
	svc := newTestService(repo, &mockUsage{}, &mockSettings{snap: testSnapshot()}, notifier)

	repo.stored["o1"] = &Order{ID: "o1", Number: "ORD-1", Status: StatusDelivered}

	_, err := svc.UpdateStatus(context.Background(), "o1", StatusConfirmed)

	require.ErrorIs(t, err, ErrAlreadyFinalized)
	assert.Empty(t, repo.updated, "order must be left unchanged")
	assert.Empty(t, notifier.changed)
}

func TestUpdateStatus_UpdateFailureSkipsNotification(t *testing.T) {
	repo := newMockOrderRepo()
	repo.updateErr = errors.New("write failed")
	notifier := newMockNotifier()
	svc := newTestService(repo, &mockUsage{}, &mockSettings{snap: testSnapshot()}, notifier)

	repo.stored["o1"] = &Order{ID: "o1", Number: "ORD-1", Status: StatusPending}

	_, err := svc.UpdateStatus(context.Background(), "o1", StatusConfirmed)

	require.Error(t, err)
	assert.Empty(t, notifier.changed)
}
