package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-go/checkout/internal/order"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleOrder(id string) *order.Order {
	return &order.Order{
		ID:        id,
		Status:    order.StatusPending,
		Currency:  "EUR",
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Customer:  order.Customer{Email: "shopper@example.test", Name: "Ana"},
		LineItems: []order.LineItem{{
			Name:     "Running Shoes",
			Price:    decimal.RequireFromString("10.00"),
			Quantity: 2,
			Subtotal: decimal.RequireFromString("20.00"),
			Discount: decimal.Zero,
			Total:    decimal.RequireFromString("20.00"),
		}},
		SubtotalAmount: decimal.RequireFromString("20.00"),
		DiscountAmount: decimal.Zero,
		ShippingAmount: decimal.Zero,
		TotalAmount:    decimal.RequireFromString("20.00"),
		Events: []order.Event{{
			ID:            "evt_1",
			Type:          "checkout.session.completed",
			PaymentStatus: "unpaid",
			OccurredAt:    time.Date(2026, 3, 1, 10, 0, 1, 0, time.UTC),
		}},
	}
}

func TestCreateAndFind(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleOrder("ord-1")))

	got, err := store.Find(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", got.ID)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, "shopper@example.test", got.Customer.Email)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("20.00")))
	require.Len(t, got.Events, 1)
	assert.Equal(t, "evt_1", got.Events[0].ID)
	assert.Nil(t, got.PaidAt)
}

func TestFind_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Find(context.Background(), "nope")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestCreate_DuplicateOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleOrder("ord-1")))
	assert.ErrorIs(t, store.Create(ctx, sampleOrder("ord-1")), order.ErrDuplicateOrder)

	// The failed second insert rolled back without touching the ledger.
	got, err := store.Find(ctx, "ord-1")
	require.NoError(t, err)
	assert.Len(t, got.Events, 1)
}

func TestAppendEventIfAbsent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, sampleOrder("ord-1")))

	ev := order.Event{
		ID:            "evt_2",
		Type:          "checkout.session.async_payment_succeeded",
		PaymentStatus: "paid",
		OccurredAt:    time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, store.AppendEventIfAbsent(ctx, "ord-1", ev, order.StatusPaid))

	got, err := store.Find(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, got.Status)
	require.Len(t, got.Events, 2)
	assert.Equal(t, "evt_2", got.Events[1].ID)
	assert.Equal(t, ev.OccurredAt, got.Events[1].OccurredAt)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, ev.OccurredAt, *got.PaidAt)
}

func TestAppendEventIfAbsent_Duplicate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, sampleOrder("ord-1")))

	ev := order.Event{ID: "evt_2", Type: "checkout.session.async_payment_failed", OccurredAt: time.Now()}
	require.NoError(t, store.AppendEventIfAbsent(ctx, "ord-1", ev, order.StatusFailed))

	// Redelivery: same event id must change nothing, including status.
	err := store.AppendEventIfAbsent(ctx, "ord-1", ev, order.StatusPaid)
	assert.ErrorIs(t, err, order.ErrDuplicateEvent)

	got, err := store.Find(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusFailed, got.Status)
	assert.Len(t, got.Events, 2)
}

func TestAppendEventIfAbsent_OrderNotFound(t *testing.T) {
	store := openTestStore(t)

	err := store.AppendEventIfAbsent(context.Background(), "nope", order.Event{ID: "evt_1", OccurredAt: time.Now()}, order.StatusPaid)
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestSetStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, sampleOrder("ord-1")))

	require.NoError(t, store.SetStatus(ctx, "ord-1", order.StatusPaid))

	got, err := store.Find(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, got.Status)
	assert.NotNil(t, got.PaidAt)

	assert.ErrorIs(t, store.SetStatus(ctx, "nope", order.StatusPaid), order.ErrNotFound)
}

func TestPaidAtWrittenOnce(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, sampleOrder("ord-1")))

	first := order.Event{ID: "evt_2", Type: "x", OccurredAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, store.AppendEventIfAbsent(ctx, "ord-1", first, order.StatusPaid))

	second := order.Event{ID: "evt_3", Type: "x", OccurredAt: time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, store.AppendEventIfAbsent(ctx, "ord-1", second, order.StatusPaid))

	got, err := store.Find(ctx, "ord-1")
	require.NoError(t, err)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, first.OccurredAt, *got.PaidAt)
}
