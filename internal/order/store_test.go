package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder(id string) *Order {
	return &Order{
		ID:       id,
		Status:   StatusPending,
		Currency: "EUR",
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Customer: Customer{Email: "shopper@example.test"},
		LineItems: []LineItem{{
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
		Events: []Event{{
			ID:            "evt_1",
			Type:          "checkout.session.completed",
			PaymentStatus: "unpaid",
			OccurredAt:    time.Date(2026, 3, 1, 10, 0, 1, 0, time.UTC),
		}},
	}
}

func TestMemoryStore_CreateAndFind(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleOrder("ord-1")))

	got, err := store.Find(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Len(t, got.Events, 1)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("20.00")))

	_, err = store.Find(ctx, "ord-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CreateDuplicate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleOrder("ord-1")))
	assert.ErrorIs(t, store.Create(ctx, sampleOrder("ord-1")), ErrDuplicateOrder)

	// The original is untouched.
	got, err := store.Find(ctx, "ord-1")
	require.NoError(t, err)
	assert.Len(t, got.Events, 1)
}

func TestMemoryStore_AppendEventIfAbsent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, sampleOrder("ord-1")))

	ev := Event{
		ID:            "evt_2",
		Type:          "checkout.session.async_payment_succeeded",
		PaymentStatus: "paid",
		OccurredAt:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.AppendEventIfAbsent(ctx, "ord-1", ev, StatusPaid))

	got, err := store.Find(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.Status)
	require.Len(t, got.Events, 2)
	assert.Equal(t, "evt_2", got.Events[1].ID)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, ev.OccurredAt, *got.PaidAt)

	// Same event id again: no append, no status change.
	err = store.AppendEventIfAbsent(ctx, "ord-1", ev, StatusFailed)
	assert.ErrorIs(t, err, ErrDuplicateEvent)

	got, err = store.Find(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.Status)
	assert.Len(t, got.Events, 2)

	// Unknown order.
	err = store.AppendEventIfAbsent(ctx, "ord-missing", Event{ID: "evt_9"}, StatusPaid)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ReturnsDetachedCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	o := sampleOrder("ord-1")
	o.ShippingDetails = &ShippingDetails{Name: "Jane", Address: Address{Country: "PT", City: "Lisboa"}}
	o.BillingDetails = &ShippingDetails{Name: "Jane", Address: Address{Country: "PT", City: "Lisboa"}}
	o.TaxID = &TaxID{Type: "eu_vat", Value: "PT123456789"}
	require.NoError(t, store.Create(ctx, o))

	// Mutating the caller's order after Create must not reach the store.
	o.ShippingDetails.Address.City = "Porto"
	o.TaxID.Value = "PT000000000"

	got, err := store.Find(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "Lisboa", got.ShippingDetails.Address.City)
	assert.Equal(t, "PT123456789", got.TaxID.Value)

	// Same through a found order's pointer fields.
	got.BillingDetails.Address.Country = "ES"
	got.Events[0].PaymentStatus = "paid"

	again, err := store.Find(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "PT", again.BillingDetails.Address.Country)
	assert.Equal(t, "unpaid", again.Events[0].PaymentStatus)
}

func TestMemoryStore_SetStatus(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, sampleOrder("ord-1")))

	require.NoError(t, store.SetStatus(ctx, "ord-1", StatusFailed))
	got, err := store.Find(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Nil(t, got.PaidAt)

	assert.ErrorIs(t, store.SetStatus(ctx, "ord-missing", StatusPaid), ErrNotFound)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusPaid.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestOrderHasEvent(t *testing.T) {
	o := sampleOrder("ord-1")
	assert.True(t, o.HasEvent("evt_1"))
	assert.False(t, o.HasEvent("evt_2"))
}
