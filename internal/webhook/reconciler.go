// Package webhook turns verified payment-provider events into order state.
//
// The reconciler is idempotent by construction: order creation is keyed on
// the order id minted at session creation (the store's uniqueness constraint
// rejects redelivered "completed" events) and async events are rejected when
// their id is already in the order's ledger. The provider delivers at least
// once; this package makes every redelivery a safe no-op.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/storefront-go/checkout/internal/checkout"
	"github.com/storefront-go/checkout/internal/money"
	"github.com/storefront-go/checkout/internal/order"
)

// ErrMissingOrderID is returned when the retrieved session carries no order
// id in its metadata. It indicates a session created outside this module.
var ErrMissingOrderID = errors.New("webhook: session metadata has no order id")

// Outcome describes what applying an event did.
type Outcome string

const (
	// OutcomeOrderCreated: a completed event created the order.
	OutcomeOrderCreated Outcome = "order_created"

	// OutcomeStatusUpdated: an async event moved a pending order.
	OutcomeStatusUpdated Outcome = "status_updated"

	// OutcomeStatusUnchanged: the event was appended to the ledger but
	// the order was already terminal, so the status stayed.
	OutcomeStatusUnchanged Outcome = "status_unchanged"

	// OutcomeIgnored: the event type is not handled here.
	OutcomeIgnored Outcome = "ignored"
)

// Result reports the effect of one event application.
type Result struct {
	OrderID string
	Status  order.Status
	Outcome Outcome
}

// Reconciler applies provider events against the order store.
type Reconciler struct {
	store order.Store
	now   func() time.Time
}

func New(store order.Store) *Reconciler {
	return &Reconciler{store: store, now: time.Now}
}

// Apply processes one verified event together with the session retrieved for
// it. Expected idempotency signals pass through as order.ErrDuplicateOrder
// and order.ErrDuplicateEvent; order.ErrNotFound means an async event
// arrived for a session that never completed.
func (r *Reconciler) Apply(ctx context.Context, ev checkout.Event, sess *checkout.SessionSnapshot) (Result, error) {
	switch ev.Type {
	case checkout.EventSessionCompleted:
		return r.applyCompleted(ctx, ev, sess)
	case checkout.EventAsyncPaymentSucceeded, checkout.EventAsyncPaymentFailed:
		return r.applyAsync(ctx, ev, sess)
	default:
		// Unknown types are acknowledged and dropped so the provider
		// stops redelivering them.
		slog.InfoContext(ctx, "ignoring webhook event", "event_id", ev.ID, "type", ev.Type)
		return Result{Outcome: OutcomeIgnored}, nil
	}
}

// applyCompleted creates the order from a full snapshot of the session. The
// store's identity constraint, not event-id bookkeeping, is what makes this
// idempotent: a redelivered completed event fails with ErrDuplicateOrder.
func (r *Reconciler) applyCompleted(ctx context.Context, ev checkout.Event, sess *checkout.SessionSnapshot) (Result, error) {
	orderID := sess.OrderID()
	if orderID == "" {
		return Result{}, ErrMissingOrderID
	}

	o, err := r.buildOrder(orderID, ev, sess)
	if err != nil {
		return Result{}, err
	}

	if err := r.store.Create(ctx, o); err != nil {
		return Result{}, err
	}

	slog.InfoContext(ctx, "order created",
		"order_id", orderID,
		"status", o.Status,
		"event_id", ev.ID,
		"payment_status", sess.PaymentStatus,
	)
	return Result{OrderID: orderID, Status: o.Status, Outcome: OutcomeOrderCreated}, nil
}

// applyAsync appends the event to an existing order's ledger and moves the
// status. An async event never creates an order, and a terminal status is
// never left: late events are recorded but cannot flip a settled order.
func (r *Reconciler) applyAsync(ctx context.Context, ev checkout.Event, sess *checkout.SessionSnapshot) (Result, error) {
	orderID := sess.OrderID()
	if orderID == "" {
		return Result{}, ErrMissingOrderID
	}

	existing, err := r.store.Find(ctx, orderID)
	if err != nil {
		return Result{}, err
	}
	if existing.HasEvent(ev.ID) {
		return Result{}, order.ErrDuplicateEvent
	}

	next := existing.Status
	outcome := OutcomeStatusUnchanged
	if !existing.Status.Terminal() {
		if ev.Type == checkout.EventAsyncPaymentSucceeded {
			next = order.StatusPaid
		} else {
			next = order.StatusFailed
		}
		outcome = OutcomeStatusUpdated
	}

	record := eventRecord(ev, sess)
	if err := r.store.AppendEventIfAbsent(ctx, orderID, record, next); err != nil {
		return Result{}, err
	}

	slog.InfoContext(ctx, "order event applied",
		"order_id", orderID,
		"event_id", ev.ID,
		"type", ev.Type,
		"status", next,
		"outcome", outcome,
	)
	return Result{OrderID: orderID, Status: next, Outcome: outcome}, nil
}

func (r *Reconciler) buildOrder(orderID string, ev checkout.Event, sess *checkout.SessionSnapshot) (*order.Order, error) {
	currency := strings.ToUpper(sess.Currency)
	symbol, _ := money.Symbol(currency)

	lineItems := make([]order.LineItem, 0, len(sess.LineItems))
	for _, li := range sess.LineItems {
		price, err := money.FromMinorUnit(li.UnitAmountMinor, currency)
		if err != nil {
			return nil, fmt.Errorf("webhook: line item %q: %w", li.Name, err)
		}
		subtotal, _ := money.FromMinorUnit(li.SubtotalMinor, currency)
		discount, _ := money.FromMinorUnit(li.DiscountMinor, currency)
		total, _ := money.FromMinorUnit(li.TotalMinor, currency)

		lineItems = append(lineItems, order.LineItem{
			ProductID:   li.ProductID,
			Name:        li.Name,
			Description: li.Description,
			Price:       price,
			Quantity:    li.Quantity,
			Subtotal:    subtotal,
			Discount:    discount,
			Total:       total,
		})
	}

	subtotal, err := money.FromMinorUnit(sess.AmountSubtotalMinor, currency)
	if err != nil {
		return nil, fmt.Errorf("webhook: session %q: %w", sess.ID, err)
	}
	discount, _ := money.FromMinorUnit(sess.AmountDiscountMinor, currency)
	shipping, _ := money.FromMinorUnit(sess.AmountShippingMinor, currency)
	total, _ := money.FromMinorUnit(sess.AmountTotalMinor, currency)

	o := &order.Order{
		ID:              orderID,
		Status:          order.StatusPending,
		Currency:        currency,
		CurrencySymbol:  symbol,
		CreatedAt:       r.now(),
		PaymentMethod:   paymentMethodLabel(sess),
		PaymentIntentID: sess.PaymentIntentID,
		LineItems:       lineItems,
		ShippingOption:  sess.ShippingOptionName,
		TaxID:           convertTaxID(sess.TaxID),
		CustomFields:    convertCustomFields(sess.CustomFields),
		SubtotalAmount:  subtotal,
		DiscountAmount:  discount,
		ShippingAmount:  shipping,
		TotalAmount:     total,
		Events:          []order.Event{eventRecord(ev, sess)},
	}

	if sess.Customer != nil {
		o.Customer = order.Customer{
			Email: sess.Customer.Email,
			Name:  sess.Customer.Name,
			Phone: sess.Customer.Phone,
		}
		// Billing details are only meaningful when the billing address
		// carries a country; the customer contact is kept regardless.
		if sess.Customer.Address != nil && sess.Customer.Address.Country != "" {
			o.BillingDetails = &order.ShippingDetails{
				Name:    sess.Customer.Name,
				Address: convertAddress(*sess.Customer.Address),
			}
		}
	}
	if sess.Shipping != nil {
		o.ShippingDetails = &order.ShippingDetails{
			Name:    sess.Shipping.Name,
			Address: convertAddress(sess.Shipping.Address),
		}
	}

	// Anything other than unpaid settles the order immediately. That
	// covers paid sessions and no-cost sessions alike; unpaid means an
	// async payment method will report back later.
	if sess.PaymentStatus != checkout.PaymentStatusUnpaid {
		o.Status = order.StatusPaid
		paidAt := r.now()
		o.PaidAt = &paidAt
	}

	return o, nil
}

func eventRecord(ev checkout.Event, sess *checkout.SessionSnapshot) order.Event {
	return order.Event{
		ID:            ev.ID,
		Type:          string(ev.Type),
		PaymentStatus: sess.PaymentStatus,
		Message:       sess.LastPaymentError,
		OccurredAt:    ev.CreatedAt,
	}
}

// paymentMethodLabel derives a display name from the payment method type:
// "apple_pay" becomes "Apple Pay". Sessions with no payment intent were
// no-cost orders.
func paymentMethodLabel(sess *checkout.SessionSnapshot) string {
	methodType := sess.PaymentMethodType
	if sess.PaymentIntentID == "" {
		methodType = "no_cost"
	}
	if methodType == "" {
		return ""
	}

	words := strings.Split(methodType, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func convertAddress(a checkout.Address) order.Address {
	return order.Address{
		Country:    a.Country,
		Line1:      a.Line1,
		Line2:      a.Line2,
		PostalCode: a.PostalCode,
		City:       a.City,
		State:      a.State,
	}
}

func convertTaxID(t *checkout.TaxID) *order.TaxID {
	if t == nil {
		return nil
	}
	return &order.TaxID{Type: t.Type, Value: t.Value}
}

func convertCustomFields(fields []checkout.CustomField) []order.CustomField {
	if len(fields) == 0 {
		return nil
	}
	out := make([]order.CustomField, len(fields))
	for i, f := range fields {
		out[i] = order.CustomField{Key: f.Key, Name: f.Name, Value: f.Value}
	}
	return out
}
