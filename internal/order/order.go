// Package order defines the persisted order model and the store port the
// webhook reconciler drives. An order is created exactly once per checkout
// session, then only mutated by appending provider events and moving its
// status; its snapshot fields are immutable after creation.
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order. Pending orders move to paid or
// failed; both are terminal for this module (refunds and disputes are
// downstream concerns).
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

// Terminal reports whether no further status transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusFailed
}

// Event is one entry of an order's append-only provider-event ledger.
// Event ids are unique within an order; the ledger is the duplicate
// suppression record for webhook redeliveries.
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	PaymentStatus string    `json:"payment_status"`
	Message       string    `json:"message,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// LineItem is one purchased line, amounts in major units.
type LineItem struct {
	ProductID   string          `json:"product_id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

type Customer struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Address struct {
	Country    string `json:"country,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
}

type ShippingDetails struct {
	Name    string  `json:"name,omitempty"`
	Address Address `json:"address"`
}

type TaxID struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type CustomField struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Order is the full snapshot persisted on the first completed event of a
// checkout session. ID is the order id minted at session creation, not the
// provider's session id.
type Order struct {
	ID     string `json:"id"`
	Status Status `json:"status"`

	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currency_symbol,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`

	Customer        Customer         `json:"customer"`
	PaymentMethod   string           `json:"payment_method,omitempty"`
	PaymentIntentID string           `json:"payment_intent_id,omitempty"`
	LineItems       []LineItem       `json:"line_items"`
	ShippingDetails *ShippingDetails `json:"shipping_details,omitempty"`
	ShippingOption  string           `json:"shipping_option,omitempty"`
	BillingDetails  *ShippingDetails `json:"billing_details,omitempty"`
	TaxID           *TaxID           `json:"tax_id,omitempty"`
	CustomFields    []CustomField    `json:"custom_fields,omitempty"`

	SubtotalAmount decimal.Decimal `json:"subtotal_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`

	Events []Event `json:"events"`
}

// HasEvent reports whether the event id is already in the ledger.
func (o *Order) HasEvent(eventID string) bool {
	for _, ev := range o.Events {
		if ev.ID == eventID {
			return true
		}
	}
	return false
}
