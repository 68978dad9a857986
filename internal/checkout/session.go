package checkout

import (
	"context"
	"time"
)

// MetadataOrderID is the metadata key carrying the order id minted at
// session-creation time. It is the join key between the checkout session and
// the eventual order, independent of the provider's session id.
const MetadataOrderID = "order_id"

// Event types delivered by the provider's webhooks.
type EventType string

const (
	EventSessionCompleted      EventType = "checkout.session.completed"
	EventAsyncPaymentSucceeded EventType = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed    EventType = "checkout.session.async_payment_failed"
)

// Payment statuses a session reports. Anything other than unpaid means the
// order is settled — including no_payment_required for zero-amount sessions.
const (
	PaymentStatusPaid              = "paid"
	PaymentStatusUnpaid            = "unpaid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
)

// Event is a verified payment-provider webhook event.
type Event struct {
	ID        string
	Type      EventType
	SessionID string
	CreatedAt time.Time
}

// SessionRequest is the provider-agnostic checkout intent built from a cart.
// It is immutable once built; the gateway adapter translates it to the
// provider's wire format.
type SessionRequest struct {
	Mode     string // always "payment"
	UIMode   UIMode
	Metadata map[string]string

	LineItems []LineItem

	SuccessURL string // hosted
	CancelURL  string // hosted
	ReturnURL  string // embedded

	ShippingAllowedCountries []string
	ShippingRates            []ShippingRate
}

// OrderID returns the order id minted for this request.
func (r *SessionRequest) OrderID() string {
	return r.Metadata[MetadataOrderID]
}

// LineItem is one priced entry of a session request, amounts in minor units.
// ProductID travels through the provider as product metadata so retrieved
// sessions can be joined back to catalog entries.
type LineItem struct {
	Currency           string
	UnitAmountMinor    int64
	ProductID          string
	ProductName        string
	ProductImages      []string
	ProductDescription string
	Quantity           int
}

// ShippingRate is one selectable shipping option, amount in minor units.
type ShippingRate struct {
	DisplayName      string
	Currency         string
	AmountMinor      int64
	DeliveryEstimate *DeliveryEstimate
}

// DeliveryEstimate bounds the expected delivery time. Minimum and maximum
// are independently optional.
type DeliveryEstimate struct {
	Minimum *EstimateBound
	Maximum *EstimateBound
}

// EstimateBound is one end of a delivery estimate, e.g. {Unit: "business_day",
// Value: 5}.
type EstimateBound struct {
	Unit  string `json:"unit"`
	Value int    `json:"value"`
}

// CreatedSession is the provider's answer to CreateSession.
type CreatedSession struct {
	ID           string
	URL          string // hosted: redirect target
	ClientSecret string // embedded: handed to the provider's JS
}

// SessionSnapshot is the session as retrieved from the provider with
// expanded line items, customer, shipping and payment-intent data. All
// amounts are minor units in the session's currency.
type SessionSnapshot struct {
	ID            string
	Currency      string
	PaymentStatus string
	Metadata      map[string]string

	AmountSubtotalMinor int64
	AmountDiscountMinor int64
	AmountShippingMinor int64
	AmountTotalMinor    int64

	LineItems []SnapshotLineItem

	Customer           *CustomerDetails
	Shipping           *ShippingDetails
	ShippingOptionName string

	PaymentIntentID   string
	PaymentMethodType string
	LastPaymentError  string

	TaxID        *TaxID
	CustomFields []CustomField
}

// OrderID returns the order id round-tripped through the provider.
func (s *SessionSnapshot) OrderID() string {
	return s.Metadata[MetadataOrderID]
}

// SnapshotLineItem is one expanded line of a retrieved session.
type SnapshotLineItem struct {
	ProductID       string
	Name            string
	Description     string
	UnitAmountMinor int64
	Quantity        int
	SubtotalMinor   int64
	DiscountMinor   int64
	TotalMinor      int64
}

// CustomerDetails always carries the billing contact, even for no-cost
// sessions with no payment intent.
type CustomerDetails struct {
	Email   string
	Name    string
	Phone   string
	Address *Address
}

// ShippingDetails is where the order ships to.
type ShippingDetails struct {
	Name    string
	Address Address
}

type Address struct {
	Country    string
	Line1      string
	Line2      string
	PostalCode string
	City       string
	State      string
}

type TaxID struct {
	Type  string
	Value string
}

// CustomField is a free-text field the shopper filled in at checkout.
type CustomField struct {
	Key   string
	Name  string
	Value string
}

// PaymentGateway creates and retrieves checkout sessions and verifies
// webhook deliveries. Implementations wrap the provider's API; callers own
// timeout and retry policy on the context they pass in.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req *SessionRequest) (CreatedSession, error)
	RetrieveSession(ctx context.Context, sessionID string, expand []string) (*SessionSnapshot, error)
	VerifyWebhook(payload []byte, signatureHeader string) (Event, error)
}
