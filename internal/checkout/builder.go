// Package checkout maps a cart plus shipping configuration into a
// provider-agnostic session-creation request. Building is deterministic:
// the only field that differs between two builds of the same cart is the
// freshly minted order id.
package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-go/checkout/internal/cart"
	"github.com/storefront-go/checkout/internal/money"
)

// ErrEmptyCart is returned when a session is requested for a cart with no
// items.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// ModePayment is the only session mode this storefront uses.
const ModePayment = "payment"

// ShippingConfig describes the storefront's shipping offer. When disabled,
// sessions are built without address collection or shipping options.
type ShippingConfig struct {
	Enabled          bool         `json:"enabled"`
	AllowedCountries []string     `json:"allowed_countries"`
	Rates            []RateConfig `json:"rates"`
}

// RateConfig is one configured shipping rate, amount in major units.
type RateConfig struct {
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	EstimateMin *EstimateBound  `json:"estimate_min,omitempty"`
	EstimateMax *EstimateBound  `json:"estimate_max,omitempty"`
}

// Builder turns carts into session requests.
type Builder struct {
	newOrderID func() string
}

// NewBuilder returns a Builder minting uuid order ids.
func NewBuilder() *Builder {
	return &Builder{newOrderID: uuid.NewString}
}

// Build produces the session-creation request for the cart. The caller
// hands the result to a PaymentGateway; creating the session with the
// provider is not the builder's concern.
func (b *Builder) Build(c *cart.Cart, shipping ShippingConfig, cfg Config) (*SessionRequest, error) {
	if c.TotalQuantity() == 0 {
		return nil, ErrEmptyCart
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	lineItems, err := buildLineItems(c)
	if err != nil {
		return nil, err
	}

	req := &SessionRequest{
		Mode:      ModePayment,
		UIMode:    cfg.UIMode(),
		LineItems: lineItems,
		Metadata: map[string]string{
			// Minted fresh per session; webhooks use it to join the
			// provider's events back to exactly one order.
			MetadataOrderID: b.newOrderID(),
		},
	}
	cfg.apply(req)

	if shipping.Enabled {
		if err := applyShipping(req, shipping, c.Currency()); err != nil {
			return nil, err
		}
	}

	return req, nil
}

func buildLineItems(c *cart.Cart) ([]LineItem, error) {
	currency := c.Currency()
	items := c.Items()
	lineItems := make([]LineItem, 0, len(items))

	for _, it := range items {
		unitAmount, err := money.ToMinorUnit(it.UnitPrice, currency)
		if err != nil {
			return nil, fmt.Errorf("checkout: line item %q: %w", it.Key, err)
		}

		li := LineItem{
			// The provider presents currencies in lowercase.
			Currency:        strings.ToLower(currency),
			UnitAmountMinor: unitAmount,
			ProductID:       it.ProductID,
			ProductName:     it.Name,
			Quantity:        it.Quantity,
		}
		if it.ThumbnailURL != "" {
			li.ProductImages = []string{it.ThumbnailURL}
		}
		li.ProductDescription = describeOptions(it.Options)

		lineItems = append(lineItems, li)
	}
	return lineItems, nil
}

// describeOptions joins options as "name: value" pairs separated by ", ".
// Returns "" when there are no options, in which case the request carries no
// description at all.
func describeOptions(options []cart.Option) string {
	if len(options) == 0 {
		return ""
	}
	parts := make([]string, len(options))
	for i, o := range options {
		parts[i] = fmt.Sprintf("%s: %s", o.Name, o.Value)
	}
	return strings.Join(parts, ", ")
}

func applyShipping(req *SessionRequest, shipping ShippingConfig, currency string) error {
	req.ShippingAllowedCountries = shipping.AllowedCountries

	for _, rc := range shipping.Rates {
		amount, err := money.ToMinorUnit(rc.Amount, currency)
		if err != nil {
			return fmt.Errorf("checkout: shipping rate %q: %w", rc.Name, err)
		}

		rate := ShippingRate{
			DisplayName: rc.Name,
			Currency:    strings.ToLower(currency),
			AmountMinor: amount,
		}
		if rc.EstimateMin != nil || rc.EstimateMax != nil {
			rate.DeliveryEstimate = &DeliveryEstimate{
				Minimum: rc.EstimateMin,
				Maximum: rc.EstimateMax,
			}
		}
		req.ShippingRates = append(req.ShippingRates, rate)
	}
	return nil
}
