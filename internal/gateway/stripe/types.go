package stripe

import (
	"strings"

	"github.com/storefront-go/checkout/internal/checkout"
)

// sessionJSON mirrors the fields of Stripe's checkout session object this
// module reads. Expanded sub-objects are present only when the retrieve call
// asked for them.
type sessionJSON struct {
	ID            string            `json:"id"`
	ClientSecret  string            `json:"client_secret"`
	URL           string            `json:"url"`
	Currency      string            `json:"currency"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`

	AmountSubtotal int64 `json:"amount_subtotal"`
	AmountTotal    int64 `json:"amount_total"`
	TotalDetails   *struct {
		AmountDiscount int64 `json:"amount_discount"`
		AmountShipping int64 `json:"amount_shipping"`
	} `json:"total_details"`

	LineItems *struct {
		Data []lineItemJSON `json:"data"`
	} `json:"line_items"`

	CustomerDetails *struct {
		Email   string       `json:"email"`
		Name    string       `json:"name"`
		Phone   string       `json:"phone"`
		Address *addressJSON `json:"address"`
		TaxIDs  []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"tax_ids"`
	} `json:"customer_details"`

	ShippingDetails *struct {
		Name    string       `json:"name"`
		Address *addressJSON `json:"address"`
	} `json:"shipping_details"`

	ShippingCost *struct {
		ShippingRate *struct {
			DisplayName string `json:"display_name"`
		} `json:"shipping_rate"`
	} `json:"shipping_cost"`

	PaymentIntent *struct {
		ID               string `json:"id"`
		LastPaymentError *struct {
			Message string `json:"message"`
		} `json:"last_payment_error"`
		PaymentMethod *struct {
			Type string `json:"type"`
		} `json:"payment_method"`
	} `json:"payment_intent"`

	CustomFields []customFieldJSON `json:"custom_fields"`
}

type lineItemJSON struct {
	Quantity       int   `json:"quantity"`
	AmountSubtotal int64 `json:"amount_subtotal"`
	AmountDiscount int64 `json:"amount_discount"`
	AmountTotal    int64 `json:"amount_total"`
	Price          *struct {
		UnitAmount int64 `json:"unit_amount"`
		Product    *struct {
			Name        string            `json:"name"`
			Description string            `json:"description"`
			Metadata    map[string]string `json:"metadata"`
		} `json:"product"`
	} `json:"price"`
}

type addressJSON struct {
	Country    string `json:"country"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// customFieldJSON carries the field's value under a key named after its
// type: text, dropdown or numeric.
type customFieldJSON struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Label struct {
		Custom string `json:"custom"`
	} `json:"label"`
	Text *struct {
		Value string `json:"value"`
	} `json:"text"`
	Dropdown *struct {
		Value string `json:"value"`
	} `json:"dropdown"`
	Numeric *struct {
		Value string `json:"value"`
	} `json:"numeric"`
}

func (f customFieldJSON) value() string {
	switch f.Type {
	case "text":
		if f.Text != nil {
			return f.Text.Value
		}
	case "dropdown":
		if f.Dropdown != nil {
			return f.Dropdown.Value
		}
	case "numeric":
		if f.Numeric != nil {
			return f.Numeric.Value
		}
	}
	return ""
}

// snapshot converts the wire object into the provider-agnostic session view.
func (s *sessionJSON) snapshot() *checkout.SessionSnapshot {
	snap := &checkout.SessionSnapshot{
		ID:                  s.ID,
		Currency:            strings.ToLower(s.Currency),
		PaymentStatus:       s.PaymentStatus,
		Metadata:            s.Metadata,
		AmountSubtotalMinor: s.AmountSubtotal,
		AmountTotalMinor:    s.AmountTotal,
	}

	if s.TotalDetails != nil {
		snap.AmountDiscountMinor = s.TotalDetails.AmountDiscount
		snap.AmountShippingMinor = s.TotalDetails.AmountShipping
	}

	if s.LineItems != nil {
		for _, li := range s.LineItems.Data {
			item := checkout.SnapshotLineItem{
				Quantity:      li.Quantity,
				SubtotalMinor: li.AmountSubtotal,
				DiscountMinor: li.AmountDiscount,
				TotalMinor:    li.AmountTotal,
			}
			if li.Price != nil {
				item.UnitAmountMinor = li.Price.UnitAmount
				if p := li.Price.Product; p != nil {
					item.Name = p.Name
					item.Description = p.Description
					item.ProductID = p.Metadata["product_id"]
				}
			}
			snap.LineItems = append(snap.LineItems, item)
		}
	}

	if cd := s.CustomerDetails; cd != nil {
		customer := &checkout.CustomerDetails{
			Email: cd.Email,
			Name:  cd.Name,
			Phone: cd.Phone,
		}
		if cd.Address != nil {
			addr := cd.Address.convert()
			customer.Address = &addr
		}
		snap.Customer = customer

		if len(cd.TaxIDs) > 0 {
			snap.TaxID = &checkout.TaxID{
				Type:  cd.TaxIDs[0].Type,
				Value: cd.TaxIDs[0].Value,
			}
		}
	}

	if sd := s.ShippingDetails; sd != nil {
		shipping := &checkout.ShippingDetails{Name: sd.Name}
		if sd.Address != nil {
			shipping.Address = sd.Address.convert()
		}
		snap.Shipping = shipping
	}
	if s.ShippingCost != nil && s.ShippingCost.ShippingRate != nil {
		snap.ShippingOptionName = s.ShippingCost.ShippingRate.DisplayName
	}

	if pi := s.PaymentIntent; pi != nil {
		snap.PaymentIntentID = pi.ID
		if pi.PaymentMethod != nil {
			snap.PaymentMethodType = pi.PaymentMethod.Type
		}
		if pi.LastPaymentError != nil {
			snap.LastPaymentError = pi.LastPaymentError.Message
		}
	}

	for _, f := range s.CustomFields {
		snap.CustomFields = append(snap.CustomFields, checkout.CustomField{
			Key:   f.Key,
			Name:  f.Label.Custom,
			Value: f.value(),
		})
	}

	return snap
}

func (a *addressJSON) convert() checkout.Address {
	return checkout.Address{
		Country:    a.Country,
		Line1:      a.Line1,
		Line2:      a.Line2,
		PostalCode: a.PostalCode,
		City:       a.City,
		State:      a.State,
	}
}
