package httpx

import (
	"github.com/storefront-go/checkout/internal/cart"
	"github.com/storefront-go/checkout/internal/money"
)

type AddItemRequest struct {
	ProductID string        `json:"product_id"`
	Quantity  int           `json:"quantity"`
	Options   []cart.Option `json:"options,omitempty"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Currency       string             `json:"currency"`
	CurrencySymbol string             `json:"currency_symbol"`
	Items          []CartItemResponse `json:"items"`
	TotalQuantity  int                `json:"total_quantity"`
	TotalAmount    string             `json:"total_amount"`
	TotalFormatted string             `json:"total_formatted"`
}

type CartItemResponse struct {
	Key                string        `json:"key"`
	ProductID          string        `json:"product_id"`
	Name               string        `json:"name"`
	Quantity           int           `json:"quantity"`
	Options            []cart.Option `json:"options,omitempty"`
	UnitPrice          string        `json:"unit_price"`
	UnitPriceFormatted string        `json:"unit_price_formatted"`
	LineTotal          string        `json:"line_total"`
	LineTotalFormatted string        `json:"line_total_formatted"`
	ThumbnailURL       string        `json:"thumbnail_url,omitempty"`
}

type AddItemResponse struct {
	Key  string       `json:"key"`
	Cart CartResponse `json:"cart"`
}

type EmbeddedSessionResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// mapCartToResponse renders a cart with display-ready amounts alongside the
// raw decimal strings. The cart's currency was validated at service
// construction, so formatting cannot fail here.
func mapCartToResponse(c *cart.Cart) CartResponse {
	items := c.Items()
	out := CartResponse{
		Currency:       c.Currency(),
		CurrencySymbol: c.CurrencySymbol(),
		Items:          make([]CartItemResponse, len(items)),
		TotalQuantity:  c.TotalQuantity(),
		TotalAmount:    c.TotalAmount().String(),
	}
	out.TotalFormatted, _ = money.Format(c.TotalAmount(), c.Currency())

	for i, it := range items {
		item := CartItemResponse{
			Key:          it.Key,
			ProductID:    it.ProductID,
			Name:         it.Name,
			Quantity:     it.Quantity,
			Options:      it.Options,
			UnitPrice:    it.UnitPrice.String(),
			LineTotal:    it.LineTotal().String(),
			ThumbnailURL: it.ThumbnailURL,
		}
		item.UnitPriceFormatted, _ = money.Format(it.UnitPrice, c.Currency())
		item.LineTotalFormatted, _ = money.Format(it.LineTotal(), c.Currency())
		out.Items[i] = item
	}
	return out
}
