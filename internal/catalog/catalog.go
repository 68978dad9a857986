// Package catalog defines the port through which the cart resolves product
// references into name, price and availability. The storefront's content
// system owns the product data; this module only consumes it.
package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrProductNotFound is returned when the product reference does not resolve.
var ErrProductNotFound = errors.New("catalog: product not found")

// Product is the point-in-time view of a listed product.
type Product struct {
	Name         string
	Price        decimal.Decimal
	ThumbnailURL string

	// Listed reports whether the product is publicly visible.
	// Draft and unlisted products cannot be added to a cart.
	Listed bool

	// Priced reports whether a price is configured at all. A listed
	// product without a price is a content error, not a free product.
	Priced bool
}

// ProductCatalog resolves an opaque product reference.
type ProductCatalog interface {
	Resolve(ctx context.Context, productID string) (Product, error)
}
