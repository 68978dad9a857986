package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// fileProduct is the on-disk representation of a product entry.
type fileProduct struct {
	Name      string           `json:"name"`
	Price     *decimal.Decimal `json:"price"`
	Thumbnail string           `json:"thumbnail"`
	Listed    bool             `json:"listed"`
}

// FileCatalog is a ProductCatalog backed by a JSON file, keyed by product id.
// It exists so the storefront can run without a content system attached;
// production deployments wire a CMS-backed implementation instead.
type FileCatalog struct {
	products map[string]fileProduct
}

// LoadFile reads a product catalog from path.
func LoadFile(path string) (*FileCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %q: %w", path, err)
	}

	var products map[string]fileProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("catalog: parse %q: %w", path, err)
	}

	return &FileCatalog{products: products}, nil
}

func (c *FileCatalog) Resolve(_ context.Context, productID string) (Product, error) {
	p, ok := c.products[productID]
	if !ok {
		return Product{}, ErrProductNotFound
	}

	product := Product{
		Name:         p.Name,
		ThumbnailURL: p.Thumbnail,
		Listed:       p.Listed,
	}
	if p.Price != nil {
		product.Price = *p.Price
		product.Priced = true
	}
	return product, nil
}
