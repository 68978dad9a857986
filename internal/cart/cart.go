// Package cart implements the session-scoped line-item ledger of the
// storefront. A cart belongs to one browsing session, is persisted to a
// SessionStore after every mutation, and computes its totals eagerly so
// reads never recalculate.
package cart

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/storefront-go/checkout/internal/money"
)

// Option is a single product configuration choice, e.g. {Name: "size",
// Value: "xl"}. Display order follows the order given when the item was
// added; identity does not depend on it.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Item is one priced, quantified entry in the cart. UnitPrice is a
// point-in-time snapshot taken from the catalog when the item was added.
type Item struct {
	Key          string          `json:"key"`
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	Options      []Option        `json:"options,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ThumbnailURL string          `json:"thumbnail_url,omitempty"`
}

// LineTotal is UnitPrice × Quantity.
func (it Item) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// ItemKey derives the deterministic identity of a cart item from its product
// reference and options. Options are sorted by name before hashing so the
// same configuration always produces the same key regardless of the order
// the options were supplied in. The same product with different options is
// a different item (the same shoes in two sizes occupy two lines).
func ItemKey(productID string, options []Option) string {
	parts := make([]string, 0, len(options)+1)
	parts = append(parts, productID)

	sorted := make([]Option, len(options))
	copy(sorted, options)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, o := range sorted {
		parts = append(parts, o.Name+"="+o.Value)
	}

	// NUL-joined to keep concatenations unambiguous. The key is an
	// identity, not a security boundary, so md5 is enough.
	sum := md5.Sum([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Cart is an in-memory view of one session's cart. Mutations go through
// Service; Cart itself only derives.
type Cart struct {
	items         []Item
	index         map[string]int
	currency      string
	totalAmount   decimal.Decimal
	totalQuantity int
}

func newCart(currency string, items []Item) *Cart {
	c := &Cart{
		items:    items,
		index:    make(map[string]int, len(items)),
		currency: currency,
	}
	for i, it := range items {
		c.index[it.Key] = i
	}
	c.recompute()
	return c
}

// Items returns the cart's items in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Item returns the item with the given key.
func (c *Cart) Item(key string) (Item, bool) {
	i, ok := c.index[key]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// TotalAmount is the sum of all line totals, in major units.
func (c *Cart) TotalAmount() decimal.Decimal { return c.totalAmount }

// TotalQuantity is the sum of all item quantities.
func (c *Cart) TotalQuantity() int { return c.totalQuantity }

// Currency is the cart's ISO 4217 code, fixed for its lifetime.
func (c *Cart) Currency() string { return c.currency }

// CurrencySymbol is the display symbol for the cart's currency.
func (c *Cart) CurrencySymbol() string {
	symbol, _ := money.Symbol(c.currency)
	return symbol
}

// set inserts or replaces an item and refreshes totals.
func (c *Cart) set(item Item) {
	if i, ok := c.index[item.Key]; ok {
		c.items[i] = item
	} else {
		c.index[item.Key] = len(c.items)
		c.items = append(c.items, item)
	}
	c.recompute()
}

// remove deletes the item with the given key and refreshes totals.
func (c *Cart) remove(key string) bool {
	i, ok := c.index[key]
	if !ok {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, key)
	for j := i; j < len(c.items); j++ {
		c.index[c.items[j].Key] = j
	}
	c.recompute()
	return true
}

// recompute rebuilds totals from the items. Totals are never stored
// independently of the items they derive from.
func (c *Cart) recompute() {
	total := decimal.Zero
	quantity := 0
	for _, it := range c.items {
		total = total.Add(it.LineTotal())
		quantity += it.Quantity
	}
	c.totalAmount = total
	c.totalQuantity = quantity
}
