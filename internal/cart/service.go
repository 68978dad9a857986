package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/storefront-go/checkout/internal/catalog"
	"github.com/storefront-go/checkout/internal/money"
)

var (
	// ErrInvalidQuantity is returned when a quantity is zero or negative.
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than 0")

	// ErrNoSuchItem is returned when the referenced item key is not in
	// the cart.
	ErrNoSuchItem = errors.New("cart: no such cart item")

	// ErrProductUnavailable is returned when the product does not exist
	// or is not publicly listed.
	ErrProductUnavailable = errors.New("cart: product unavailable")

	// ErrProductNotPriced is returned when the product has no price
	// configured.
	ErrProductNotPriced = errors.New("cart: product has no price")
)

// ItemTransform adjusts an item before it is committed to the cart. It is
// the typed replacement for "before add" hooks: supply one at construction
// to rewrite names, prices or options. The default is identity.
type ItemTransform func(Item) Item

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithItemTransform installs a transform applied to every item on AddItem.
func WithItemTransform(t ItemTransform) ServiceOption {
	return func(s *Service) { s.transform = t }
}

// Service owns all cart mutations. Every mutation loads the session's cart,
// applies the change in memory, and persists the whole cart back — either
// the entire operation succeeds or nothing changes.
type Service struct {
	catalog   catalog.ProductCatalog
	store     SessionStore
	currency  string
	transform ItemTransform

	// locks serializes mutations per session within this process.
	// Cross-process races resolve last-write-wins; cart data is not
	// financially authoritative until checkout.
	locks sync.Map
}

// NewService builds a cart service for the given currency.
func NewService(cat catalog.ProductCatalog, store SessionStore, currency string, opts ...ServiceOption) (*Service, error) {
	currency = strings.ToUpper(currency)
	if !money.IsKnown(currency) {
		return nil, money.ErrUnknownCurrency
	}

	s := &Service{
		catalog:   cat,
		store:     store,
		currency:  currency,
		transform: func(it Item) Item { return it },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Currency is the currency every cart managed by this service uses.
func (s *Service) Currency() string { return s.currency }

// Get returns the session's cart, empty if none has been persisted yet.
func (s *Service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	data, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return newCart(s.currency, nil), nil
	}
	if err != nil {
		return nil, err
	}
	return newCart(data.Currency, data.Items), nil
}

// AddItem resolves the product, derives the item key from the product id and
// its normalized options, and adds the item to the session's cart. Adding
// the same product with the same options again sums the quantities; the same
// product with different options is a separate line. Returns the item key.
func (s *Service) AddItem(ctx context.Context, sessionID, productID string, quantity int, options []Option) (string, error) {
	if quantity <= 0 {
		return "", ErrInvalidQuantity
	}

	product, err := s.catalog.Resolve(ctx, productID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		return "", ErrProductUnavailable
	}
	if err != nil {
		return "", fmt.Errorf("cart: resolve product %q: %w", productID, err)
	}
	if !product.Listed {
		return "", ErrProductUnavailable
	}
	if !product.Priced {
		return "", ErrProductNotPriced
	}

	unlock := s.lock(sessionID)
	defer unlock()

	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}

	item := s.transform(Item{
		Key:          ItemKey(productID, options),
		ProductID:    productID,
		Name:         product.Name,
		Quantity:     quantity,
		Options:      options,
		UnitPrice:    product.Price,
		ThumbnailURL: product.ThumbnailURL,
	})

	if existing, ok := c.Item(item.Key); ok {
		item.Quantity += existing.Quantity
	}
	c.set(item)

	if err := s.persist(ctx, sessionID, c); err != nil {
		return "", err
	}
	return item.Key, nil
}

// UpdateItem replaces the quantity of an existing item. The unit price stays
// the snapshot taken when the item was added.
func (s *Service) UpdateItem(ctx context.Context, sessionID, key string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	unlock := s.lock(sessionID)
	defer unlock()

	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	item, ok := c.Item(key)
	if !ok {
		return ErrNoSuchItem
	}
	item.Quantity = quantity
	c.set(item)

	return s.persist(ctx, sessionID, c)
}

// RemoveItem deletes an item from the cart.
func (s *Service) RemoveItem(ctx context.Context, sessionID, key string) error {
	unlock := s.lock(sessionID)
	defer unlock()

	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	if !c.remove(key) {
		return ErrNoSuchItem
	}

	return s.persist(ctx, sessionID, c)
}

// Destroy resets the session to the empty cart and clears persisted state.
// Called after a successful checkout or on demand.
func (s *Service) Destroy(ctx context.Context, sessionID string) error {
	unlock := s.lock(sessionID)
	defer unlock()

	return s.store.Delete(ctx, sessionID)
}

func (s *Service) persist(ctx context.Context, sessionID string, c *Cart) error {
	return s.store.Save(ctx, sessionID, Data{
		Currency: c.Currency(),
		Items:    c.Items(),
	})
}

func (s *Service) lock(sessionID string) func() {
	v, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
