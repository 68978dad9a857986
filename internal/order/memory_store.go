package order

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store with the same uniqueness semantics as
// the SQLite implementation. It backs tests and throwaway deployments.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[string]*Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]*Order)}
}

func (s *MemoryStore) Create(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID]; exists {
		return ErrDuplicateOrder
	}
	s.orders[o.ID] = copyOrder(o)
	return nil
}

func (s *MemoryStore) Find(_ context.Context, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOrder(o), nil
}

func (s *MemoryStore) AppendEventIfAbsent(_ context.Context, id string, ev Event, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.HasEvent(ev.ID) {
		return ErrDuplicateEvent
	}

	o.Events = append(o.Events, ev)
	setStatusLocked(o, status, ev.OccurredAt)
	return nil
}

func (s *MemoryStore) SetStatus(_ context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return ErrNotFound
	}
	setStatusLocked(o, status, time.Now())
	return nil
}

func setStatusLocked(o *Order, status Status, at time.Time) {
	o.Status = status
	if status == StatusPaid && o.PaidAt == nil {
		at := at
		o.PaidAt = &at
	}
}

// copyOrder detaches an order from the store's copy, pointer fields
// included, so callers can never mutate stored state through a returned
// order.
func copyOrder(o *Order) *Order {
	cp := *o
	cp.Events = append([]Event(nil), o.Events...)
	cp.LineItems = append([]LineItem(nil), o.LineItems...)
	cp.CustomFields = append([]CustomField(nil), o.CustomFields...)
	if o.PaidAt != nil {
		t := *o.PaidAt
		cp.PaidAt = &t
	}
	if o.ShippingDetails != nil {
		sd := *o.ShippingDetails
		cp.ShippingDetails = &sd
	}
	if o.BillingDetails != nil {
		bd := *o.BillingDetails
		cp.BillingDetails = &bd
	}
	if o.TaxID != nil {
		tid := *o.TaxID
		cp.TaxID = &tid
	}
	return &cp
}
