package order

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no order exists with the given id.
	ErrNotFound = errors.New("order: not found")

	// ErrDuplicateOrder is returned by Create when an order with the same
	// id already exists. Expected on webhook redelivery; callers treat it
	// as success.
	ErrDuplicateOrder = errors.New("order: duplicate order")

	// ErrDuplicateEvent is returned by AppendEventIfAbsent when the event
	// id is already in the order's ledger. Expected on webhook
	// redelivery; callers treat it as success.
	ErrDuplicateEvent = errors.New("order: duplicate event")
)

// Store is the port for order persistence. Implementations must back
// Create and AppendEventIfAbsent with real uniqueness guarantees (a unique
// constraint, not read-then-write): two concurrent deliveries of the same
// webhook must produce exactly one recorded effect.
type Store interface {
	// Create persists a new order atomically, including its seed events.
	// Fails with ErrDuplicateOrder if the id is taken.
	Create(ctx context.Context, o *Order) error

	// Find returns the order with its full event ledger.
	Find(ctx context.Context, id string) (*Order, error)

	// AppendEventIfAbsent appends ev to the order's ledger and moves the
	// order to status in one atomic operation. Fails with
	// ErrDuplicateEvent (no changes) if ev.ID is already recorded, and
	// ErrNotFound if the order does not exist.
	AppendEventIfAbsent(ctx context.Context, id string, ev Event, status Status) error

	// SetStatus moves the order to status without touching the ledger.
	SetStatus(ctx context.Context, id string, status Status) error
}
