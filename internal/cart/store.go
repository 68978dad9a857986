package cart

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned by Load when no cart is persisted for the
// session. Callers treat it as "empty cart", not as a failure.
var ErrSessionNotFound = errors.New("cart: session not found")

// Data is the persisted form of a cart.
type Data struct {
	Currency string `json:"currency"`
	Items    []Item `json:"items"`
}

// SessionStore persists carts keyed by the caller's session identifier.
// A cart is owned by one browsing session; the store does not need to
// serialize concurrent writers beyond last-write-wins.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (Data, error)
	Save(ctx context.Context, sessionID string, data Data) error
	Delete(ctx context.Context, sessionID string) error
}
