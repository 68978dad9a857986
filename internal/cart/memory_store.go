package cart

import (
	"context"
	"sync"
)

// MemoryStore is an in-process SessionStore. It backs tests and single-node
// deployments that run without Redis.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Data
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Data)}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.sessions[sessionID]
	if !ok {
		return Data{}, ErrSessionNotFound
	}
	// Copy the slice so callers cannot mutate stored state.
	items := make([]Item, len(data.Items))
	copy(items, data.Items)
	return Data{Currency: data.Currency, Items: items}, nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, data Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]Item, len(data.Items))
	copy(items, data.Items)
	s.sessions[sessionID] = Data{Currency: data.Currency, Items: items}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}
