package repository

import (
	"context"
	"sync"

	"github.com/bloomhaus/mailflow/internal/model"
)

// MemoryCartStore is an in-process CartStore. Carts are short-lived (the
// scanner purges anything idle past 24h) so memory is the only backend.
type MemoryCartStore struct {
	mu      sync.Mutex
	entries map[string]*model.CartEntry
}

// NewMemoryCartStore creates an empty in-memory cart store.
func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{
		entries: make(map[string]*model.CartEntry),
	}
}

func (s *MemoryCartStore) Put(ctx context.Context, entry *model.CartEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *entry
	c.Items = append([]model.CartItem(nil), entry.Items...)
	s.entries[entry.Email] = &c
	return nil
}

func (s *MemoryCartStore) Get(ctx context.Context, email string) (*model.CartEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[email]
	if !ok {
		return nil, ErrNotFound
	}
	c := *entry
	c.Items = append([]model.CartItem(nil), entry.Items...)
	return &c, nil
}

func (s *MemoryCartStore) All(ctx context.Context) ([]*model.CartEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.CartEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		c := *entry
		c.Items = append([]model.CartItem(nil), entry.Items...)
		out = append(out, &c)
	}
	return out, nil
}

func (s *MemoryCartStore) Delete(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, email)
	return nil
}
