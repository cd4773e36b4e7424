package cart

import (
	"context"
	"sync"
)

// Store persists cart records. The in-memory implementation is sufficient
// for the sandbox demo; the interface exists so a database-backed store can
// be substituted without touching the lifecycle service.
type Store interface {
	GetByID(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	List(ctx context.Context) ([]*Cart, error)
}

type memoryStore struct {
	mu    sync.RWMutex
	carts map[string]*Cart
}

func NewMemoryStore() Store {
	return &memoryStore{carts: make(map[string]*Cart)}
}

func (s *memoryStore) GetByID(_ context.Context, id string) (*Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[id]
	if !ok {
		return nil, ErrCartNotFound
	}
	return cart.Clone(), nil
}

func (s *memoryStore) Save(_ context.Context, cart *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[cart.ID] = cart.Clone()
	return nil
}

func (s *memoryStore) List(_ context.Context) ([]*Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	carts := make([]*Cart, 0, len(s.carts))
	for _, cart := range s.carts {
		carts = append(carts, cart.Clone())
	}
	return carts, nil
}
