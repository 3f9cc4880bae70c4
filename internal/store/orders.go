package store

import (
	"sync"

	"github.com/example/ride-hail/internal/apperrors"
	"github.com/example/ride-hail/internal/models"
)

// OrderStore owns every order record. Each order carries its own lock, so
// transitions on the same id are serialized while different orders proceed in
// parallel. Orders are never deleted for the lifetime of the process.
type OrderStore struct {
	mu     sync.RWMutex // guards map membership only
	orders map[string]*entry
}

type entry struct {
	mu sync.Mutex
	o  models.Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]*entry)}
}

// Create inserts a new order. The id must be fresh.
func (s *OrderStore) Create(o models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = &entry{o: o}
}

// Get returns a snapshot of the order.
func (s *OrderStore) Get(id string) (models.Order, error) {
	e, ok := s.lookup(id)
	if !ok {
		return models.Order{}, apperrors.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.o, nil
}

// Transition applies fn to the order while holding its lock. fn sees the
// current record and returns the mutated copy or an error; no other
// transition on the same id can interleave, which is what makes
// first-accept-wins hold.
func (s *OrderStore) Transition(id string, fn func(o models.Order) (models.Order, error)) (models.Order, error) {
	e, ok := s.lookup(id)
	if !ok {
		return models.Order{}, apperrors.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := fn(e.o)
	if err != nil {
		return models.Order{}, err
	}
	e.o = next
	return next, nil
}

// ListByStatus returns snapshots of every order currently in status. Each
// record is read under its own lock, so an order that has already left the
// status cannot appear in the result.
func (s *OrderStore) ListByStatus(status models.OrderStatus) []models.Order {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.orders))
	for _, e := range s.orders {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]models.Order, 0)
	for _, e := range entries {
		e.mu.Lock()
		if e.o.Status == status {
			out = append(out, e.o)
		}
		e.mu.Unlock()
	}
	return out
}

func (s *OrderStore) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.orders[id]
	return e, ok
}
