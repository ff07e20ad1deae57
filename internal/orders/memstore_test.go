package orders

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/velure-store/orderdesk/internal/domain"
)

// memStore is an in-memory OrderStore for unit tests. It mirrors the
// repository contract: documents are copied on the way in and out, insertion
// order is preserved, and Update is an atomic read-modify-write.
type memStore struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	ids    []string
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[string]*domain.Order)}
}

func cloneOrder(order *domain.Order) *domain.Order {
	doc, err := json.Marshal(order)
	if err != nil {
		panic(err)
	}
	clone := &domain.Order{}
	if err := json.Unmarshal(doc, clone); err != nil {
		panic(err)
	}
	return clone
}

func (s *memStore) Create(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return domain.ErrDuplicateID
	}
	s.orders[order.ID] = cloneOrder(order)
	s.ids = append(s.ids, order.ID)
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.orders[id]
	if !exists {
		return nil, nil
	}
	return cloneOrder(order), nil
}

func (s *memStore) Update(_ context.Context, id string, mutate func(*domain.Order) error) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.orders[id]
	if !exists {
		return nil, domain.ErrNotFound
	}

	updated := cloneOrder(order)
	if err := mutate(updated); err != nil {
		return nil, err
	}
	s.orders[id] = updated
	return cloneOrder(updated), nil
}

func (s *memStore) List(_ context.Context) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]domain.Order, 0, len(s.ids))
	for _, id := range s.ids {
		result = append(result, *cloneOrder(s.orders[id]))
	}
	return result, nil
}
