package orders

import (
	"context"

	"github.com/velure-store/orderdesk/internal/domain"
)

// OrderStore is the durable key-value view of the order table. It enforces
// existence and atomicity of the read-modify-write and nothing else; business
// rules live in the state machine.
//
// Implementations must persist every successful Create/Update before
// returning. There is no compare-and-swap across calls: two actors racing a
// read-then-update keep last-write-wins semantics.
type OrderStore interface {
	// Create inserts a new order. Returns domain.ErrDuplicateID if the id
	// already exists.
	Create(ctx context.Context, order *domain.Order) error

	// Get returns the order, or (nil, nil) if the id is absent. Callers
	// treat absence as domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Order, error)

	// Update atomically applies mutate to the stored order and persists the
	// result. Returns domain.ErrNotFound if the id is absent. An error from
	// mutate aborts the write and is returned unchanged.
	Update(ctx context.Context, id string, mutate func(*domain.Order) error) (*domain.Order, error)

	// List returns a snapshot of every order in insertion order. Orders are
	// never deleted; the full history is retained.
	List(ctx context.Context) ([]domain.Order, error)
}
