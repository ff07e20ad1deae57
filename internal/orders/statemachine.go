package orders

import (
	"fmt"
	"time"

	"github.com/velure-store/orderdesk/internal/domain"
)

const deliveryEstimateWindow = 5 * 24 * time.Hour

// StateMachine validates and applies status transitions. It never persists;
// callers run Transition inside the store's read-modify-write and hand the
// returned events to the notification path after the write commits.
type StateMachine struct {
	identity *Identity
	now      func() time.Time
}

type StateMachineOption func(*StateMachine)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) StateMachineOption {
	return func(sm *StateMachine) {
		sm.now = now
	}
}

func NewStateMachine(identity *Identity, opts ...StateMachineOption) *StateMachine {
	sm := &StateMachine{
		identity: identity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Transition moves order to target in place and returns the events the change
// produced. On rejection the order is left untouched and
// domain.ErrInvalidTransition is returned. Re-applying shipped → shipped is a
// rejection: the transition table has no self-loops, so a duplicate admin
// click surfaces as an invalid transition rather than silently re-emitting
// the shipped event.
func (sm *StateMachine) Transition(order *domain.Order, target domain.Status) ([]domain.Event, error) {
	if !domain.CanTransition(order.Status, target) {
		return nil, fmt.Errorf("%s -> %s: %w", order.Status, target, domain.ErrInvalidTransition)
	}

	now := sm.now().UTC()
	var events []domain.Event

	if target == domain.StatusShipped && order.TrackingNumber == "" {
		estimated := now.Add(deliveryEstimateWindow)
		order.TrackingNumber = sm.identity.NewTrackingNumber()
		order.EstimatedDelivery = &estimated

		events = append(events, domain.OrderShippedEvent{
			EventID:           domain.NewEventID(),
			OrderID:           order.ID,
			Customer:          order.Customer,
			TrackingNumber:    order.TrackingNumber,
			EstimatedDelivery: estimated,
			Timestamp:         now,
		})
	}

	order.Status = target
	order.UpdatedAt = now

	return events, nil
}

// AppendNote adds an admin annotation. Notes are append-only; the only other
// field touched is updated_at.
func (sm *StateMachine) AppendNote(order *domain.Order, author, message string) domain.Note {
	now := sm.now().UTC()
	note := domain.Note{
		Author:    author,
		Message:   message,
		CreatedAt: now,
	}
	order.Notes = append(order.Notes, note)
	order.UpdatedAt = now
	return note
}
