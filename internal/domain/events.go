package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeOrderPlaced  = "order.placed"
	EventTypeOrderShipped = "order.shipped"
)

// Event is a value emitted by the state machine (or the create path)
// describing an accepted change. The notification dispatcher consumes them.
type Event interface {
	EventType() string
	Order() string
}

// OrderPlacedEvent is emitted once, when checkout completes.
type OrderPlacedEvent struct {
	EventID    string      `json:"event_id"`
	OrderID    string      `json:"order_id"`
	Customer   Customer    `json:"customer"`
	Items      []OrderItem `json:"items"`
	TotalCents int64       `json:"total_cents"`
	Timestamp  time.Time   `json:"timestamp"`
}

func (e OrderPlacedEvent) EventType() string { return EventTypeOrderPlaced }
func (e OrderPlacedEvent) Order() string     { return e.OrderID }

// OrderShippedEvent is emitted exactly once, on the transition into shipped
// that assigns the tracking number.
type OrderShippedEvent struct {
	EventID           string    `json:"event_id"`
	OrderID           string    `json:"order_id"`
	Customer          Customer  `json:"customer"`
	TrackingNumber    string    `json:"tracking_number"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
	Timestamp         time.Time `json:"timestamp"`
}

func (e OrderShippedEvent) EventType() string { return EventTypeOrderShipped }
func (e OrderShippedEvent) Order() string     { return e.OrderID }

// NewEventID returns a fresh event identifier.
func NewEventID() string {
	return uuid.New().String()
}

// Envelope carries a typed event across the wire. The type tag lets the
// worker decode without sniffing payload fields.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// WrapEvent builds a wire envelope for an event.
func WrapEvent(event Event) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s event: %w", event.EventType(), err)
	}
	return Envelope{Type: event.EventType(), Payload: payload}, nil
}

// UnwrapEvent decodes an envelope back into its typed event.
func UnwrapEvent(env Envelope) (Event, error) {
	switch env.Type {
	case EventTypeOrderPlaced:
		var e OrderPlacedEvent
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s event: %w", env.Type, err)
		}
		return e, nil
	case EventTypeOrderShipped:
		var e OrderShippedEvent
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s event: %w", env.Type, err)
		}
		return e, nil
	}
	return nil, fmt.Errorf("unknown event type %q", env.Type)
}
