package domain

import "errors"

var (
	// ErrNotFound is returned when an operation references an order id
	// absent from the store.
	ErrNotFound = errors.New("order not found")

	// ErrDuplicateID is returned when creation collides with an existing
	// order id. The caller regenerates an id and retries.
	ErrDuplicateID = errors.New("duplicate order id")

	// ErrInvalidTransition is returned when the requested status is not
	// reachable from the order's current status. The order is left
	// unchanged.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotificationFailure wraps outbound send failures. Logged and
	// surfaced as a warning, never escalated to the caller of the state
	// change that triggered the notification.
	ErrNotificationFailure = errors.New("notification failure")

	// ErrUnknownStatus is returned for status strings outside the five
	// valid values.
	ErrUnknownStatus = errors.New("unknown order status")
)
