package domain

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// ParseStatus validates a wire string. Unrecognized values are a data error,
// never silently defaulted.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", ErrUnknownStatus
}

// allowedTransitions is the full lifecycle:
// pending → processing → shipped → delivered, with cancellation possible
// until the order has shipped. delivered and cancelled are terminal.
var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusShipped, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

// CanTransition reports whether target is reachable from from in one step.
func CanTransition(from, target Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are accepted.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Presentation attributes for both the admin console and the customer order
// history. Defined once here instead of per-view switch statements.

func (s Status) Icon() string {
	switch s {
	case StatusPending:
		return "clock"
	case StatusProcessing:
		return "package"
	case StatusShipped:
		return "truck"
	case StatusDelivered:
		return "check-circle"
	case StatusCancelled:
		return "x-circle"
	}
	return "help-circle"
}

func (s Status) Color() string {
	switch s {
	case StatusPending:
		return "yellow"
	case StatusProcessing:
		return "blue"
	case StatusShipped:
		return "purple"
	case StatusDelivered:
		return "green"
	case StatusCancelled:
		return "red"
	}
	return "gray"
}

// ProgressPercent drives the fulfillment progress bar. Cancelled orders show
// no progress.
func (s Status) ProgressPercent() int {
	switch s {
	case StatusPending:
		return 25
	case StatusProcessing:
		return 50
	case StatusShipped:
		return 75
	case StatusDelivered:
		return 100
	}
	return 0
}
