package orders

import (
	"context"
	"sort"
	"strings"

	"github.com/velure-store/orderdesk/internal/domain"
)

// QueryService is the read side shared by the admin console and the customer
// order history. It never writes to the store.
type QueryService struct {
	store OrderStore
}

func NewQueryService(store OrderStore) *QueryService {
	return &QueryService{store: store}
}

// Search matches term case-insensitively against order id, customer full
// name, and customer email.
func (q *QueryService) Search(ctx context.Context, term string) ([]domain.Order, error) {
	all, err := q.store.List(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(term)
	matched := []domain.Order{}
	for _, order := range all {
		if strings.Contains(strings.ToLower(order.ID), needle) ||
			strings.Contains(strings.ToLower(order.Customer.FullName()), needle) ||
			strings.Contains(strings.ToLower(order.Customer.Email), needle) {
			matched = append(matched, order)
		}
	}

	return matched, nil
}

// StatusAll selects every order regardless of status.
const StatusAll = "all"

// FilterByStatus returns orders in the given status, or everything when
// status is "all".
func (q *QueryService) FilterByStatus(ctx context.Context, status string) ([]domain.Order, error) {
	all, err := q.store.List(ctx)
	if err != nil {
		return nil, err
	}

	if status == StatusAll {
		return all, nil
	}

	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	matched := []domain.Order{}
	for _, order := range all {
		if order.Status == parsed {
			matched = append(matched, order)
		}
	}

	return matched, nil
}

// ForCustomer returns the customer's orders newest first. This is exactly the
// view the customer-facing order history renders.
func (q *QueryService) ForCustomer(ctx context.Context, email string) ([]domain.Order, error) {
	all, err := q.store.List(ctx)
	if err != nil {
		return nil, err
	}

	matched := []domain.Order{}
	for _, order := range all {
		if order.Customer.Email == email {
			matched = append(matched, order)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return matched, nil
}

// Stats is the admin dashboard aggregate.
type Stats struct {
	Total             int                   `json:"total"`
	PerStatus         map[domain.Status]int `json:"per_status"`
	TotalRevenueCents int64                 `json:"total_revenue_cents"`
}

// Stats counts orders per status and sums revenue over every non-cancelled
// order. All five statuses are always present in the map, zero or not.
func (q *QueryService) Stats(ctx context.Context) (Stats, error) {
	all, err := q.store.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Total:     len(all),
		PerStatus: make(map[domain.Status]int, len(domain.Statuses)),
	}
	for _, status := range domain.Statuses {
		stats.PerStatus[status] = 0
	}

	for _, order := range all {
		stats.PerStatus[order.Status]++
		if order.Status != domain.StatusCancelled {
			stats.TotalRevenueCents += order.TotalCents
		}
	}

	return stats, nil
}
