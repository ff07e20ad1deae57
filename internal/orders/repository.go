package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/velure-store/orderdesk/internal/domain"
)

// OrderRepository stores each order as one JSON document keyed by order id.
// The seq column preserves insertion order for List.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	doc, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order %s: %w", order.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders (id, doc)
		VALUES ($1, $2)
	`, order.ID, doc)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrDuplicateID
		}
		return err
	}

	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT doc FROM orders WHERE id = $1
	`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	order, err := decodeOrder(doc)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}

	return order, nil
}

// decodeOrder unmarshals a stored document and rejects corrupted status
// values instead of defaulting them.
func decodeOrder(doc []byte) (*domain.Order, error) {
	order := &domain.Order{}
	if err := json.Unmarshal(doc, order); err != nil {
		return nil, fmt.Errorf("unmarshal order document: %w", err)
	}
	if _, err := domain.ParseStatus(string(order.Status)); err != nil {
		return nil, fmt.Errorf("stored status %q: %w", order.Status, err)
	}
	return order, nil
}

// Update runs mutate against the current document under a row lock and writes
// the result back in the same transaction. The lock makes the single
// read-modify-write atomic; there is no version check across separate calls.
func (r *OrderRepository) Update(ctx context.Context, id string, mutate func(*domain.Order) error) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var doc []byte
	err = tx.QueryRowContext(ctx, `
		SELECT doc FROM orders WHERE id = $1 FOR UPDATE
	`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	order, err := decodeOrder(doc)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}

	if err := mutate(order); err != nil {
		return nil, err
	}

	updated, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders SET doc = $1 WHERE id = $2
	`, updated, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT doc FROM orders ORDER BY seq
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orders := []domain.Order{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		order, err := decodeOrder(doc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
