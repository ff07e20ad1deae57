package orders

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/velure-store/orderdesk/internal/domain"
)

type fakeNotifier struct {
	events []domain.Event
	err    error
}

func (f *fakeNotifier) Dispatch(_ context.Context, event domain.Event) error {
	f.events = append(f.events, event)
	return f.err
}

func newTestHandler(store OrderStore, notifier Notifier) *Handler {
	identity := NewIdentity()
	machine := NewStateMachine(identity)
	query := NewQueryService(store)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(store, identity, machine, query, nil, notifier, logger)
}

func testMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", h.HandleList)
	mux.HandleFunc("POST /orders", h.HandleCreate)
	mux.HandleFunc("GET /orders/stats", h.HandleStats)
	mux.HandleFunc("GET /orders/{id}", h.HandleGet)
	mux.HandleFunc("PATCH /orders/{id}/status", h.HandleUpdateStatus)
	mux.HandleFunc("POST /orders/{id}/notes", h.HandleAppendNote)
	mux.HandleFunc("GET /customers/{email}/orders", h.HandleCustomerOrders)
	return mux
}

const checkoutBody = `{
	"customer": {"first_name": "Ana", "last_name": "Reyes", "email": "ana@example.com"},
	"items": [
		{"item_id": "ITEM-1", "name": "Linen Shirt", "unit_price_cents": 2999, "quantity": 2, "image": "linen.jpg", "size": "M"},
		{"item_id": "ITEM-2", "name": "Wool Coat", "unit_price_cents": 8999, "quantity": 1, "image": "coat.jpg"}
	],
	"shipping_address": {"street": "1 Main St", "city": "Lisbon", "state": "LX", "zip_code": "1000", "country": "PT"},
	"payment_method": "visa-4242"
}`

func createOrder(t *testing.T, mux *http.ServeMux) domain.Order {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(checkoutBody))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var order domain.Order
	if err := json.NewDecoder(rec.Body).Decode(&order); err != nil {
		t.Fatalf("decode created order: %v", err)
	}
	return order
}

func TestHandleCreate(t *testing.T) {
	t.Run("creates order and emits placed event", func(t *testing.T) {
		notifier := &fakeNotifier{}
		mux := testMux(newTestHandler(newMemStore(), notifier))

		order := createOrder(t, mux)

		if order.ID == "" {
			t.Error("expected order id to be set")
		}
		if order.Status != domain.StatusPending {
			t.Errorf("status = %s, want pending", order.Status)
		}
		if order.TotalCents != 14997 {
			t.Errorf("total = %d, want 14997", order.TotalCents)
		}
		if !order.UpdatedAt.Equal(order.CreatedAt) {
			t.Error("expected updated_at == created_at at creation")
		}

		if len(notifier.events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(notifier.events))
		}
		placed, ok := notifier.events[0].(domain.OrderPlacedEvent)
		if !ok {
			t.Fatalf("event is %T, want OrderPlacedEvent", notifier.events[0])
		}
		if placed.OrderID != order.ID || placed.TotalCents != 14997 {
			t.Errorf("event mismatch: %+v", placed)
		}
	})

	t.Run("rejects empty items", func(t *testing.T) {
		mux := testMux(newTestHandler(newMemStore(), &fakeNotifier{}))
		body := `{"customer": {"email": "ana@example.com"}, "items": []}`
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		mux := testMux(newTestHandler(newMemStore(), &fakeNotifier{}))
		body := `{"customer": {"email": "ana@example.com"}, "items": [{"item_id": "X", "unit_price_cents": 100, "quantity": 0}]}`
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("notification failure does not fail the request", func(t *testing.T) {
		notifier := &fakeNotifier{err: domain.ErrNotificationFailure}
		mux := testMux(newTestHandler(newMemStore(), notifier))

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(checkoutBody))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Errorf("expected 201 despite notification failure, got %d", rec.Code)
		}
	})
}

func TestHandleGet(t *testing.T) {
	store := newMemStore()
	mux := testMux(newTestHandler(store, &fakeNotifier{}))
	order := createOrder(t, mux)

	t.Run("returns the order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/"+order.ID, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var got domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.ID != order.ID || got.TotalCents != order.TotalCents {
			t.Errorf("unexpected order: %+v", got)
		}
	})

	t.Run("404 on absent id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/ORD-missing", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func patchStatus(mux *http.ServeMux, id, status string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, "/orders/"+id+"/status", strings.NewReader(`{"status":"`+status+`"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleUpdateStatus(t *testing.T) {
	t.Run("ships order, assigns tracking, dispatches shipped event", func(t *testing.T) {
		notifier := &fakeNotifier{}
		store := newMemStore()
		mux := testMux(newTestHandler(store, notifier))
		order := createOrder(t, mux)
		notifier.events = nil

		rec := patchStatus(mux, order.ID, "shipped")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var updated domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if updated.Status != domain.StatusShipped {
			t.Errorf("status = %s, want shipped", updated.Status)
		}
		if updated.TrackingNumber == "" || updated.EstimatedDelivery == nil {
			t.Error("expected tracking number and estimated delivery")
		}

		if len(notifier.events) != 1 {
			t.Fatalf("expected 1 shipped event, got %d", len(notifier.events))
		}
		if _, ok := notifier.events[0].(domain.OrderShippedEvent); !ok {
			t.Errorf("event is %T, want OrderShippedEvent", notifier.events[0])
		}

		// The persisted record carries the tracking assignment.
		stored, err := store.Get(context.Background(), order.ID)
		if err != nil || stored == nil {
			t.Fatalf("Get: %v, %v", stored, err)
		}
		if stored.TrackingNumber != updated.TrackingNumber {
			t.Error("persisted tracking differs from response")
		}
	})

	t.Run("rejects shipped to cancelled with 409", func(t *testing.T) {
		notifier := &fakeNotifier{}
		store := newMemStore()
		mux := testMux(newTestHandler(store, notifier))
		order := createOrder(t, mux)

		if rec := patchStatus(mux, order.ID, "shipped"); rec.Code != http.StatusOK {
			t.Fatalf("ship: got %d", rec.Code)
		}

		rec := patchStatus(mux, order.ID, "cancelled")
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}

		stored, _ := store.Get(context.Background(), order.ID)
		if stored.Status != domain.StatusShipped {
			t.Errorf("rejected transition persisted: %s", stored.Status)
		}
	})

	t.Run("repeated shipped request is rejected and does not re-dispatch", func(t *testing.T) {
		notifier := &fakeNotifier{}
		mux := testMux(newTestHandler(newMemStore(), notifier))
		order := createOrder(t, mux)
		notifier.events = nil

		if rec := patchStatus(mux, order.ID, "shipped"); rec.Code != http.StatusOK {
			t.Fatalf("first ship: got %d", rec.Code)
		}
		if rec := patchStatus(mux, order.ID, "shipped"); rec.Code != http.StatusConflict {
			t.Fatalf("second ship: expected 409, got %d", rec.Code)
		}
		if len(notifier.events) != 1 {
			t.Errorf("expected exactly 1 shipped event, got %d", len(notifier.events))
		}
	})

	t.Run("400 on unknown status", func(t *testing.T) {
		mux := testMux(newTestHandler(newMemStore(), &fakeNotifier{}))
		order := createOrder(t, mux)

		rec := patchStatus(mux, order.ID, "refunded")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("404 on absent order", func(t *testing.T) {
		mux := testMux(newTestHandler(newMemStore(), &fakeNotifier{}))
		rec := patchStatus(mux, "ORD-missing", "processing")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandleAppendNote(t *testing.T) {
	store := newMemStore()
	mux := testMux(newTestHandler(store, &fakeNotifier{}))
	order := createOrder(t, mux)

	body := `{"author": "admin@velure.example", "message": "expedite this one"}`
	req := httptest.NewRequest(http.MethodPost, "/orders/"+order.ID+"/notes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated domain.Order
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(updated.Notes) != 1 || updated.Notes[0].Message != "expedite this one" {
		t.Errorf("unexpected notes: %+v", updated.Notes)
	}
	if !updated.UpdatedAt.After(order.UpdatedAt) && !updated.UpdatedAt.Equal(order.UpdatedAt) {
		t.Error("updated_at not refreshed")
	}

	t.Run("rejects empty message", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/orders/"+order.ID+"/notes", strings.NewReader(`{"author": "a"}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleListAndStats(t *testing.T) {
	store := newMemStore()
	mux := testMux(newTestHandler(store, &fakeNotifier{}))
	order := createOrder(t, mux)
	if rec := patchStatus(mux, order.ID, "shipped"); rec.Code != http.StatusOK {
		t.Fatalf("ship: got %d", rec.Code)
	}

	t.Run("list all", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var got []domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 order, got %d", len(got))
		}
	})

	t.Run("filter by status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders?status=pending", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		var got []domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no pending orders, got %d", len(got))
		}
	})

	t.Run("bad status filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders?status=refunded", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("search", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders?q=ana", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		var got []domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 match, got %d", len(got))
		}
	})

	t.Run("stats", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders/stats", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var stats Stats
		if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if stats.Total != 1 || stats.TotalRevenueCents != 14997 {
			t.Errorf("unexpected stats: %+v", stats)
		}
	})
}

func TestHandleCustomerOrders(t *testing.T) {
	store := newMemStore()
	mux := testMux(newTestHandler(store, &fakeNotifier{}))
	createOrder(t, mux)

	req := httptest.NewRequest(http.MethodGet, "/customers/ana@example.com/orders", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []domain.Order
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Customer.Email != "ana@example.com" {
		t.Errorf("unexpected history: %+v", got)
	}

	t.Run("other customers see nothing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/customers/bruno@example.com/orders", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		var got []domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty history, got %d", len(got))
		}
	})
}

func TestDuplicateIDRetry(t *testing.T) {
	// A store that reports one duplicate forces the handler down the
	// regenerate-and-retry path.
	store := &duplicateOnceStore{memStore: newMemStore()}
	mux := testMux(newTestHandler(store, &fakeNotifier{}))

	order := createOrder(t, mux)
	if order.ID == "" {
		t.Error("expected order to be created after retry")
	}
	if store.creates != 2 {
		t.Errorf("expected 2 create attempts, got %d", store.creates)
	}
}

type duplicateOnceStore struct {
	*memStore
	creates int
}

func (s *duplicateOnceStore) Create(ctx context.Context, order *domain.Order) error {
	s.creates++
	if s.creates == 1 {
		return domain.ErrDuplicateID
	}
	return s.memStore.Create(ctx, order)
}
