package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/velure-store/orderdesk/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func shippedEvent() domain.OrderShippedEvent {
	return domain.OrderShippedEvent{
		EventID:           domain.NewEventID(),
		OrderID:           "ORD-1",
		Customer:          domain.Customer{FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com"},
		TrackingNumber:    "TRK17000000000001",
		EstimatedDelivery: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Timestamp:         time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC),
	}
}

func TestDispatchShippedEvent(t *testing.T) {
	var received struct {
		To       string `json:"to"`
		Subject  string `json:"subject"`
		HTMLBody string `json:"html_body"`
	}

	emailServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send" {
			t.Errorf("expected /send, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode send request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message_id":"msg-1"}`))
	}))
	defer emailServer.Close()

	d := NewDispatcher(emailServer.URL, emailServer.Client(), discardLogger(),
		WithCarrier("UPS"),
		WithTrackingBaseURL("https://tracking.velure.example/"),
	)

	if err := d.Dispatch(context.Background(), shippedEvent()); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if received.To != "ana@example.com" {
		t.Errorf("to = %q", received.To)
	}
	if !strings.Contains(received.Subject, "ORD-1") {
		t.Errorf("subject %q missing order id", received.Subject)
	}
	if !strings.Contains(received.HTMLBody, "TRK17000000000001") {
		t.Errorf("body missing tracking number: %s", received.HTMLBody)
	}
	if !strings.Contains(received.HTMLBody, "https://tracking.velure.example/TRK17000000000001") {
		t.Errorf("body missing tracking URL: %s", received.HTMLBody)
	}
	if !strings.Contains(received.HTMLBody, "UPS") {
		t.Errorf("body missing carrier label: %s", received.HTMLBody)
	}
}

func TestDispatchPlacedEvent(t *testing.T) {
	var subject string
	emailServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		subject = req["subject"]
		_, _ = w.Write([]byte(`{"message_id":"msg-2"}`))
	}))
	defer emailServer.Close()

	d := NewDispatcher(emailServer.URL, emailServer.Client(), discardLogger())

	event := domain.OrderPlacedEvent{
		EventID:    domain.NewEventID(),
		OrderID:    "ORD-2",
		Customer:   domain.Customer{FirstName: "Bruno", Email: "bruno@example.com"},
		Items:      []domain.OrderItem{{ItemID: "ITEM-1", UnitPriceCents: 5000, Quantity: 1}},
		TotalCents: 5000,
	}
	if err := d.Dispatch(context.Background(), event); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.Contains(subject, "ORD-2") {
		t.Errorf("subject %q missing order id", subject)
	}
}

func TestDispatchFailureWrapsNotificationFailure(t *testing.T) {
	emailServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer emailServer.Close()

	d := NewDispatcher(emailServer.URL, emailServer.Client(), discardLogger())

	err := d.Dispatch(context.Background(), shippedEvent())
	if !errors.Is(err, domain.ErrNotificationFailure) {
		t.Fatalf("expected ErrNotificationFailure, got %v", err)
	}
}

func TestDispatchIsDuplicateTolerant(t *testing.T) {
	// Re-dispatching the same event is not an error; it just sends again.
	var sends int
	emailServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sends++
		_, _ = w.Write([]byte(`{"message_id":"msg"}`))
	}))
	defer emailServer.Close()

	d := NewDispatcher(emailServer.URL, emailServer.Client(), discardLogger())

	event := shippedEvent()
	for i := 0; i < 2; i++ {
		if err := d.Dispatch(context.Background(), event); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	if sends != 2 {
		t.Errorf("expected 2 sends, got %d", sends)
	}
}
