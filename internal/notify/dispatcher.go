package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/velure-store/orderdesk/internal/domain"
)

const (
	defaultCarrier     = "FedEx"
	defaultTrackingURL = "https://track.example.com/"
)

// Dispatcher translates domain events into outbound email requests against
// the email service. Sends are best-effort: a failure is reported to the
// caller for logging but must never roll back the state change that produced
// the event. Dispatching the same event twice may duplicate an email; that is
// tolerated, not prevented.
type Dispatcher struct {
	emailServiceURL string
	carrier         string
	trackingBaseURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

type Option func(*Dispatcher)

// WithCarrier overrides the carrier label printed in shipping emails.
func WithCarrier(label string) Option {
	return func(d *Dispatcher) {
		d.carrier = label
	}
}

// WithTrackingBaseURL overrides the base used to build tracking links.
func WithTrackingBaseURL(base string) Option {
	return func(d *Dispatcher) {
		d.trackingBaseURL = base
	}
}

func NewDispatcher(emailServiceURL string, client *http.Client, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		emailServiceURL: emailServiceURL,
		carrier:         defaultCarrier,
		trackingBaseURL: defaultTrackingURL,
		httpClient:      client,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type sendRequest struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
}

// Dispatch maps the event to an email and sends it. Unknown event types are
// skipped silently so new events never break the worker.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.Event) error {
	var req sendRequest

	switch e := event.(type) {
	case domain.OrderPlacedEvent:
		req = d.confirmationEmail(e)
	case domain.OrderShippedEvent:
		req = d.shippingEmail(e)
	default:
		d.logger.Info("skipping event with no notification mapping", "type", event.EventType(), "order_id", event.Order())
		return nil
	}

	messageID, err := d.send(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: order %s event %s: %v", domain.ErrNotificationFailure, event.Order(), event.EventType(), err)
	}

	d.logger.Info("notification sent", "order_id", event.Order(), "type", event.EventType(), "message_id", messageID)
	return nil
}

func (d *Dispatcher) confirmationEmail(e domain.OrderPlacedEvent) sendRequest {
	return sendRequest{
		To:      e.Customer.Email,
		Subject: "Order Confirmation: " + e.OrderID,
		HTMLBody: fmt.Sprintf(
			"<p>Hi %s,</p><p>Thanks for your order <strong>%s</strong> (%d items, $%d.%02d). We'll let you know when it ships.</p>",
			e.Customer.FirstName, e.OrderID, len(e.Items), e.TotalCents/100, e.TotalCents%100,
		),
	}
}

func (d *Dispatcher) shippingEmail(e domain.OrderShippedEvent) sendRequest {
	trackingURL := d.trackingBaseURL + e.TrackingNumber
	return sendRequest{
		To:      e.Customer.Email,
		Subject: "Your order has shipped: " + e.OrderID,
		HTMLBody: fmt.Sprintf(
			"<p>Hi %s,</p><p>Your order <strong>%s</strong> shipped via %s.</p>"+
				"<p>Tracking number: <a href=%q>%s</a></p><p>Estimated delivery: %s.</p>",
			e.Customer.FirstName, e.OrderID, d.carrier,
			trackingURL, e.TrackingNumber,
			e.EstimatedDelivery.Format("Monday, January 2"),
		),
	}
}

func (d *Dispatcher) send(ctx context.Context, email sendRequest) (string, error) {
	data, err := json.Marshal(email)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	var sent sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sent); err != nil {
		return "", fmt.Errorf("decode email service response: %w", err)
	}

	return sent.MessageID, nil
}
