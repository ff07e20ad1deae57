package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/velure-store/orderdesk/internal/domain"
)

// Notifier is satisfied by notify.Dispatcher.
type Notifier interface {
	Dispatch(ctx context.Context, event domain.Event) error
}

// NotificationHandler decodes order lifecycle events off the broker and hands
// them to the notification dispatcher. Notification is best-effort: a failed
// send is logged and the message is still committed, so the order's state is
// never affected and a poisoned email address cannot wedge the topic.
type NotificationHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

func NewNotificationHandler(notifier Notifier, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		logger:   logger,
	}
}

func (h *NotificationHandler) Handle(ctx context.Context, payload []byte) error {
	var env domain.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}

	event, err := domain.UnwrapEvent(env)
	if err != nil {
		// Unknown event types are skipped, not retried: redelivering them
		// can never succeed.
		h.logger.Warn("dropping undecodable event", "error", err, "type", env.Type)
		return nil
	}

	h.logger.Info("processing event", "type", event.EventType(), "order_id", event.Order())

	if err := h.notifier.Dispatch(ctx, event); err != nil {
		if errors.Is(err, domain.ErrNotificationFailure) {
			h.logger.Warn("notification failed", "error", err, "order_id", event.Order(), "type", event.EventType())
			return nil
		}
		return err
	}

	return nil
}
