package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/velure-store/orderdesk/internal/domain"
)

// EventPublisher hands events to the message broker for asynchronous
// notification dispatch.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event domain.Event) error
}

// Notifier dispatches a notification inline, used when no broker is
// configured.
type Notifier interface {
	Dispatch(ctx context.Context, event domain.Event) error
}

// Handler is the HTTP surface of the order lifecycle service: checkout
// creation, admin transitions and notes, the query/stats views, and the
// per-customer order history.
type Handler struct {
	store    OrderStore
	identity *Identity
	machine  *StateMachine
	query    *QueryService
	producer EventPublisher
	notifier Notifier
	logger   *slog.Logger
}

func NewHandler(store OrderStore, identity *Identity, machine *StateMachine, query *QueryService, producer EventPublisher, notifier Notifier, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		identity: identity,
		machine:  machine,
		query:    query,
		producer: producer,
		notifier: notifier,
		logger:   logger,
	}
}

type createOrderRequest struct {
	Customer        domain.Customer    `json:"customer"`
	Items           []domain.OrderItem `json:"items"`
	ShippingAddress domain.Address     `json:"shipping_address"`
	PaymentMethod   string             `json:"payment_method"`
}

func (r createOrderRequest) validate() string {
	if r.Customer.Email == "" {
		return "customer email is required"
	}
	if len(r.Items) == 0 {
		return "order must contain at least one item"
	}
	for _, item := range r.Items {
		if item.Quantity < 1 {
			return "item quantity must be at least 1"
		}
		if item.UnitPriceCents < 0 {
			return "item price must not be negative"
		}
	}
	return ""
}

// HandleCreate is the checkout completion path: all fields populated in one
// atomic write, status pending, total fixed from the line items.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := req.validate(); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              h.identity.NewOrderID(),
		Customer:        req.Customer,
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Status:          domain.StatusPending,
		TotalCents:      domain.ItemTotalCents(req.Items),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := h.store.Create(r.Context(), order)
	if errors.Is(err, domain.ErrDuplicateID) {
		// Same-millisecond collision; regenerate once before giving up.
		order.ID = h.identity.NewOrderID()
		err = h.store.Create(r.Context(), order)
	}
	if err != nil {
		h.logger.Error("failed to create order", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.emit(r.Context(), domain.OrderPlacedEvent{
		EventID:    domain.NewEventID(),
		OrderID:    order.ID,
		Customer:   order.Customer,
		Items:      order.Items,
		TotalCents: order.TotalCents,
		Timestamp:  order.CreatedAt,
	})

	h.logger.Info("order created", "order_id", order.ID, "customer_email", order.Customer.Email, "total_cents", order.TotalCents)
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateStatus runs the state machine inside the store's
// read-modify-write. Events are handed off only after the write commits;
// notification failure never fails the request.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target, err := domain.ParseStatus(req.Status)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unknown status: "+req.Status)
		return
	}

	var events []domain.Event
	order, err := h.store.Update(r.Context(), id, func(order *domain.Order) error {
		transitioned, terr := h.machine.Transition(order, target)
		events = transitioned
		return terr
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			h.writeError(w, http.StatusConflict, "invalid transition: "+err.Error())
		default:
			h.logger.Error("failed to update order status", "error", err, "id", id)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	for _, event := range events {
		h.emit(r.Context(), event)
	}

	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	h.writeJSON(w, http.StatusOK, order)
}

type appendNoteRequest struct {
	Author  string `json:"author"`
	Message string `json:"message"`
}

func (h *Handler) HandleAppendNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req appendNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		h.writeError(w, http.StatusBadRequest, "note message is required")
		return
	}

	order, err := h.store.Update(r.Context(), id, func(order *domain.Order) error {
		h.machine.AppendNote(order, req.Author, req.Message)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("failed to append note", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("note appended", "order_id", order.ID, "notes", len(order.Notes))
	h.writeJSON(w, http.StatusOK, order)
}

// HandleList serves the admin console grid: ?q= searches id, customer name
// and email; ?status= filters; defaults to the full set.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		result []domain.Order
		err    error
	)

	switch {
	case r.URL.Query().Get("q") != "":
		result, err = h.query.Search(r.Context(), r.URL.Query().Get("q"))
	case r.URL.Query().Get("status") != "":
		result, err = h.query.FilterByStatus(r.Context(), r.URL.Query().Get("status"))
	default:
		result, err = h.query.FilterByStatus(r.Context(), StatusAll)
	}
	if err != nil {
		if errors.Is(err, domain.ErrUnknownStatus) {
			h.writeError(w, http.StatusBadRequest, "unknown status: "+r.URL.Query().Get("status"))
			return
		}
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.query.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute stats", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// HandleCustomerOrders serves the customer order history, newest first.
func (h *Handler) HandleCustomerOrders(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if email == "" {
		h.writeError(w, http.StatusBadRequest, "missing customer email")
		return
	}

	result, err := h.query.ForCustomer(r.Context(), email)
	if err != nil {
		h.logger.Error("failed to list customer orders", "error", err, "customer_email", email)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// emit hands an event to exactly one delivery path: the broker when one is
// configured, otherwise inline dispatch. Failures are logged and swallowed —
// the state change has already committed and must not be rolled back.
func (h *Handler) emit(ctx context.Context, event domain.Event) {
	if h.producer != nil {
		if err := h.producer.PublishEvent(ctx, event); err != nil {
			h.logger.Error("failed to publish event", "error", err, "order_id", event.Order(), "type", event.EventType())
		}
		return
	}

	if h.notifier != nil {
		if err := h.notifier.Dispatch(ctx, event); err != nil {
			h.logger.Warn("notification failed", "error", err, "order_id", event.Order(), "type", event.EventType())
		}
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
