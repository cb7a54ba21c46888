package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/bookshop/internal/httpx/middlewares"
	"github.com/jcmexdev/bookshop/internal/ordering"
	"github.com/jcmexdev/bookshop/internal/ordering/domain"
	"github.com/jcmexdev/bookshop/internal/pkg/cache"
)

// idempotencyTTL bounds how long a replayed POST /orders returns the
// original order instead of creating a new one.
const idempotencyTTL = 24 * time.Hour

// Handler handles incoming HTTP requests for the ordering domain.
type Handler struct {
	service *ordering.Service
	cache   cache.Cache // nil-safe: idempotency replay skipped if nil
}

// NewHandler initializes the handler. c may be nil — in that case order
// creation is not idempotent across retries.
func NewHandler(service *ordering.Service, c cache.Cache) *Handler {
	return &Handler{
		service: service,
		cache:   c,
	}
}

// CreateOrder validates the request, reserves stock and persists the order
// in one transaction, and responds with the computed net amounts and total.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "items are required")
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.BookID == "" || it.Amount <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_item", "book_id and a positive amount are required")
			return
		}
		items = append(items, domain.OrderItem{
			BookID: it.BookID,
			Amount: it.Amount,
		})
	}

	idempKey := middlewares.IdempotencyKeyFromContext(r.Context())
	requestID := middlewares.RequestIDFromContext(r.Context())

	// A replayed request returns the order created the first time around;
	// stock is not decremented again.
	if orderID := h.lookupIdempotent(r.Context(), idempKey); orderID != "" {
		order, err := h.service.GetOrder(r.Context(), orderID)
		if err == nil {
			slog.InfoContext(r.Context(), "idempotent replay",
				"request_id", requestID, "order_id", orderID)
			writeJSON(w, http.StatusOK, mapOrderToResponse(order))
			return
		}
		slog.WarnContext(r.Context(), "idempotency key resolved to missing order",
			"order_id", orderID, "error", err)
	}

	slog.InfoContext(r.Context(), "creating order",
		"request_id", requestID, "items", len(items))

	order, err := h.service.CreateOrder(r.Context(), items)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.rememberIdempotent(r.Context(), idempKey, order.ID)

	writeJSON(w, http.StatusCreated, mapOrderToResponse(order))
}

// GetOrderByID retrieves a single order with freshly computed totals.
func (h *Handler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "order_id_required", "")
		return
	}

	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

// ListBooks returns the catalog with current prices and stock.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapBooksToResponse(books))
}

func (h *Handler) lookupIdempotent(ctx context.Context, key string) string {
	if h.cache == nil || key == "" {
		return ""
	}
	orderID, err := h.cache.Get(ctx, h.cache.GenerateKey("create-order", key))
	if err != nil {
		slog.WarnContext(ctx, "idempotency cache lookup failed", "error", err)
		return ""
	}
	return orderID
}

func (h *Handler) rememberIdempotent(ctx context.Context, key, orderID string) {
	if h.cache == nil || key == "" {
		return
	}
	if err := h.cache.Set(ctx, h.cache.GenerateKey("create-order", key), orderID, idempotencyTTL); err != nil {
		slog.WarnContext(ctx, "idempotency cache store failed", "error", err)
	}
}

// writeDomainError maps the domain's error kinds onto HTTP statuses:
// missing book/order -> 404, insufficient stock or bad items -> 400,
// anything else -> 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBookNotFound):
		writeError(w, http.StatusNotFound, "book_not_found", "Book does not exist.")
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", "Order does not exist.")
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusBadRequest, "out_of_stock", "Not enough books in stock.")
	case errors.Is(err, domain.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, "invalid_item", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
