package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// HeaderXIdempotencyKey is the header clients set to make POST /orders
// safe to retry.
const HeaderXIdempotencyKey = "x-idempotency-key"

// contextKey is an unexported type for context keys in this package, so
// values cannot collide with keys from other packages.
type contextKey string

const (
	ctxKeyRequestID      contextKey = "request_id"
	ctxKeyIdempotencyKey contextKey = "idempotency_key"
)

// AttachRequestMetadata copies the chi request ID and the client-supplied
// idempotency key into typed context values for the handlers.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, middleware.GetReqID(r.Context()))
		ctx = context.WithValue(ctx, ctxKeyIdempotencyKey, r.Header.Get(HeaderXIdempotencyKey))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// IdempotencyKeyFromContext returns the client's idempotency key, or "".
func IdempotencyKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(ctxKeyIdempotencyKey).(string)
	return key
}
