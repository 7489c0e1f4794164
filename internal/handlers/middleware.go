package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDContextKey is the context key the structured logger reads the
// request ID from.
const requestIDContextKey = "request_id"

// RequestID assigns each request a unique ID, echoes it in the
// X-Request-Id response header and stores it in the request context so log
// entries can be correlated per request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-Id", requestID)

		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
