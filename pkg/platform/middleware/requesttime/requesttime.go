// Package requesttime provides middleware for request-scoped time.
// Every timestamp written while serving one request (rule CreatedAt, submission
// EvaluatedAt, audit events) uses the same "now".
package requesttime

import (
	"net/http"
	"time"

	"appetite/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
