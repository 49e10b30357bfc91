package testutil

import (
	"net/http"

	"appetite/pkg/requestcontext"
)

// WithPrincipal attaches an authenticated principal to the request context,
// the same way the auth middleware does.
func WithPrincipal(req *http.Request, userID, email string, roles ...string) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), userID, email, roles))
}

// WithAdmin is shorthand for an authenticated admin request.
func WithAdmin(req *http.Request) *http.Request {
	return WithPrincipal(req, "usr-001", "admin@appetitechecker.com", "admin")
}

// WithRequestID sets the correlation id handlers read for logging.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
