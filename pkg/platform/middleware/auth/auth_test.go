package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"appetite/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return s.claims, s.err
}

func okHandler(t *testing.T, wantUser string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantUser, requestcontext.UserID(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	valid := stubValidator{claims: &JWTClaims{UserID: "usr-001", Roles: []string{"agent"}}}

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireAuth(valid, logger)(okHandler(t, "")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		RequireAuth(stubValidator{err: errors.New("bad signature")}, logger)(okHandler(t, "")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token sets principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		RequireAuth(valid, logger)(okHandler(t, "usr-001")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := RequireRole(logger, "admin", "carrier")

	cases := []struct {
		name   string
		roles  []string
		userID string
		want   int
	}{
		{"anonymous", nil, "", http.StatusUnauthorized},
		{"agent forbidden", []string{"agent"}, "usr-003", http.StatusForbidden},
		{"carrier allowed", []string{"carrier"}, "usr-002", http.StatusNoContent},
		{"role match is case-insensitive", []string{"ADMIN"}, "usr-001", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.userID != "" {
				req = req.WithContext(requestcontext.WithPrincipal(req.Context(), tc.userID, "", tc.roles))
			}
			rec := httptest.NewRecorder()
			mw(okHandler(t, tc.userID)).ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
