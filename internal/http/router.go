// Package httpapi assembles the public HTTP surface from the module handlers.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"appetite/internal/admin"
	analyticshandler "appetite/internal/analytics/handler"
	authhandler "appetite/internal/auth/handler"
	cataloghandler "appetite/internal/catalog/handler"
	checkerhandler "appetite/internal/checker/handler"
	"appetite/internal/platform/metrics"
	ruleshandler "appetite/internal/rules/handler"
	searchhandler "appetite/internal/search/handler"
	"appetite/pkg/platform/httputil"
	authmw "appetite/pkg/platform/middleware/auth"
	"appetite/pkg/platform/middleware/metadata"
	request "appetite/pkg/platform/middleware/request"
	"appetite/pkg/platform/middleware/requesttime"
)

// Deps are the handlers and cross-cutting collaborators the router mounts.
// Nil handlers leave their routes unmounted.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
	Tokens    authmw.JWTValidator
	Checker   *checkerhandler.Handler
	Search    *searchhandler.Handler
	Analytics *analyticshandler.Handler
	Auth      *authhandler.Handler
	Rules     *ruleshandler.Handler
	Catalog   *cataloghandler.Handler
	Admin     *admin.Handler
}

// NewRouter wires every route group:
//
//	/api/checker, /api/search, /api/analytics  public
//	/api/canvas                                login/register public, rest bearer-authenticated
//	/admin                                     X-Admin-Token
//	/metrics, /health                          operational
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(d.Metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Registry))
	}

	r.Route("/api", func(r chi.Router) {
		if d.Checker != nil {
			r.Route("/checker", d.Checker.Register)
		}
		if d.Search != nil {
			r.Route("/search", d.Search.Register)
		}
		if d.Analytics != nil {
			r.Route("/analytics", d.Analytics.Register)
		}
		r.Route("/canvas", func(r chi.Router) {
			if d.Auth != nil {
				d.Auth.RegisterPublic(r)
			}
			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireAuth(d.Tokens, d.Logger))
				if d.Auth != nil {
					d.Auth.Register(r)
				}
				if d.Rules != nil {
					d.Rules.Register(r)
				}
				if d.Catalog != nil {
					d.Catalog.Register(r)
				}
				if d.Analytics != nil {
					d.Analytics.RegisterDashboard(r)
				}
			})
		})
	})

	if d.Admin != nil {
		r.Route("/admin", d.Admin.Register)
	}
	return r
}
