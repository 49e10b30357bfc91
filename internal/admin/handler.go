package admin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/platform/httputil"
	adminmw "appetite/pkg/platform/middleware/admin"
	request "appetite/pkg/platform/middleware/request"
)

type Handler struct {
	service *Service
	token   string
	logger  *slog.Logger
}

func NewHandler(service *Service, token string, logger *slog.Logger) *Handler {
	return &Handler{service: service, token: token, logger: logger}
}

// Register mounts the operator routes behind the X-Admin-Token check.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(h.token, h.logger))
		r.Get("/status", h.HandleStatus)
		r.Post("/seed", h.HandleSeed)
	})
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status, err := h.service.Status(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to collect status", "request_id", request.GetRequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromStatus(status))
}

func (h *Handler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.service.Seed(ctx)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "seed failed", "request_id", request.GetRequestID(ctx), "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SeedResponse{Status: "success", Created: *report})
}
