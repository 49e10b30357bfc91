package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"appetite/internal/analytics/models"
	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/platform/httputil"
	request "appetite/pkg/platform/middleware/request"
)

type Service interface {
	AddEvent(ctx context.Context, e *models.Event) (*models.Event, error)
	Fetch(ctx context.Context, r models.Range) (*models.Snapshot, error)
	Dashboard(ctx context.Context, since time.Time) (*models.Dashboard, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the telemetry routes (the /api/analytics group).
func (h *Handler) Register(r chi.Router) {
	r.Post("/add", h.HandleAddEvent)
	r.Get("/fetch", h.HandleFetch)
}

// RegisterDashboard mounts the canvas dashboard on an authenticated router.
func (h *Handler) RegisterDashboard(r chi.Router) {
	r.Get("/analytics", h.HandleDashboard)
}

func (h *Handler) HandleAddEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AddEventRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	e, err := h.service.AddEvent(ctx, req.toModel())
	if err != nil {
		h.writeFailure(ctx, w, "failed to record event", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AddEventResponse{
		Status:  "success",
		Message: "Event recorded",
		EventID: e.ID,
	})
}

func (h *Handler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	since, err := httputil.QueryTime(r, "since")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	until, err := httputil.QueryTime(r, "until")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	snap, err := h.service.Fetch(ctx, models.Range{Since: since, Until: until})
	if err != nil {
		h.writeFailure(ctx, w, "failed to fetch analytics", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSnapshot(snap))
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	since, err := httputil.QueryTime(r, "since")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.service.Dashboard(ctx, since)
	if err != nil {
		h.writeFailure(ctx, w, "failed to build dashboard", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDashboard(d))
}

func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	}
	httputil.WriteError(w, err)
}
