package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"appetite/internal/rules/models"
	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/pagination"
	"appetite/pkg/platform/httputil"
	authmw "appetite/pkg/platform/middleware/auth"
	request "appetite/pkg/platform/middleware/request"
)

// Service is the rule write path.
type Service interface {
	Create(ctx context.Context, rule *models.Rule) (*models.Rule, error)
	Get(ctx context.Context, ruleID string) (*models.Rule, error)
	List(ctx context.Context, page, pageSize int, sortBy string) (pagination.Page[*models.Rule], error)
	Update(ctx context.Context, ruleID string, rule *models.Rule) (*models.Rule, error)
	Delete(ctx context.Context, ruleID string) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the rule routes on r, which must already require
// authentication.
func (h *Handler) Register(r chi.Router) {
	writers := authmw.RequireRole(h.logger, "admin", "carrier")
	admins := authmw.RequireRole(h.logger, "admin")

	r.Get("/rule/{id}", h.HandleGet)
	r.Get("/rules", h.HandleList)
	r.With(writers).Post("/rules", h.HandleCreate)
	r.With(writers).Put("/rule/{id}", h.HandleUpdate)
	r.With(admins).Delete("/rule/{id}", h.HandleDelete)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rule, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(ctx, w, "failed to get rule", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRule(rule))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, pageSize, err := httputil.PageParams(r, pagination.DefaultPageSize, pagination.MaxPageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.List(ctx, page, pageSize, strings.TrimSpace(r.URL.Query().Get("sortBy")))
	if err != nil {
		h.writeFailure(ctx, w, "failed to list rules", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.Map(result, FromRuleSummary))
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RuleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	rule, err := h.service.Create(ctx, req.toModel())
	if err != nil {
		h.writeFailure(ctx, w, "failed to create rule", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromRule(rule))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RuleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	rule, err := h.service.Update(ctx, chi.URLParam(r, "id"), req.toModel())
	if err != nil {
		h.writeFailure(ctx, w, "failed to update rule", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRule(rule))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeFailure(ctx, w, "failed to delete rule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	}
	httputil.WriteError(w, err)
}
