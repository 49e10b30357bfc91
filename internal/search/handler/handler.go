package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"appetite/internal/rules/models"
	"appetite/internal/search/service"
	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/pagination"
	"appetite/pkg/platform/httputil"
	request "appetite/pkg/platform/middleware/request"
)

// Service is the rule search surface.
type Service interface {
	GetRules(ctx context.Context, page, pageSize int, sortBy, q string) (pagination.Page[*models.Rule], error)
	GetRulesByKeyword(ctx context.Context, keyword string, page, pageSize int) (pagination.Page[*models.Rule], error)
	GetRulesByNaics(ctx context.Context, naics string, page, pageSize int) (pagination.Page[*models.Rule], error)
	GetRulesByBusinessType(ctx context.Context, businessType string, page, pageSize int) (pagination.Page[*models.Rule], error)
	GetRulesByCustomFilter(ctx context.Context, f service.CustomFilter) (pagination.Page[*models.Rule], error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the search routes on r (the /api/search group).
func (h *Handler) Register(r chi.Router) {
	r.Get("/getRules", h.HandleGetRules)
	r.Get("/getRulesByKeyword", h.HandleGetRulesByKeyword)
	r.Get("/getRulesByNaics/{naicsCode}", h.HandleGetRulesByNaics)
	r.Get("/getRulesByBusinessType/{type}", h.HandleGetRulesByBusinessType)
	r.Post("/getRulesByCustomFilter", h.HandleGetRulesByCustomFilter)
}

func (h *Handler) HandleGetRules(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := h.pageParams(w, r, service.DefaultPageSize)
	if !ok {
		return
	}
	q := r.URL.Query()
	result, err := h.service.GetRules(r.Context(), page, pageSize, q.Get("sortBy"), q.Get("q"))
	h.respond(w, r, result, err)
}

func (h *Handler) HandleGetRulesByKeyword(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "keyword is required"))
		return
	}
	page, pageSize, ok := h.pageParams(w, r, service.DefaultKeywordPageSize)
	if !ok {
		return
	}
	result, err := h.service.GetRulesByKeyword(r.Context(), keyword, page, pageSize)
	h.respond(w, r, result, err)
}

func (h *Handler) HandleGetRulesByNaics(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := h.pageParams(w, r, service.DefaultNaicsPageSize)
	if !ok {
		return
	}
	result, err := h.service.GetRulesByNaics(r.Context(), chi.URLParam(r, "naicsCode"), page, pageSize)
	h.respond(w, r, result, err)
}

func (h *Handler) HandleGetRulesByBusinessType(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := h.pageParams(w, r, service.DefaultBusinessTypePageSize)
	if !ok {
		return
	}
	result, err := h.service.GetRulesByBusinessType(r.Context(), chi.URLParam(r, "type"), page, pageSize)
	h.respond(w, r, result, err)
}

func (h *Handler) HandleGetRulesByCustomFilter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CustomFilterRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	result, err := h.service.GetRulesByCustomFilter(ctx, req.toFilter())
	h.respond(w, r, result, err)
}

func (h *Handler) pageParams(w http.ResponseWriter, r *http.Request, defPageSize int) (int, int, bool) {
	page, pageSize, err := httputil.PageParams(r, defPageSize, pagination.MaxPageSize)
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid pagination",
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return 0, 0, false
	}
	return page, pageSize, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, result pagination.Page[*models.Rule], err error) {
	if err != nil {
		h.logger.ErrorContext(r.Context(), "rule search failed",
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.Map(result, FromRule))
}
