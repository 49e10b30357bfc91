package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appetite/internal/catalog/models"
	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/pagination"
	"appetite/pkg/platform/httputil"
	authmw "appetite/pkg/platform/middleware/auth"
	request "appetite/pkg/platform/middleware/request"
)

// Service is the catalog surface used by the canvas.
type Service interface {
	GetCarrier(ctx context.Context, carrierID string) (*models.Carrier, error)
	ListCarriers(ctx context.Context, page, pageSize int) (pagination.Page[*models.Carrier], error)
	CreateCarrier(ctx context.Context, c *models.Carrier) (*models.Carrier, error)
	UpdateCarrier(ctx context.Context, carrierID string, c *models.Carrier) (*models.Carrier, error)
	DeleteCarrier(ctx context.Context, carrierID string) error
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	ListProducts(ctx context.Context, carrier string, page, pageSize int) (pagination.Page[*models.Product], error)
	CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the carrier and product routes on r, which must already
// require authentication.
func (h *Handler) Register(r chi.Router) {
	admins := authmw.RequireRole(h.logger, "admin")
	writers := authmw.RequireRole(h.logger, "admin", "carrier")

	r.Get("/carrier-details/{id}", h.HandleGetCarrier)
	r.Get("/carriers-list", h.HandleListCarriers)
	r.With(admins).Post("/carrier-details", h.HandleCreateCarrier)
	r.With(admins).Put("/carrier-details/{id}", h.HandleUpdateCarrier)
	r.With(admins).Delete("/carrier-details/{id}", h.HandleDeleteCarrier)

	r.Get("/product/{id}", h.HandleGetProduct)
	r.Get("/products", h.HandleListProducts)
	r.With(writers).Post("/products", h.HandleCreateProduct)
}

func (h *Handler) HandleGetCarrier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.service.GetCarrier(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(ctx, w, "failed to get carrier", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCarrier(c))
}

func (h *Handler) HandleListCarriers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, pageSize, err := httputil.PageParams(r, pagination.DefaultPageSize, pagination.MaxPageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.ListCarriers(ctx, page, pageSize)
	if err != nil {
		h.writeFailure(ctx, w, "failed to list carriers", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.Map(result, FromCarrierSummary))
}

func (h *Handler) HandleCreateCarrier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CarrierRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	c, err := h.service.CreateCarrier(ctx, req.toModel())
	if err != nil {
		h.writeFailure(ctx, w, "failed to create carrier", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromCarrier(c))
}

func (h *Handler) HandleUpdateCarrier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CarrierRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	c, err := h.service.UpdateCarrier(ctx, chi.URLParam(r, "id"), req.toModel())
	if err != nil {
		h.writeFailure(ctx, w, "failed to update carrier", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCarrier(c))
}

func (h *Handler) HandleDeleteCarrier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.DeleteCarrier(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeFailure(ctx, w, "failed to delete carrier", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.service.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(ctx, w, "failed to get product", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProduct(p))
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, pageSize, err := httputil.PageParams(r, pagination.DefaultPageSize, pagination.MaxPageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.ListProducts(ctx, r.URL.Query().Get("carrier"), page, pageSize)
	if err != nil {
		h.writeFailure(ctx, w, "failed to list products", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.Map(result, FromProductSummary))
}

func (h *Handler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ProductRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	p, err := h.service.CreateProduct(ctx, req.toModel())
	if err != nil {
		h.writeFailure(ctx, w, "failed to create product", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromProduct(p))
}

func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	}
	httputil.WriteError(w, err)
}
