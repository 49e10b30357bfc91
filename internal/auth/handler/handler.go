package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appetite/internal/auth/models"
	"appetite/internal/auth/service"
	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/pagination"
	"appetite/pkg/platform/httputil"
	authmw "appetite/pkg/platform/middleware/auth"
	request "appetite/pkg/platform/middleware/request"
)

// Service is the account surface used by the canvas.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Register(ctx context.Context, reg service.Registration) (*models.Credentials, error)
	CreateUser(ctx context.Context, name, email, role, organizationName string) (*models.Credentials, error)
	CreateProfile(ctx context.Context, name, email string, roles []string, organizationName string) (*models.Credentials, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	ListUsers(ctx context.Context, page, pageSize int, role string) (pagination.Page[*models.User], error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated login and signup routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/login", h.HandleLogin)
	r.Post("/register", h.HandleRegister)
}

// Register mounts the user routes on r, which must already require
// authentication.
func (h *Handler) Register(r chi.Router) {
	admins := authmw.RequireRole(h.logger, models.RoleAdmin)

	r.Get("/carrier/{id}", h.HandleGetUser)
	r.With(admins).Get("/carriers", h.HandleListUsers)
	r.With(admins).Post("/carriers", h.HandleCreateProfile)
	r.With(admins).Post("/create-user", h.HandleCreateUser)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	session, err := h.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		h.writeFailure(ctx, w, "login failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSession(session))
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	creds, err := h.service.Register(ctx, service.Registration{
		OrganizationType: req.OrganizationType,
		OrganizationName: req.OrganizationName,
		AdminName:        req.Admin.Name,
		AdminEmail:       req.Admin.Email,
		AdminPhone:       req.Admin.Phone,
	})
	if err != nil {
		h.writeFailure(ctx, w, "registration failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RegisterResponse{
		UserID:  creds.User.ID,
		Status:  "active",
		Message: "Registration successful. Temporary password: " + creds.TemporaryPassword,
	})
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := h.service.GetUser(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(ctx, w, "failed to get user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromUser(u))
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, pageSize, err := httputil.PageParams(r, pagination.DefaultPageSize, pagination.MaxPageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.ListUsers(ctx, page, pageSize, r.URL.Query().Get("role"))
	if err != nil {
		h.writeFailure(ctx, w, "failed to list users", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.Map(result, FromUserSummary))
}

func (h *Handler) HandleCreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ProfileRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	creds, err := h.service.CreateProfile(ctx, req.Name, req.Email, req.Roles, req.Organization.Name)
	if err != nil {
		h.writeFailure(ctx, w, "failed to create user profile", err)
		return
	}
	profile := FromUser(creds.User)
	profile.TemporaryPassword = creds.TemporaryPassword
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateUserRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	creds, err := h.service.CreateUser(ctx, req.Name, req.Email, req.Role, req.OrganizationName)
	if err != nil {
		h.writeFailure(ctx, w, "failed to create user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CreateUserResponse{
		UserID:            creds.User.ID,
		Email:             creds.User.Email,
		TemporaryPassword: creds.TemporaryPassword,
		Message:           "User created successfully",
	})
}

func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	}
	httputil.WriteError(w, err)
}
