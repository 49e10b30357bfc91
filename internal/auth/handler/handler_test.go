package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"appetite/internal/auth/lockout"
	"appetite/internal/auth/models"
	"appetite/internal/auth/password"
	"appetite/internal/auth/service"
	"appetite/internal/auth/store"
	jwttoken "appetite/internal/jwt_token"
	"appetite/pkg/pagination"
	"appetite/pkg/testutil"
)

type AuthHandlerSuite struct {
	suite.Suite
	router chi.Router
	users  *store.InMemory
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.users = store.NewInMemory()
	hash, err := password.Hash("Admin123!")
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(context.Background(), &models.User{
		ID:           "usr-001",
		Name:         "Admin User",
		Email:        "admin@appetitechecker.com",
		PasswordHash: hash,
		Roles:        []string{models.RoleAdmin},
		IsActive:     true,
		AuthProvider: models.AuthProviderLocal,
	}))

	svc, err := service.New(s.users, lockout.NewInMemory(lockout.DefaultPolicy),
		jwttoken.NewJWTService("test-signing-key", "appetite", "appetite-api"),
		service.WithLogger(logger))
	s.Require().NoError(err)

	h := New(svc, logger)
	s.router = chi.NewRouter()
	h.RegisterPublic(s.router)
	h.Register(s.router)
}

func (s *AuthHandlerSuite) TestLogin() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/login", map[string]string{
		"username": "admin@appetitechecker.com",
		"password": "Admin123!",
	})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)

	resp := testutil.UnmarshalResponse[LoginResponse](s.T(), rr)
	s.NotEmpty(resp.AccessToken)
	s.Equal("Bearer", resp.TokenType)
	s.Equal(3600, resp.ExpiresIn)
	s.Equal("usr-001", resp.User.ID)
	s.NotNil(resp.User.LastLoginAt)
	s.Equal("local", resp.User.AuthProvider)
}

func (s *AuthHandlerSuite) TestLoginFailures() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/login", map[string]string{
		"username": "admin@appetitechecker.com",
		"password": "nope",
	}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	s.Equal("Invalid credentials", testutil.UnmarshalErrorResponse(s.T(), rr)["error_description"])

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/login", map[string]string{
		"username": "admin@appetitechecker.com",
	}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *AuthHandlerSuite) TestRegister() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/register", map[string]any{
		"organizationType": "carrier",
		"organizationName": "Acme Insurance",
		"admin":            map[string]string{"name": "Jane", "email": "jane@acme.com", "phone": "555-0100"},
	}))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[RegisterResponse](s.T(), rr)
	s.Equal("usr-002", resp.UserID)
	s.Equal("active", resp.Status)
	s.True(strings.HasPrefix(resp.Message, "Registration successful. Temporary password: "))

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/register", map[string]any{
		"organizationName": "Acme Insurance",
		"admin":            map[string]string{"name": "Jane", "email": "jane@acme.com"},
	}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
}

func (s *AuthHandlerSuite) TestCreateUserRequiresAdmin() {
	body := map[string]string{"name": "Agent", "email": "agent@example.com", "role": "agent"}

	req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, "/create-user", body),
		"usr-002", "carrier@example.com", "carrier")
	s.Equal(http.StatusForbidden, testutil.DoRequest(s.router, req).Code)

	rr := testutil.DoRequest(s.router, testutil.WithAdmin(testutil.NewJSONRequest(s.T(), http.MethodPost, "/create-user", body)))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[CreateUserResponse](s.T(), rr)
	s.Equal("usr-002", resp.UserID)
	s.Equal("User created successfully", resp.Message)
	s.Len(resp.TemporaryPassword, 12)
}

func (s *AuthHandlerSuite) TestCreateProfileAndList() {
	rr := testutil.DoRequest(s.router, testutil.WithAdmin(testutil.NewJSONRequest(s.T(), http.MethodPost, "/carriers", map[string]any{
		"name":         "Carrier Ops",
		"email":        "ops@carrier.com",
		"roles":        []string{"carrier"},
		"organization": map[string]string{"name": "Carrier Co"},
	})))
	testutil.AssertStatusOK(s.T(), rr)
	profile := testutil.UnmarshalResponse[UserProfile](s.T(), rr)
	s.Equal("usr-002", profile.ID)
	s.Equal("org-002", profile.Organization.ID)
	s.NotEmpty(profile.TemporaryPassword)

	rr = testutil.DoRequest(s.router, testutil.WithAdmin(testutil.NewRequest(s.T(), http.MethodGet, "/carriers?role=carrier")))
	testutil.AssertStatusOK(s.T(), rr)
	page := testutil.UnmarshalResponse[pagination.Page[UserSummary]](s.T(), rr)
	s.Equal(1, page.Pagination.TotalItems)
	s.Equal("ops@carrier.com", page.Data[0].Email)
}

func (s *AuthHandlerSuite) TestGetUserSelfOrAdmin() {
	rr := testutil.DoRequest(s.router, testutil.WithAdmin(testutil.NewRequest(s.T(), http.MethodGet, "/carrier/usr-001")))
	testutil.AssertStatusOK(s.T(), rr)
	s.Equal("admin@appetitechecker.com", testutil.UnmarshalResponse[UserProfile](s.T(), rr).Email)

	req := testutil.WithPrincipal(testutil.NewRequest(s.T(), http.MethodGet, "/carrier/usr-001"),
		"usr-009", "agent@example.com", "agent")
	testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusForbidden, "forbidden")

	rr = testutil.DoRequest(s.router, testutil.WithAdmin(testutil.NewRequest(s.T(), http.MethodGet, "/carrier/usr-404")))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}
