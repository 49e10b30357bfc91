package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"appetite/internal/auth/lockout"
	"appetite/internal/auth/mocks"
	"appetite/internal/auth/models"
	"appetite/internal/auth/password"
	"appetite/internal/auth/store"
	catalogmodels "appetite/internal/catalog/models"
	jwttoken "appetite/internal/jwt_token"
	"appetite/internal/platform/metrics"
	dErrors "appetite/pkg/domain-errors"
	audit "appetite/pkg/platform/audit"
	auditmemory "appetite/pkg/platform/audit/store/memory"
	"appetite/pkg/platform/sentinel"
	"appetite/pkg/requestcontext"
)

type auditRecorder struct {
	store *auditmemory.InMemoryStore
}

func (a auditRecorder) Emit(ctx context.Context, e audit.Event) error {
	return a.store.Append(ctx, e)
}

type AuthServiceSuite struct {
	suite.Suite
	users   *store.InMemory
	audits  *auditmemory.InMemoryStore
	metrics *metrics.Metrics
	jwt     *jwttoken.JWTService
	service *Service
	now     time.Time
	ctx     context.Context
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.users = store.NewInMemory()
	s.audits = auditmemory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.jwt = jwttoken.NewJWTService("test-signing-key", "appetite", "appetite-api")
	s.now = time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	svc, err := New(s.users, lockout.NewInMemory(lockout.DefaultPolicy), s.jwt,
		WithAuditPublisher(auditRecorder{store: s.audits}),
		WithMetrics(s.metrics),
		WithTokenTTL(time.Hour),
	)
	s.Require().NoError(err)
	s.service = svc

	hash, err := password.Hash("Admin123!")
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(s.ctx, &models.User{
		ID:           "usr-001",
		Name:         "Admin User",
		Email:        "admin@appetitechecker.com",
		PasswordHash: hash,
		Roles:        []string{models.RoleAdmin},
		IsActive:     true,
		AuthProvider: models.AuthProviderLocal,
	}))
}

func (s *AuthServiceSuite) at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *AuthServiceSuite) TestNewRequiresDependencies() {
	_, err := New(nil, lockout.NewInMemory(lockout.DefaultPolicy), s.jwt)
	s.Error(err)
	_, err = New(s.users, nil, s.jwt)
	s.Error(err)
	_, err = New(s.users, lockout.NewInMemory(lockout.DefaultPolicy), nil)
	s.Error(err)
}

func (s *AuthServiceSuite) TestLoginIssuesToken() {
	session, err := s.service.Login(s.ctx, " Admin@AppetiteChecker.com ", "Admin123!")
	s.Require().NoError(err)
	s.Equal("Bearer", session.TokenType)
	s.Equal(time.Hour, session.ExpiresIn)
	s.Equal("usr-001", session.User.ID)
	s.Require().NotNil(session.User.LastLoginAt)
	s.Equal(s.now, *session.User.LastLoginAt)

	claims, err := s.jwt.ParseToken(session.AccessToken)
	s.Require().NoError(err)
	s.Equal("usr-001", claims.UserID)
	s.Equal([]string{"admin"}, claims.Roles)

	stored, err := s.users.GetByID(s.ctx, "usr-001")
	s.Require().NoError(err)
	s.Require().NotNil(stored.LastLoginAt)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.LoginAttempts.WithLabelValues("success")))
	events, err := s.audits.ListRecent(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(string(audit.EventLoginSucceeded), events[0].Action)
}

func (s *AuthServiceSuite) TestLoginRejectsUnknownAndInactiveUsers() {
	_, err := s.service.Login(s.ctx, "nobody@example.com", "Admin123!")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Equal("Invalid credentials", errMessage(err))

	u, err := s.users.GetByID(s.ctx, "usr-001")
	s.Require().NoError(err)
	u.IsActive = false
	s.Require().NoError(s.users.Update(s.ctx, u))

	_, err = s.service.Login(s.ctx, "admin@appetitechecker.com", "Admin123!")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestLockoutAfterRepeatedFailures() {
	for range 5 {
		_, err := s.service.Login(s.ctx, "admin@appetitechecker.com", "wrong")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("Invalid credentials", errMessage(err))
	}

	_, err := s.service.Login(s.at(s.now.Add(time.Minute)), "admin@appetitechecker.com", "Admin123!")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Equal("Account is locked. Try again later.", errMessage(err))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.AccountLockouts))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.LoginAttempts.WithLabelValues("locked")))

	session, err := s.service.Login(s.at(s.now.Add(16*time.Minute)), "admin@appetitechecker.com", "Admin123!")
	s.Require().NoError(err)
	s.Equal("usr-001", session.User.ID)

	var lockouts int
	events, err := s.audits.ListRecent(s.ctx, 100)
	s.Require().NoError(err)
	for _, e := range events {
		if e.Action == string(audit.EventAuthLockout) {
			lockouts++
		}
	}
	s.Equal(1, lockouts)
}

func (s *AuthServiceSuite) TestSuccessfulLoginResetsFailureCount() {
	for range 4 {
		_, _ = s.service.Login(s.ctx, "admin@appetitechecker.com", "wrong")
	}
	_, err := s.service.Login(s.ctx, "admin@appetitechecker.com", "Admin123!")
	s.Require().NoError(err)

	for range 4 {
		_, _ = s.service.Login(s.ctx, "admin@appetitechecker.com", "wrong")
	}
	_, err = s.service.Login(s.ctx, "admin@appetitechecker.com", "Admin123!")
	s.NoError(err)
}

func (s *AuthServiceSuite) TestLoginLockoutStoreFailure() {
	ctrl := gomock.NewController(s.T())
	lockouts := mocks.NewMockLockoutStore(ctrl)
	lockouts.EXPECT().Locked(gomock.Any(), "usr-001", s.now).Return(false, time.Time{}, errors.New("redis down"))

	svc, err := New(s.users, lockouts, s.jwt)
	s.Require().NoError(err)
	_, err = svc.Login(s.ctx, "admin@appetitechecker.com", "Admin123!")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *AuthServiceSuite) TestLoginTokenFailure() {
	ctrl := gomock.NewController(s.T())
	tokens := mocks.NewMockTokenIssuer(ctrl)
	tokens.EXPECT().
		GenerateAccessToken("usr-001", "admin@appetitechecker.com", []string{"admin"}, s.now, time.Hour).
		Return("", errors.New("signing failed"))

	svc, err := New(s.users, lockout.NewInMemory(lockout.DefaultPolicy), tokens)
	s.Require().NoError(err)
	_, err = svc.Login(s.ctx, "admin@appetitechecker.com", "Admin123!")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *AuthServiceSuite) TestRegisterCreatesAdminWithTemporaryPassword() {
	creds, err := s.service.Register(s.ctx, Registration{
		OrganizationType: "carrier",
		OrganizationName: "Acme Insurance",
		AdminName:        "Jane Doe",
		AdminEmail:       "Jane@Acme.com",
		AdminPhone:       "555-0100",
	})
	s.Require().NoError(err)
	s.Equal("usr-002", creds.User.ID)
	s.Equal("org-002", creds.User.OrganizationID)
	s.Equal("jane@acme.com", creds.User.Email)
	s.Equal([]string{models.RoleAdmin}, creds.User.Roles)
	s.Len(creds.TemporaryPassword, 12)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.UsersCreated))

	session, err := s.service.Login(s.ctx, "jane@acme.com", creds.TemporaryPassword)
	s.Require().NoError(err)
	s.Equal("usr-002", session.User.ID)
}

func (s *AuthServiceSuite) TestRegisterConflict() {
	_, err := s.service.Register(s.ctx, Registration{
		OrganizationName: "Dup",
		AdminName:        "Admin",
		AdminEmail:       "admin@appetitechecker.com",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal("User with this email already exists", errMessage(err))
}

func (s *AuthServiceSuite) TestCreateUser() {
	creds, err := s.service.CreateUser(s.ctx, "Agent Smith", "agent@example.com", "Agent", "Brokers Inc")
	s.Require().NoError(err)
	s.Equal([]string{models.RoleAgent}, creds.User.Roles)
	s.Equal("Brokers Inc", creds.User.OrganizationName)
	s.NotEmpty(creds.TemporaryPassword)

	_, err = s.service.CreateUser(s.ctx, "Agent Smith", "agent@example.com", "agent", "")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal("User already exists", errMessage(err))

	_, err = s.service.CreateUser(s.ctx, "Bad", "bad@example.com", "superuser", "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.CreateUser(s.ctx, "Bad", "not-an-email", "agent", "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *AuthServiceSuite) TestCreateProfileProvisionsCarrier() {
	ctrl := gomock.NewController(s.T())
	carriers := mocks.NewMockCarrierProvisioner(ctrl)
	carriers.EXPECT().CreateCarrier(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c *catalogmodels.Carrier) (*catalogmodels.Carrier, error) {
			s.Equal("Acme Insurance", c.LegalName)
			s.Equal("Acme Insurance", c.DisplayName)
			s.Equal("ops@acme.com", c.PrimaryContactEmail)
			s.Equal("system", c.CreatedBy)
			c.ID = "car-001"
			return c, nil
		})

	svc, err := New(s.users, lockout.NewInMemory(lockout.DefaultPolicy), s.jwt, WithCarrierProvisioner(carriers))
	s.Require().NoError(err)

	creds, err := svc.CreateProfile(s.ctx, "Ops", "ops@acme.com", []string{"carrier", "Carrier", "agent"}, "Acme Insurance")
	s.Require().NoError(err)
	s.Equal([]string{models.RoleCarrier, models.RoleAgent}, creds.User.Roles)
}

func (s *AuthServiceSuite) TestCreateProfileCarrierFailureRemovesUser() {
	ctrl := gomock.NewController(s.T())
	carriers := mocks.NewMockCarrierProvisioner(ctrl)
	gomock.InOrder(
		carriers.EXPECT().CreateCarrier(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInternal, "carrier store unavailable")),
		carriers.EXPECT().CreateCarrier(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c *catalogmodels.Carrier) (*catalogmodels.Carrier, error) {
				c.ID = "car-001"
				return c, nil
			}),
	)

	svc, err := New(s.users, lockout.NewInMemory(lockout.DefaultPolicy), s.jwt,
		WithCarrierProvisioner(carriers),
		WithAuditPublisher(auditRecorder{store: s.audits}),
	)
	s.Require().NoError(err)

	_, err = svc.CreateProfile(s.ctx, "Ops", "ops@acme.com", []string{"carrier"}, "Acme Insurance")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = s.users.GetByEmail(s.ctx, "ops@acme.com")
	s.ErrorIs(err, sentinel.ErrNotFound, "incomplete account is removed")
	events, err := s.audits.ListRecent(s.ctx, 100)
	s.Require().NoError(err)
	s.Empty(events)

	creds, err := svc.CreateProfile(s.ctx, "Ops", "ops@acme.com", []string{"carrier"}, "Acme Insurance")
	s.Require().NoError(err)
	s.Equal("usr-003", creds.User.ID, "the removed account's id is not reissued")
	s.Equal("org-003", creds.User.OrganizationID)
}

func (s *AuthServiceSuite) TestCreateProfileRunsInOneTransaction() {
	ctrl := gomock.NewController(s.T())
	users := mocks.NewMockUserStore(ctrl)
	carriers := mocks.NewMockCarrierProvisioner(ctrl)
	type txKey struct{}
	inTx := func(ctx context.Context) bool { return ctx.Value(txKey{}) != nil }

	users.EXPECT().GetByEmail(gomock.Any(), "ops@acme.com").Return(nil, sentinel.ErrNotFound)
	users.EXPECT().NextSequence(gomock.Any()).Return(7, nil)
	users.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, u *models.User) error {
			s.True(inTx(ctx))
			s.Equal("usr-007", u.ID)
			return nil
		})
	carriers.EXPECT().CreateCarrier(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ *catalogmodels.Carrier) (*catalogmodels.Carrier, error) {
			s.True(inTx(ctx))
			return nil, errors.New("insert carrier: boom")
		})

	calls := 0
	runInTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		calls++
		return fn(context.WithValue(ctx, txKey{}, true))
	}

	svc, err := New(users, lockout.NewInMemory(lockout.DefaultPolicy), s.jwt,
		WithCarrierProvisioner(carriers),
		WithTx(runInTx),
	)
	s.Require().NoError(err)

	_, err = svc.CreateProfile(s.ctx, "Ops", "ops@acme.com", []string{"carrier"}, "Acme Insurance")
	s.Require().Error(err)
	s.Equal(1, calls, "the rollback discards the account, so no delete is issued")
}

func (s *AuthServiceSuite) TestCreateProfileWithoutCarrierRoleSkipsCarrier() {
	ctrl := gomock.NewController(s.T())
	carriers := mocks.NewMockCarrierProvisioner(ctrl)

	svc, err := New(s.users, lockout.NewInMemory(lockout.DefaultPolicy), s.jwt, WithCarrierProvisioner(carriers))
	s.Require().NoError(err)

	_, err = svc.CreateProfile(s.ctx, "Agent", "agent@example.com", []string{"agent"}, "")
	s.Require().NoError(err)

	_, err = svc.CreateProfile(s.ctx, "Nobody", "nobody@example.com", nil, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *AuthServiceSuite) TestGetUserAccess() {
	_, err := s.service.CreateUser(s.ctx, "Agent", "agent@example.com", "agent", "")
	s.Require().NoError(err)

	admin := requestcontext.WithPrincipal(s.ctx, "usr-001", "admin@appetitechecker.com", []string{"admin"})
	u, err := s.service.GetUser(admin, "usr-002")
	s.Require().NoError(err)
	s.Equal("agent@example.com", u.Email)

	self := requestcontext.WithPrincipal(s.ctx, "usr-002", "agent@example.com", []string{"agent"})
	_, err = s.service.GetUser(self, "usr-002")
	s.NoError(err)

	_, err = s.service.GetUser(self, "usr-001")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.GetUser(admin, "usr-999")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AuthServiceSuite) TestListUsersFiltersByRole() {
	for _, email := range []string{"a1@example.com", "a2@example.com"} {
		_, err := s.service.CreateUser(s.ctx, "Agent", email, "agent", "")
		s.Require().NoError(err)
	}

	page, err := s.service.ListUsers(s.ctx, 1, 25, "agent")
	s.Require().NoError(err)
	s.Equal(2, page.Pagination.TotalItems)

	page, err = s.service.ListUsers(s.ctx, 1, 2, "")
	s.Require().NoError(err)
	s.Equal(3, page.Pagination.TotalItems)
	s.Len(page.Data, 2)
	s.Equal("usr-001", page.Data[0].ID)
}

func errMessage(err error) string {
	if de, ok := dErrors.As(err); ok {
		return de.Message
	}
	return ""
}
