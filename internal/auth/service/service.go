// Package service implements account provisioning and password login.
package service

//go:generate mockgen -source=service.go -destination=../mocks/mocks.go -package=mocks LockoutStore,TokenIssuer,CarrierProvisioner

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"appetite/internal/auth/models"
	"appetite/internal/auth/password"
	catalogmodels "appetite/internal/catalog/models"
	"appetite/internal/platform/metrics"
	id "appetite/pkg/domain"
	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/pagination"
	audit "appetite/pkg/platform/audit"
	"appetite/pkg/platform/sentinel"
	"appetite/pkg/requestcontext"
)

const (
	tokenTypeBearer = "Bearer"
	defaultTokenTTL = time.Hour

	msgInvalidCredentials = "Invalid credentials"
	msgAccountLocked      = "Account is locked. Try again later."
)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
	NextSequence(ctx context.Context) (int, error)
}

// LockoutStore tracks failed logins per account key.
type LockoutStore interface {
	Locked(ctx context.Context, key string, now time.Time) (bool, time.Time, error)
	RecordFailure(ctx context.Context, key string, now time.Time) (bool, time.Time, error)
	Reset(ctx context.Context, key string) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateAccessToken(userID, email string, roles []string, now time.Time, expiresIn time.Duration) (string, error)
}

// CarrierProvisioner creates the carrier record that backs a carrier account.
type CarrierProvisioner interface {
	CreateCarrier(ctx context.Context, c *catalogmodels.Carrier) (*catalogmodels.Carrier, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// TxFunc runs fn inside one transaction; stores reached with fn's context
// join it.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	users          UserStore
	lockouts       LockoutStore
	tokens         TokenIssuer
	carriers       CarrierProvisioner
	tokenTTL       time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	runInTx        TxFunc
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = p
	}
}

// WithTokenTTL sets the lifetime of issued access tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithCarrierProvisioner enables carrier record creation for carrier profiles.
func WithCarrierProvisioner(p CarrierProvisioner) Option {
	return func(s *Service) {
		s.carriers = p
	}
}

// WithTx makes CreateProfile write the account and its carrier atomically.
// Without it a failed carrier write deletes the account again.
func WithTx(fn TxFunc) Option {
	return func(s *Service) {
		s.runInTx = fn
	}
}

func New(users UserStore, lockouts LockoutStore, tokens TokenIssuer, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("users store is required")
	}
	if lockouts == nil {
		return nil, errors.New("lockout store is required")
	}
	if tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	s := &Service{
		users:    users,
		lockouts: lockouts,
		tokens:   tokens,
		tokenTTL: defaultTokenTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Login verifies a password for an active account and issues an access token.
// Wrong passwords count toward the account lockout.
func (s *Service) Login(ctx context.Context, email, plain string) (*models.Session, error) {
	email = normalizeEmail(email)
	now := requestcontext.Now(ctx)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if user == nil || !user.IsActive {
		s.metrics.IncrementLoginAttempt("invalid_credentials")
		s.logAudit(ctx, audit.EventAuthFailed, audit.Event{Email: email, Reason: "unknown_or_inactive"})
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalidCredentials)
	}

	locked, until, err := s.lockouts.Locked(ctx, user.ID, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check account lockout")
	}
	if locked {
		s.metrics.IncrementLoginAttempt("locked")
		s.logger.WarnContext(ctx, "login attempt on locked account",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", user.ID,
			"locked_until", until,
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgAccountLocked)
	}

	if err := password.Verify(plain, user.PasswordHash); err != nil {
		s.recordFailure(ctx, user, now)
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalidCredentials)
	}

	if err := s.lockouts.Reset(ctx, user.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to reset lockout",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", user.ID,
			"error", err,
		)
	}
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Roles, now, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}

	s.metrics.IncrementLoginAttempt("success")
	s.logAudit(ctx, audit.EventLoginSucceeded, audit.Event{UserID: user.ID, Email: user.Email})
	s.logger.InfoContext(ctx, "user logged in",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", user.ID,
	)
	return &models.Session{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   s.tokenTTL,
		User:        user,
	}, nil
}

func (s *Service) recordFailure(ctx context.Context, user *models.User, now time.Time) {
	s.metrics.IncrementLoginAttempt("invalid_credentials")
	s.logAudit(ctx, audit.EventAuthFailed, audit.Event{UserID: user.ID, Email: user.Email, Reason: "bad_password"})

	locked, until, err := s.lockouts.RecordFailure(ctx, user.ID, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record login failure",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", user.ID,
			"error", err,
		)
		return
	}
	if locked {
		s.metrics.IncrementLockouts()
		s.logAudit(ctx, audit.EventAuthLockout, audit.Event{UserID: user.ID, Email: user.Email})
		s.logger.WarnContext(ctx, "account locked",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", user.ID,
			"locked_until", until,
		)
	}
}

// Registration describes a self-service organization signup.
type Registration struct {
	OrganizationType string
	OrganizationName string
	AdminName        string
	AdminEmail       string
	AdminPhone       string
}

// Register creates the administrator account of a new organization.
func (s *Service) Register(ctx context.Context, reg Registration) (*models.Credentials, error) {
	if strings.TrimSpace(reg.OrganizationName) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "organizationName is required")
	}
	creds, err := s.provision(ctx, reg.AdminName, reg.AdminEmail, []string{models.RoleAdmin}, reg.OrganizationName)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "User with this email already exists")
		}
		return nil, err
	}
	s.logAudit(ctx, audit.EventUserRegistered, audit.Event{UserID: creds.User.ID, Email: creds.User.Email})
	return creds, nil
}

// CreateUser provisions a single-role account on behalf of an admin.
func (s *Service) CreateUser(ctx context.Context, name, email, role, organizationName string) (*models.Credentials, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !models.ValidRole(role) {
		return nil, dErrors.New(dErrors.CodeValidation, "role must be one of admin, carrier, agent")
	}
	creds, err := s.provision(ctx, name, email, []string{role}, organizationName)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "User already exists")
		}
		return nil, err
	}
	s.logAudit(ctx, audit.EventUserCreated, audit.Event{
		UserID:  creds.User.ID,
		Email:   creds.User.Email,
		ActorID: requestcontext.UserID(ctx),
	})
	return creds, nil
}

// CreateProfile provisions an account with any set of roles. When the roles
// include carrier, a carrier record named after the organization is created
// with the new user as primary contact.
func (s *Service) CreateProfile(ctx context.Context, name, email string, roles []string, organizationName string) (*models.Credentials, error) {
	cleaned := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if !models.ValidRole(r) {
			return nil, dErrors.New(dErrors.CodeValidation, "unknown role "+r)
		}
		if !slices.Contains(cleaned, r) {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one role is required")
	}

	var creds *models.Credentials
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		creds, err = s.provision(ctx, name, email, cleaned, organizationName)
		if err != nil {
			return err
		}
		if err := s.provisionCarrier(ctx, creds.User); err != nil {
			s.discardUser(ctx, creds.User.ID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventUserCreated, audit.Event{
		UserID:  creds.User.ID,
		Email:   creds.User.Email,
		ActorID: requestcontext.UserID(ctx),
	})
	return creds, nil
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.runInTx == nil {
		return fn(ctx)
	}
	return s.runInTx(ctx, fn)
}

// provisionCarrier creates the carrier record for a carrier account.
func (s *Service) provisionCarrier(ctx context.Context, user *models.User) error {
	if s.carriers == nil || !user.HasRole(models.RoleCarrier) {
		return nil
	}
	orgName := user.OrganizationName
	if orgName == "" {
		orgName = user.Name
	}
	_, err := s.carriers.CreateCarrier(ctx, &catalogmodels.Carrier{
		LegalName:           orgName,
		DisplayName:         orgName,
		PrimaryContactName:  user.Name,
		PrimaryContactEmail: user.Email,
		CreatedBy:           "system",
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create carrier for profile",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", user.ID,
			"error", err,
		)
	}
	return err
}

// discardUser removes an account whose profile could not be completed. A
// transaction rolls the account back on its own.
func (s *Service) discardUser(ctx context.Context, userID string) {
	if s.runInTx != nil {
		return
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to remove incomplete user",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
	}
}

// provision allocates usr-NNN with the matching org-NNN and a temporary password.
func (s *Service) provision(ctx context.Context, name, email string, roles []string, organizationName string) (*models.Credentials, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "email must be valid")
	}

	temporary, err := password.GenerateTemporary()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate password")
	}
	hash, err := password.Hash(temporary)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := &models.User{
		Name:             name,
		Email:            email,
		PasswordHash:     hash,
		Roles:            roles,
		OrganizationName: strings.TrimSpace(organizationName),
		CreatedAt:        requestcontext.Now(ctx),
		IsActive:         true,
		AuthProvider:     models.AuthProviderLocal,
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "user already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	userID, err := id.Allocate(ctx, id.PrefixUser,
		s.users.NextSequence,
		func(ctx context.Context, candidate string) error {
			user.ID = candidate
			user.OrganizationID = id.PrefixOrganization + strings.TrimPrefix(candidate, id.PrefixUser)
			return s.users.Create(ctx, user)
		},
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create user",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, err
	}
	user.ID = userID

	s.metrics.IncrementUsersCreated()
	s.logger.InfoContext(ctx, "user created",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID,
		"roles", roles,
	)
	return &models.Credentials{User: user, TemporaryPassword: temporary}, nil
}

// GetUser returns a profile to an admin or to the account owner.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if !requestcontext.HasRole(ctx, models.RoleAdmin) && requestcontext.UserID(ctx) != userID {
		return nil, dErrors.New(dErrors.CodeForbidden, "not allowed to view this user")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user "+userID+" not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

// ListUsers pages accounts, optionally restricted to those holding role.
func (s *Service) ListUsers(ctx context.Context, page, pageSize int, role string) (pagination.Page[*models.User], error) {
	users, err := s.ListAllUsers(ctx)
	if err != nil {
		return pagination.Page[*models.User]{}, err
	}
	if role = strings.ToLower(strings.TrimSpace(role)); role != "" {
		filtered := make([]*models.User, 0, len(users))
		for _, u := range users {
			if u.HasRole(role) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	return pagination.Paginate(users, page, pageSize), nil
}

func (s *Service) ListAllUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

func (s *Service) CountUsers(ctx context.Context) (int, error) {
	return s.users.Count(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, e audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	e.Action = string(event)
	e.Timestamp = time.Now()
	e.RequestID = requestcontext.RequestID(ctx)
	e.IP = requestcontext.ClientIP(ctx)
	if e.Subject == "" {
		e.Subject = e.UserID
	}
	if err := s.auditPublisher.Emit(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", string(event),
			"error", err,
		)
	}
}
