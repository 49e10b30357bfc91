package handler

import (
	"strings"
	"time"

	"appetite/internal/auth/models"
	dErrors "appetite/pkg/domain-errors"
)

// LoginRequest carries the account email as username.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
}

func (r *LoginRequest) Validate() error {
	if r.Username == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}

type AdminInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type RegisterRequest struct {
	OrganizationType string    `json:"organizationType"`
	OrganizationName string    `json:"organizationName"`
	Admin            AdminInfo `json:"admin"`
}

func (r *RegisterRequest) Normalize() {
	r.OrganizationType = strings.TrimSpace(r.OrganizationType)
	r.OrganizationName = strings.TrimSpace(r.OrganizationName)
	r.Admin.Name = strings.TrimSpace(r.Admin.Name)
	r.Admin.Email = strings.ToLower(strings.TrimSpace(r.Admin.Email))
	r.Admin.Phone = strings.TrimSpace(r.Admin.Phone)
}

func (r *RegisterRequest) Validate() error {
	if r.OrganizationName == "" {
		return dErrors.New(dErrors.CodeValidation, "organizationName is required")
	}
	if r.Admin.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "admin.name is required")
	}
	if r.Admin.Email == "" || !strings.Contains(r.Admin.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "admin.email must be a valid address")
	}
	return nil
}

type CreateUserRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	OrganizationName string `json:"organizationName"`
}

func (r *CreateUserRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	r.OrganizationName = strings.TrimSpace(r.OrganizationName)
}

func (r *CreateUserRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !models.ValidRole(r.Role) {
		return dErrors.New(dErrors.CodeValidation, "role must be one of admin, carrier, agent")
	}
	return nil
}

// ProfileRequest creates a user profile with any combination of roles.
type ProfileRequest struct {
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	Roles        []string         `json:"roles"`
	Organization OrganizationInfo `json:"organization"`
}

func (r *ProfileRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Organization.Name = strings.TrimSpace(r.Organization.Name)
}

func (r *ProfileRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if len(r.Roles) == 0 {
		return dErrors.New(dErrors.CodeValidation, "roles must not be empty")
	}
	return nil
}

type UserInfo struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Roles        []string   `json:"roles"`
	IsActive     bool       `json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
	AuthProvider string     `json:"authProvider"`
}

type LoginResponse struct {
	AccessToken string   `json:"accessToken"`
	TokenType   string   `json:"tokenType"`
	ExpiresIn   int      `json:"expiresIn"`
	User        UserInfo `json:"user"`
}

type RegisterResponse struct {
	UserID  string `json:"userId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type CreateUserResponse struct {
	UserID            string `json:"userId"`
	Email             string `json:"email"`
	TemporaryPassword string `json:"temporaryPassword"`
	Message           string `json:"message"`
}

type OrganizationInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type UserProfile struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Email             string           `json:"email"`
	Roles             []string         `json:"roles"`
	Organization      OrganizationInfo `json:"organization"`
	CreatedAt         time.Time        `json:"createdAt"`
	IsActive          bool             `json:"isActive"`
	LastLoginAt       *time.Time       `json:"lastLoginAt"`
	AuthProvider      string           `json:"authProvider"`
	TemporaryPassword string           `json:"temporaryPassword,omitempty"`
}

type UserSummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	IsActive bool     `json:"isActive"`
}

func FromSession(s *models.Session) LoginResponse {
	return LoginResponse{
		AccessToken: s.AccessToken,
		TokenType:   s.TokenType,
		ExpiresIn:   int(s.ExpiresIn.Seconds()),
		User: UserInfo{
			ID:           s.User.ID,
			Name:         s.User.Name,
			Roles:        s.User.Roles,
			IsActive:     s.User.IsActive,
			LastLoginAt:  s.User.LastLoginAt,
			AuthProvider: s.User.AuthProvider,
		},
	}
}

func FromUser(u *models.User) UserProfile {
	return UserProfile{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Roles:        u.Roles,
		Organization: OrganizationInfo{ID: u.OrganizationID, Name: u.OrganizationName},
		CreatedAt:    u.CreatedAt,
		IsActive:     u.IsActive,
		LastLoginAt:  u.LastLoginAt,
		AuthProvider: u.AuthProvider,
	}
}

func FromUserSummary(u *models.User) UserSummary {
	return UserSummary{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Roles:    u.Roles,
		IsActive: u.IsActive,
	}
}
