package models

import (
	"slices"
	"time"
)

// Roles.
const (
	RoleAdmin   = "admin"
	RoleCarrier = "carrier"
	RoleAgent   = "agent"
)

// AuthProviderLocal marks password accounts.
const AuthProviderLocal = "local"

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleCarrier, RoleAgent:
		return true
	}
	return false
}

// User is a platform account. Email is unique and stored lower-cased.
type User struct {
	ID               string
	Name             string
	Email            string
	PasswordHash     string
	Roles            []string
	OrganizationID   string
	OrganizationName string
	CreatedAt        time.Time
	IsActive         bool
	LastLoginAt      *time.Time
	AuthProvider     string
}

func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

func (u *User) Clone() *User {
	c := *u
	c.Roles = slices.Clone(u.Roles)
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

// Credentials is what a freshly provisioned account hands back once.
type Credentials struct {
	User              *User
	TemporaryPassword string
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
	User        *User
}
