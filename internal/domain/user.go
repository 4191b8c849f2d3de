package domain

import (
	"errors"
	"time"
)

// Repository-level sentinels shared by every user store backend.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// UserOrigin records which flow created a user.
type UserOrigin string

const (
	OriginLocal  UserOrigin = "local"
	OriginGoogle UserOrigin = "google"
)

// User represents a CRM account that can authenticate.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	IsActive     bool
	GoogleID     string
	Origin       UserOrigin
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can log in with local credentials.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

// ExternalIdentity holds verified claims from a third-party identity token.
type ExternalIdentity struct {
	Provider      string
	Subject       string
	Issuer        string
	Email         string
	EmailVerified bool
	Name          string
}
