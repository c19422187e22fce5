// Package auth provides user accounts, password verification and JWT
// session tokens.
package auth

import (
	"context"
	"time"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/entity"
)

// User tiers control entity type visibility.
const (
	TierBasic        = "basic"
	TierProfessional = "professional"
)

// User is an account row. PasswordHash is a bcrypt digest, never exposed.
type User struct {
	entity.Base

	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"fullName"`
	Tier         string     `db:"tier" json:"tier"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
}

// Validate implements entity.Validatable.
func (u *User) Validate(ctx context.Context) error {
	if u.Email == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if u.PasswordHash == "" {
		return apperror.NewValidation("password is required").WithDetail("field", "password")
	}
	return nil
}

// Credentials is a login request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is a successful login response.
type TokenPair struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Repository defines persistence for users.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	RecordLogin(ctx context.Context, u *User) error
}
