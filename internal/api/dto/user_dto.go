package dto

import (
	"time"

	"github.com/spec-kit/storefront-auth/internal/domain"
)

// UserRegisterRequest payload for new accounts.
type UserRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateAuthoritiesRequest replaces the authorities stored on an account.
type UpdateAuthoritiesRequest struct {
	Authorities []domain.Authority `json:"authorities"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token       string             `json:"token"`
	TokenType   string             `json:"token_type"`
	ExpiresAt   time.Time          `json:"expires_at"`
	Authorities []domain.Authority `json:"authorities"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Status      domain.UserStatus  `json:"status"`
	Authorities []domain.Authority `json:"authorities"`
	CreatedAt   time.Time          `json:"created_at"`
}

// NewUserResponse maps a domain user, never exposing the password hash.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Status:      user.Status,
		Authorities: user.AuthoritySet().Slice(),
		CreatedAt:   user.CreatedAt,
	}
}

// NewAuthResponse maps an issued session.
func NewAuthResponse(session *domain.Session) AuthResponse {
	authorities := session.Authorities
	if authorities == nil {
		authorities = []domain.Authority{}
	}
	return AuthResponse{
		Token:       session.Token,
		TokenType:   "Bearer",
		ExpiresAt:   session.ExpiresAt,
		Authorities: authorities,
	}
}
