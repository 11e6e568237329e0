package handlers

import (
	"context"

	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/domain"
)

// AccountService is the part of service.AuthService the handlers use.
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, *domain.Session, error)
	Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	SetAuthorities(ctx context.Context, actor *auth.Context, id int64, authorities []domain.Authority) (*domain.User, error)
}
