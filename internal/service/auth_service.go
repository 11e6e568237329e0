package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/domain"
	"github.com/spec-kit/storefront-auth/internal/events"
	"github.com/spec-kit/storefront-auth/internal/repository"
	apperrors "github.com/spec-kit/storefront-auth/pkg/util/errorutil"
)

const pgUniqueViolation = "23505"

// AuthService exchanges verified credentials for access tokens and manages
// the authorities stored on accounts.
type AuthService struct {
	users       repository.UserRepository
	attempts    repository.LoginAttemptRepository
	tokens      *auth.TokenManager
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	bcryptCost  int
	maxAttempts int64
}

// AuthDependencies encapsulates collaborators for the auth service.
// LoginAttempts and Dispatcher are optional.
type AuthDependencies struct {
	UserRepo      repository.UserRepository
	LoginAttempts repository.LoginAttemptRepository
	Tokens        *auth.TokenManager
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       deps.UserRepo,
		attempts:    deps.LoginAttempts,
		tokens:      deps.Tokens,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		bcryptCost:  cfg.BcryptCost,
		maxAttempts: int64(cfg.LoginMaxAttempts),
	}
}

// Register creates an account with no authorities and logs it in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, *domain.Session, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, nil, apperrors.NewValidationError("name, email and password are required", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
		Authorities:  []domain.Authority{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login verifies email and password and issues a token carrying the
// account's stored authorities.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, nil, apperrors.NewValidationError("email and password are required", nil)
	}

	if s.locked(ctx, email) {
		s.publish(ctx, events.EventLoginLocked, events.Actor{Email: email}, nil)
		return nil, nil, apperrors.NewTooManyRequests("too many failed login attempts", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, s.failLogin(ctx, email, "unknown_email")
		}
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, nil, s.failLogin(ctx, email, "bad_password")
		}
		return nil, nil, fmt.Errorf("compare password: %w", err)
	}
	if user.Status != domain.UserStatusActive {
		return nil, nil, s.failLogin(ctx, email, "suspended")
	}

	if s.attempts != nil {
		if err := s.attempts.Reset(ctx, email); err != nil {
			s.logger.Warn("reset login attempts", zap.Error(err))
		}
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	s.publish(ctx, events.EventLoginSucceeded, events.Actor{SubjectID: &user.ID, Email: user.Email}, nil)
	return user, session, nil
}

// GetUser loads an account by id.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// SetAuthorities replaces the authorities stored on an account. Only catalog
// authorities may be granted. Tokens already issued keep their old
// authorities until they expire.
func (s *AuthService) SetAuthorities(ctx context.Context, actor *auth.Context, id int64, authorities []domain.Authority) (*domain.User, error) {
	set := domain.NewAuthoritySet(authorities...)

	var unknown []string
	for _, a := range set.Slice() {
		if !a.Known() {
			unknown = append(unknown, string(a))
		}
	}
	if len(unknown) > 0 {
		return nil, apperrors.NewValidationError("unknown authorities", map[string]any{"unknown": unknown})
	}

	if err := s.users.UpdateAuthorities(ctx, id, set.Slice()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, fmt.Errorf("update authorities: %w", err)
	}

	actorEvent := events.Actor{}
	if subjectID, ok := actor.SubjectID(); ok {
		actorEvent.SubjectID = &subjectID
	}
	s.publish(ctx, events.EventAuthoritiesChanged, actorEvent, events.AuthoritiesChangedPayload{
		UserID:      id,
		Authorities: set.Slice(),
	})

	return s.GetUser(ctx, id)
}

func (s *AuthService) issue(user *domain.User) (*domain.Session, error) {
	authorities := user.AuthoritySet().Slice()
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, authorities)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &domain.Session{
		Token:       token,
		SubjectID:   user.ID,
		Authorities: authorities,
		IssuedAt:    expiresAt.Add(-auth.TokenTTL),
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *AuthService) locked(ctx context.Context, email string) bool {
	if s.attempts == nil || s.maxAttempts <= 0 {
		return false
	}
	failures, err := s.attempts.Failures(ctx, email)
	if err != nil {
		s.logger.Warn("login throttle unavailable", zap.Error(err))
		return false
	}
	return failures >= s.maxAttempts
}

func (s *AuthService) failLogin(ctx context.Context, email, reason string) error {
	var failures int64
	if s.attempts != nil {
		count, err := s.attempts.RecordFailure(ctx, email)
		if err != nil {
			s.logger.Warn("record login attempt", zap.Error(err))
		}
		failures = count
	}
	s.publish(ctx, events.EventLoginFailed, events.Actor{Email: email}, events.LoginFailedPayload{
		Reason:   reason,
		Failures: failures,
	})
	return apperrors.NewUnauthorized("invalid credentials")
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, actor events.Actor, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.NewEvent(eventType, actor, payload)); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(eventType)), zap.Error(err))
	}
}
