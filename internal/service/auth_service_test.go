package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/domain"
	"github.com/spec-kit/storefront-auth/internal/events"
	apperrors "github.com/spec-kit/storefront-auth/pkg/util/errorutil"
)

const testSecret = "service_tests_signing_secret_with_enough_length"

type fixture struct {
	svc      *AuthService
	users    *fakeUserRepo
	attempts *fakeAttempts
	tokens   *auth.TokenManager
	logins   *loginCounter
	logs     *observer.ObservedLogs
}

func newFixture(t *testing.T, maxAttempts int) *fixture {
	t.Helper()
	tokens, err := auth.NewTokenManager(testSecret)
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher()
	logins := &loginCounter{}
	NewAuditService(dispatcher, logger, logins).RegisterHandlers()

	f := &fixture{
		users:    newFakeUserRepo(),
		attempts: newFakeAttempts(),
		tokens:   tokens,
		logins:   logins,
		logs:     logs,
	}
	f.svc = NewAuthService(config.AuthConfig{
		BcryptCost:       bcrypt.MinCost,
		LoginMaxAttempts: maxAttempts,
	}, AuthDependencies{
		UserRepo:      f.users,
		LoginAttempts: f.attempts,
		Tokens:        tokens,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	return f
}

func (f *fixture) seedUser(t *testing.T, email, password string, status domain.UserStatus, authorities ...domain.Authority) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	user := &domain.User{Name: "Shopper", Email: email, PasswordHash: hash, Status: status, Authorities: authorities}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return user
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", status)
	}
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if de.HTTPStatus != status {
		t.Fatalf("status = %d, want %d (%v)", de.HTTPStatus, status, err)
	}
}

func TestLoginIssuesTokenWithStoredAuthorities(t *testing.T) {
	f := newFixture(t, 5)
	seeded := f.seedUser(t, "ops@example.com", "pa55word", domain.UserStatusActive, domain.AuthorityProcessOrders, domain.AuthorityReadAccess)

	user, session, err := f.svc.Login(context.Background(), " OPS@example.com ", "pa55word")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != seeded.ID || session.SubjectID != seeded.ID {
		t.Fatalf("unexpected subject %d / %d", user.ID, session.SubjectID)
	}
	if session.ExpiresAt.Sub(session.IssuedAt) != auth.TokenTTL {
		t.Errorf("session lifetime = %v", session.ExpiresAt.Sub(session.IssuedAt))
	}

	ac := auth.NewResolver(f.tokens, nil).Resolve(session.Token)
	if id, ok := ac.SubjectID(); !ok || id != seeded.ID {
		t.Fatalf("resolved subject = %d, %v", id, ok)
	}
	if !ac.HasAuthority(domain.AuthorityProcessOrders) || !ac.HasAuthority(domain.AuthorityReadAccess) {
		t.Errorf("resolved authorities = %v", ac.Authorities())
	}
	if f.logins.outcomes["success"] != 1 {
		t.Errorf("login outcomes = %v", f.logins.outcomes)
	}
	if f.logs.FilterMessage("LoginSucceeded").Len() != 1 {
		t.Errorf("expected LoginSucceeded audit entry")
	}
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t, 5)
	f.seedUser(t, "shopper@example.com", "correct", domain.UserStatusActive)
	f.seedUser(t, "gone@example.com", "correct", domain.UserStatusSuspended)

	tests := []struct {
		name     string
		email    string
		password string
		status   int
	}{
		{name: "missing password", email: "shopper@example.com", password: "", status: http.StatusBadRequest},
		{name: "wrong password", email: "shopper@example.com", password: "nope", status: http.StatusUnauthorized},
		{name: "unknown email", email: "nobody@example.com", password: "correct", status: http.StatusUnauthorized},
		{name: "suspended", email: "gone@example.com", password: "correct", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, session, err := f.svc.Login(context.Background(), tt.email, tt.password)
			if session != nil {
				t.Fatalf("expected no session")
			}
			assertStatus(t, err, tt.status)
		})
	}

	if got := f.logins.outcomes["failure"]; got != 3 {
		t.Errorf("failure count = %d, want 3", got)
	}
}

func TestLoginLockout(t *testing.T) {
	f := newFixture(t, 2)
	f.seedUser(t, "target@example.com", "correct", domain.UserStatusActive)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _, err := f.svc.Login(ctx, "target@example.com", "guess")
		assertStatus(t, err, http.StatusUnauthorized)
	}

	_, _, err := f.svc.Login(ctx, "target@example.com", "correct")
	assertStatus(t, err, http.StatusTooManyRequests)
	if f.logins.outcomes["locked"] != 1 {
		t.Errorf("locked count = %d", f.logins.outcomes["locked"])
	}

	if err := f.attempts.Reset(ctx, "target@example.com"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, _, err := f.svc.Login(ctx, "target@example.com", "correct"); err != nil {
		t.Fatalf("Login() after window error = %v", err)
	}
}

func TestLoginSuccessClearsFailures(t *testing.T) {
	f := newFixture(t, 3)
	f.seedUser(t, "buyer@example.com", "correct", domain.UserStatusActive)
	ctx := context.Background()

	_, _, _ = f.svc.Login(ctx, "buyer@example.com", "wrong")
	if n, _ := f.attempts.Failures(ctx, "buyer@example.com"); n != 1 {
		t.Fatalf("failures = %d, want 1", n)
	}
	if _, _, err := f.svc.Login(ctx, "buyer@example.com", "correct"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if n, _ := f.attempts.Failures(ctx, "buyer@example.com"); n != 0 {
		t.Fatalf("failures = %d, want 0 after success", n)
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	user, session, err := f.svc.Register(ctx, "New Shopper", "new@example.com", "secret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == 0 || user.Status != domain.UserStatusActive {
		t.Fatalf("unexpected user %+v", user)
	}
	if len(session.Authorities) != 0 {
		t.Errorf("new accounts must not carry authorities, got %v", session.Authorities)
	}
	if err := auth.ComparePassword(user.PasswordHash, "secret"); err != nil {
		t.Errorf("stored hash does not match: %v", err)
	}

	_, _, err = f.svc.Register(ctx, "Again", "new@example.com", "secret")
	assertStatus(t, err, http.StatusConflict)

	_, _, err = f.svc.Register(ctx, "", "x@example.com", "secret")
	assertStatus(t, err, http.StatusBadRequest)
}

func TestSetAuthorities(t *testing.T) {
	f := newFixture(t, 5)
	target := f.seedUser(t, "clerk@example.com", "pw", domain.UserStatusActive)
	admin := auth.NewContext(99, domain.AuthorityWriteUsers)
	ctx := context.Background()

	updated, err := f.svc.SetAuthorities(ctx, admin, target.ID, []domain.Authority{domain.AuthorityWriteProducts, "", domain.AuthorityWriteProducts, domain.AuthorityWriteImages})
	if err != nil {
		t.Fatalf("SetAuthorities() error = %v", err)
	}
	want := []domain.Authority{domain.AuthorityWriteImages, domain.AuthorityWriteProducts}
	if len(updated.Authorities) != 2 || updated.Authorities[0] != want[0] || updated.Authorities[1] != want[1] {
		t.Fatalf("authorities = %v, want %v", updated.Authorities, want)
	}

	entries := f.logs.FilterMessage("AuthoritiesChanged").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 AuthoritiesChanged entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["subject_id"] != int64(99) {
		t.Errorf("audit actor = %v", entries[0].ContextMap()["subject_id"])
	}

	_, err = f.svc.SetAuthorities(ctx, admin, target.ID, []domain.Authority{"SUPERUSER"})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.SetAuthorities(ctx, admin, 12345, []domain.Authority{domain.AuthorityConfig})
	assertStatus(t, err, http.StatusNotFound)
}

func TestGetUserNotFound(t *testing.T) {
	f := newFixture(t, 5)
	_, err := f.svc.GetUser(context.Background(), 404)
	assertStatus(t, err, http.StatusNotFound)
}

func TestAuditPublishesAccessDenied(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	audit := NewAuditService(dispatcher, zap.New(core), nil)
	audit.RegisterHandlers()

	subject := int64(7)
	audit.PolicyDecided(auth.Decision{Policy: auth.RequireAuthority(domain.AuthorityConfig), Method: http.MethodGet, Route: "/config/authorities", SubjectID: &subject})
	audit.PolicyDecided(auth.Decision{Policy: auth.Public(), Allowed: true})

	entries := logs.FilterMessage("AccessDenied").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 AccessDenied entry, got %d", len(entries))
	}
	payload, ok := entries[0].ContextMap()["payload"].(events.AccessDeniedPayload)
	if !ok {
		t.Fatalf("payload has type %T", entries[0].ContextMap()["payload"])
	}
	if payload.Policy != "authority:CONFIG" || payload.Route != "/config/authorities" {
		t.Errorf("payload = %+v", payload)
	}
}
