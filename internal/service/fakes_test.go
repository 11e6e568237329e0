package service

import (
	"context"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/storefront-auth/internal/domain"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, byID: map[int64]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	stored := *user
	r.byID[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *user
	return &out, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byID {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			out := *user
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) UpdateAuthorities(_ context.Context, id int64, authorities []domain.Authority) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Authorities = append([]domain.Authority{}, authorities...)
	return nil
}

type fakeAttempts struct {
	mu       sync.Mutex
	failures map[string]int64
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{failures: map[string]int64{}}
}

func (f *fakeAttempts) Failures(_ context.Context, email string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[strings.ToLower(email)], nil
}

func (f *fakeAttempts) RecordFailure(_ context.Context, email string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[strings.ToLower(email)]++
	return f.failures[strings.ToLower(email)], nil
}

func (f *fakeAttempts) Reset(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, strings.ToLower(email))
	return nil
}

type loginCounter struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (c *loginCounter) RecordLogin(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcomes == nil {
		c.outcomes = map[string]int{}
	}
	c.outcomes[outcome]++
}
