package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginAttemptPrefix = "auth:login_attempts:"

// LoginAttemptRepository counts failed logins per account within a window.
type LoginAttemptRepository interface {
	// Failures returns the failed attempts recorded in the current window.
	Failures(ctx context.Context, email string) (int64, error)
	// RecordFailure adds one failure and returns the new count. The window
	// starts at the first failure.
	RecordFailure(ctx context.Context, email string) (int64, error)
	// Reset forgets all failures for email.
	Reset(ctx context.Context, email string) error
}

type loginAttemptRepository struct {
	client redis.Cmdable
	window time.Duration
}

// NewLoginAttemptRepository returns a Redis-backed implementation.
func NewLoginAttemptRepository(client redis.Cmdable, window time.Duration) LoginAttemptRepository {
	return &loginAttemptRepository{client: client, window: window}
}

func (r *loginAttemptRepository) Failures(ctx context.Context, email string) (int64, error) {
	count, err := r.client.Get(ctx, loginAttemptKey(email)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read login attempts: %w", err)
	}
	return count, nil
}

func (r *loginAttemptRepository) RecordFailure(ctx context.Context, email string) (int64, error) {
	key := loginAttemptKey(email)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("record login attempt: %w", err)
	}
	return incr.Val(), nil
}

func (r *loginAttemptRepository) Reset(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, loginAttemptKey(email)).Err(); err != nil {
		return fmt.Errorf("reset login attempts: %w", err)
	}
	return nil
}

func loginAttemptKey(email string) string {
	return loginAttemptPrefix + normalizeEmail(email)
}
