// file: service/login_limiter.go

package service

import (
	"context"
	"maison-auth-api/logger"
	"time"
)

// LoginAttemptLimiter throttles credential guessing per identifier.
type LoginAttemptLimiter interface {
	Attempt(ctx context.Context, key string) error
	Reset(ctx context.Context, key string)
}

// LoginLimiter counts login attempts in Redis within a fixed window. Every attempt
// is counted before the password is checked and a successful login clears the
// counter, so the counter holds the failures of the window plus any attempt in flight.
// Redis is not the store of record for anything security-critical here, so when
// it is unreachable the limiter logs and lets the attempt through.
type LoginLimiter struct {
	cache       ICacheClient
	maxAttempts int
	window      time.Duration
}

func NewLoginLimiter(cache ICacheClient, maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{cache: cache, maxAttempts: maxAttempts, window: window}
}

func loginAttemptsKey(key string) string {
	return "login_attempts:" + key
}

func (l *LoginLimiter) enabled() bool {
	return l != nil && l.cache != nil && l.maxAttempts > 0 && l.window > 0
}

// Attempt counts one login attempt for key and returns ErrTooManyAttempts once the
// count passes the limit. The increment and the comparison are one INCR, so
// concurrent attempts each see a distinct count.
func (l *LoginLimiter) Attempt(ctx context.Context, key string) error {
	if !l.enabled() {
		return nil
	}
	k := loginAttemptsKey(key)
	n, err := l.cache.Incr(ctx, k).Result()
	if err != nil {
		logger.Log.WithError(err).Warn("Login limiter unavailable, allowing attempt")
		return nil
	}
	if n == 1 {
		if err := l.cache.Expire(ctx, k, l.window).Err(); err != nil {
			logger.Log.WithError(err).Warn("Failed to set login attempt window")
		}
	}
	if n > int64(l.maxAttempts) {
		return ErrTooManyAttempts
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, key string) {
	if !l.enabled() {
		return
	}
	if err := l.cache.Del(ctx, loginAttemptsKey(key)).Err(); err != nil {
		logger.Log.WithError(err).Warn("Failed to reset login failures")
	}
}
