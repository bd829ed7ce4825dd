// service/login_limiter_test.go
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestLoginLimiter_BlocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	limiter := NewLoginLimiter(rdb, 3, 15*time.Minute)

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Attempt(ctx, "key"))
	}

	assert.ErrorIs(t, limiter.Attempt(ctx, "key"), ErrTooManyAttempts)
	assert.NoError(t, limiter.Attempt(ctx, "other-key"), "counters are per identifier")
	assert.Equal(t, 15*time.Minute, mr.TTL("login_attempts:key"))
}

func TestLoginLimiter_ConcurrentAttemptsNeverExceedLimit(t *testing.T) {
	ctx := context.Background()
	_, rdb := newTestRedis(t)
	limiter := NewLoginLimiter(rdb, 5, time.Minute)

	const attempts = 40
	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if limiter.Attempt(ctx, "key") == nil {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(5), allowed.Load())
}

func TestLoginLimiter_WindowExpires(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	limiter := NewLoginLimiter(rdb, 2, time.Minute)

	require.NoError(t, limiter.Attempt(ctx, "key"))
	require.NoError(t, limiter.Attempt(ctx, "key"))
	require.ErrorIs(t, limiter.Attempt(ctx, "key"), ErrTooManyAttempts)

	mr.FastForward(time.Minute + time.Second)

	assert.NoError(t, limiter.Attempt(ctx, "key"))
}

func TestLoginLimiter_ResetClearsAttempts(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	limiter := NewLoginLimiter(rdb, 2, time.Minute)

	require.NoError(t, limiter.Attempt(ctx, "key"))
	limiter.Reset(ctx, "key")

	assert.False(t, mr.Exists("login_attempts:key"))
}

func TestLoginLimiter_FailsOpen(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	limiter := NewLoginLimiter(rdb, 1, time.Minute)
	require.NoError(t, limiter.Attempt(ctx, "key"))
	require.ErrorIs(t, limiter.Attempt(ctx, "key"), ErrTooManyAttempts)

	mr.Close()

	assert.NoError(t, limiter.Attempt(ctx, "key"))
	assert.NotPanics(t, func() { limiter.Reset(ctx, "key") })
}

func TestLoginLimiter_Disabled(t *testing.T) {
	ctx := context.Background()
	var nilLimiter *LoginLimiter
	assert.NoError(t, nilLimiter.Attempt(ctx, "key"))
	nilLimiter.Reset(ctx, "key")

	mr, rdb := newTestRedis(t)
	zero := NewLoginLimiter(rdb, 0, time.Minute)
	assert.NoError(t, zero.Attempt(ctx, "key"))
	assert.False(t, mr.Exists("login_attempts:key"))
}
