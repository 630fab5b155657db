package models

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLockScript deletes the lock only if it still holds our token.
const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// renewLockScript extends the lease only while we still hold it.
const renewLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`

const (
	defaultLockTTL        = 5 * time.Second
	defaultLockRetryDelay = 25 * time.Millisecond
)

// RedisLocker serializes work per key across API replicas. A held lock is
// renewed every ttl/3 until it is released, so slow store calls keep it.
type RedisLocker struct {
	client     redis.Cmdable
	ttl        time.Duration
	renewEvery time.Duration
	retryDelay time.Duration
	newToken   func() string
	logger     *slog.Logger
}

func NewRedisLocker(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		client:     client,
		ttl:        ttl,
		renewEvery: ttl / 3,
		retryDelay: defaultLockRetryDelay,
		newToken:   uuid.NewString,
		logger:     logger,
	}
}

func LockKey(key string) string {
	return "lock:event:" + key
}

// Lock blocks until the key is acquired or ctx is done. The returned func
// releases the lock and is safe to call more than once.
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := LockKey(key)
	token := r.newToken()

	for {
		ok, err := r.client.SetNX(ctx, lockKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
		}
		if ok {
			return r.held(lockKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retryDelay):
		}
	}
}

// held starts the lease renewal for an acquired lock and returns its release func.
func (r *RedisLocker) held(lockKey, token string) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.keepAlive(lockKey, token, stop)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			n, err := r.client.Eval(ctx, releaseLockScript, []string{lockKey}, token).Int64()
			if err != nil {
				r.logger.Error("failed to release lock", "key", lockKey, "error", err)
				return
			}
			if n == 0 {
				r.logger.Warn("lock expired before release", "key", lockKey)
			}
		})
	}
}

func (r *RedisLocker) keepAlive(lockKey, token string, stop <-chan struct{}) {
	if r.renewEvery <= 0 {
		<-stop
		return
	}
	ticker := time.NewTicker(r.renewEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.renewEvery)
		n, err := r.client.Eval(ctx, renewLockScript, []string{lockKey}, token, r.ttl.Milliseconds()).Int64()
		cancel()
		if err != nil {
			r.logger.Warn("failed to renew lock", "key", lockKey, "error", err)
			continue
		}
		if n == 0 {
			r.logger.Error("lock lease lost", "key", lockKey)
			return
		}
	}
}

// RedisHealthCheck performs a health check on Redis connection
func RedisHealthCheck(ctx context.Context, client redis.Cmdable) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
