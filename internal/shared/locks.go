package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld indicates another operation currently owns the request lock.
var ErrLockHeld = errors.New("request lock held")

// RequestLockKey builds the redis key guarding a request aggregate.
func RequestLockKey(requestID uuid.UUID) string {
	return fmt.Sprintf("request:%s:lock", requestID)
}

// RequestLocker serialises workflow operations per request. Every public
// engine operation runs its read-check-write cycle under this mutex so two
// concurrent transitions on the same request cannot interleave; operations
// on different requests proceed in parallel.
type RequestLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRequestLocker constructs a locker. The TTL bounds how long a crashed
// holder can block a request.
func NewRequestLocker(client *redis.Client, ttl time.Duration) *RequestLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RequestLocker{client: client, ttl: ttl}
}

// releaseScript deletes the lock only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Acquire takes the per-request mutex and returns a release function.
// Returns ErrLockHeld without waiting when the lock is taken; short
// synchronous operations make queueing unnecessary.
func (l *RequestLocker) Acquire(ctx context.Context, requestID uuid.UUID) (func(), error) {
	if l == nil || l.client == nil {
		// No locker configured: callers fall back to the repository's
		// optimistic version check.
		return func() {}, nil
	}
	key := RequestLockKey(requestID)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}
	return release, nil
}
