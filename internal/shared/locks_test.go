package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newLockClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRequestLockerAcquireRelease(t *testing.T) {
	locker := NewRequestLocker(newLockClient(t), time.Minute)
	ctx := context.Background()
	id := uuid.New()

	release, err := locker.Acquire(ctx, id)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, id)
	require.ErrorIs(t, err, ErrLockHeld)

	// A different request is never blocked.
	other, err := locker.Acquire(ctx, uuid.New())
	require.NoError(t, err)
	other()

	release()
	release2, err := locker.Acquire(ctx, id)
	require.NoError(t, err)
	release2()
}

func TestRequestLockerReleaseOnlyOwnToken(t *testing.T) {
	client := newLockClient(t)
	locker := NewRequestLocker(client, time.Minute)
	ctx := context.Background()
	id := uuid.New()

	release, err := locker.Acquire(ctx, id)
	require.NoError(t, err)

	// Simulate the TTL firing and another holder taking over.
	require.NoError(t, client.Set(ctx, RequestLockKey(id), "someone-else", time.Minute).Err())
	release()

	val, err := client.Get(ctx, RequestLockKey(id)).Result()
	require.NoError(t, err)
	require.Equal(t, "someone-else", val)
}

func TestRequestLockerNilClientIsNoop(t *testing.T) {
	var locker *RequestLocker
	release, err := locker.Acquire(context.Background(), uuid.New())
	require.NoError(t, err)
	release()
}
