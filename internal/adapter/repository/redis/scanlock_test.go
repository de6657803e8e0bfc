package redis_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	redisRepo "github.com/iho/bookscan/internal/adapter/repository/redis"
)

func newTestLock(t *testing.T, ttl time.Duration) (*redisRepo.ScanLock, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return redisRepo.NewScanLock(client, ttl), s
}

func TestScanLock_AcquireRelease(t *testing.T) {
	lock, _ := newTestLock(t, time.Minute)
	ctx := context.Background()

	acquired, err := lock.Acquire(ctx, "book-1")
	require.NoError(t, err)
	require.True(t, acquired)

	// Second acquire on the same book fails until released.
	acquired, err = lock.Acquire(ctx, "book-1")
	require.NoError(t, err)
	require.False(t, acquired)

	// A different book is unaffected.
	acquired, err = lock.Acquire(ctx, "book-2")
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, lock.Release(ctx, "book-1"))

	acquired, err = lock.Acquire(ctx, "book-1")
	require.NoError(t, err)
	require.True(t, acquired)
}

func TestScanLock_TTLExpires(t *testing.T) {
	lock, s := newTestLock(t, time.Minute)
	ctx := context.Background()

	acquired, err := lock.Acquire(ctx, "book-1")
	require.NoError(t, err)
	require.True(t, acquired)

	// A crashed run never releases; the TTL frees the book.
	s.FastForward(2 * time.Minute)

	acquired, err = lock.Acquire(ctx, "book-1")
	require.NoError(t, err)
	require.True(t, acquired)
}

func TestScanLock_ReleaseWithoutAcquire(t *testing.T) {
	lock, _ := newTestLock(t, time.Minute)
	require.NoError(t, lock.Release(context.Background(), "book-1"))
}
