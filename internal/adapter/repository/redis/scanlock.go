package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ScanLock implements usecase.ScanLock using Redis SETNX. It serializes
// scan passes per book so two runs cannot both pass the idempotence filter
// and submit overlapping batches.
type ScanLock struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewScanLock creates a new ScanLock. The TTL bounds how long a crashed
// run can keep a book locked.
func NewScanLock(client *redis.Client, ttl time.Duration) *ScanLock {
	return &ScanLock{
		client: client,
		prefix: "scanlock:",
		ttl:    ttl,
	}
}

// Acquire takes the book's lock. Returns false when another run holds it.
func (l *ScanLock) Acquire(ctx context.Context, bookID string) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+bookID, "locked", l.ttl).Result()
}

// Release frees the book's lock.
func (l *ScanLock) Release(ctx context.Context, bookID string) error {
	return l.client.Del(ctx, l.prefix+bookID).Err()
}
