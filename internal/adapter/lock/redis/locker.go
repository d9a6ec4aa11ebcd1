// Package redis coalesces concurrent requests for one idempotency key with a
// short Redis lock. The lock only reduces wasted work; duplicate protection
// comes from the ledger's unique key.
package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/strogmv/payment-service/internal/port"
)

const lockKeyPrefix = "idem:lock:"

type Locker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewLocker builds a locker whose locks expire after ttl. Acquire waits up
// to wait for a held lock.
func NewLocker(rdb *redis.Client, ttl, wait time.Duration) *Locker {
	return &Locker{client: redislock.New(rdb), ttl: ttl, wait: wait}
}

func (l *Locker) Acquire(ctx context.Context, key string) (func(), bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	lock, err := l.client.Obtain(ctx, lockKeyPrefix+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(50 * time.Millisecond),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
			return nil, false, nil
		}
		return nil, false, err
	}
	release := func() {
		rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
		defer rcancel()
		if err := lock.Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			slog.Warn("release idempotency lock", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return release, true, nil
}

var _ port.KeyLocker = (*Locker)(nil)
