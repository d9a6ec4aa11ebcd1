package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/strogmv/payment-service/internal/port"
)

const replayKeyPrefix = "idem:replay:"

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

// ReplayCache keeps ledger snapshots in Redis. Snapshots never change once
// written, so entries only expire, they are never invalidated.
type ReplayCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewReplayCache(rdb *redis.Client, ttl time.Duration) *ReplayCache {
	return &ReplayCache{rdb: rdb, ttl: ttl}
}

func (c *ReplayCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, replayKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// Set stores snapshot unless the key is already cached.
func (c *ReplayCache) Set(ctx context.Context, key string, snapshot []byte) error {
	return c.rdb.SetNX(ctx, replayKeyPrefix+key, snapshot, c.ttl).Err()
}

var _ port.ReplayCache = (*ReplayCache)(nil)
