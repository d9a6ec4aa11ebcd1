package port

import "context"

// ReplayCache holds copies of immutable ledger snapshots. It is an
// optimization only: a miss or an error falls through to the ledger.
type ReplayCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, snapshot []byte) error
}

// KeyLocker serializes work on one idempotency key across instances on a
// best-effort basis. ok=false means the lock was not obtained in time.
type KeyLocker interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}
