package port

import (
	"context"
	"time"
)

// LedgerEntry binds an idempotency key to the response snapshot produced the
// first time the key was seen.
type LedgerEntry struct {
	Key         string
	Snapshot    []byte
	RequestHash string
	PaymentID   int64
	CreatedAt   time.Time
}

// IdempotencyLedger maps idempotency keys to stored responses.
type IdempotencyLedger interface {
	// Lookup returns the entry for key, or nil when the key is unknown.
	Lookup(ctx context.Context, key string) (*LedgerEntry, error)
	// Reserve stores entry if its key is new. It returns ErrConflict when the
	// key already exists and never overwrites.
	Reserve(ctx context.Context, entry LedgerEntry) error
}
