package port

import (
	"context"
	"errors"
)

var (
	// ErrConflict reports a duplicate idempotency key rejected by the store.
	ErrConflict = errors.New("idempotency key already reserved")
	// ErrNotFound reports a missing record.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable reports that store calls are being short-circuited.
	ErrStoreUnavailable = errors.New("payment store unavailable")
)

// TxManager runs fn inside one store transaction. Repositories called with the
// ctx passed to fn join that transaction. fn returning an error rolls back.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pinger reports store reachability for readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}
