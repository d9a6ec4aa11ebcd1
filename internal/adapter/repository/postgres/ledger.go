package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/strogmv/payment-service/internal/port"
)

// Ledger stores idempotency keys. The primary key on idempotency_key is what
// decides which of several racing writers wins.
type Ledger struct {
	gw    *Gateway
	table string
}

func NewLedger(gw *Gateway) *Ledger {
	return &Ledger{gw: gw, table: gw.Table("idempotency_keys")}
}

func (l *Ledger) Lookup(ctx context.Context, key string) (*port.LedgerEntry, error) {
	var (
		e    port.LedgerEntry
		snap string
	)
	err := l.gw.QueryRow(ctx,
		"SELECT idempotency_key, response_snapshot, COALESCE(request_hash, ''), COALESCE(payment_id, 0), created_at FROM "+l.table+" WHERE idempotency_key = $1",
		key).Scan(&e.Key, &snap, &e.RequestHash, &e.PaymentID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	e.Snapshot = []byte(snap)
	return &e, nil
}

// Reserve inserts entry. A unique violation means another request holds the
// key and is reported as port.ErrConflict.
func (l *Ledger) Reserve(ctx context.Context, entry port.LedgerEntry) error {
	_, err := l.gw.Exec(ctx,
		"INSERT INTO "+l.table+" (idempotency_key, response_snapshot, request_hash, payment_id, created_at) VALUES ($1, $2, $3, $4, $5)",
		entry.Key, string(entry.Snapshot), nullString(entry.RequestHash), nullInt(entry.PaymentID), entry.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("key %q: %w", entry.Key, port.ErrConflict)
	}
	return err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

var _ port.IdempotencyLedger = (*Ledger)(nil)
