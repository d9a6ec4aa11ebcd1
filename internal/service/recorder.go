package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/strogmv/payment-service/internal/domain"
	"github.com/strogmv/payment-service/internal/port"
)

// Recorder writes a decided payment together with its ledger entry and
// outbox event in one transaction.
type Recorder struct {
	tx       port.TxManager
	payments port.PaymentRepository
	ledger   port.IdempotencyLedger
	outbox   port.OutboxRepository
	timeout  time.Duration
}

// NewRecorder builds a Recorder. outbox may be nil. timeout bounds the
// transaction once it has been detached from the caller.
func NewRecorder(tx port.TxManager, payments port.PaymentRepository, ledger port.IdempotencyLedger, outbox port.OutboxRepository, timeout time.Duration) *Recorder {
	return &Recorder{tx: tx, payments: payments, ledger: ledger, outbox: outbox, timeout: timeout}
}

// Persist stores p and binds key to its response snapshot. Both become
// visible together or not at all. A key that is already bound yields an
// error wrapping port.ErrConflict.
//
// The write ignores cancellation of ctx: a client that hangs up must not
// abort a transaction that is already in flight.
func (r *Recorder) Persist(ctx context.Context, p *domain.Payment, key, requestHash string) ([]byte, error) {
	snapshot, err := p.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	ctx = context.WithoutCancel(ctx)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	ctx, span := tracer.Start(ctx, "Recorder.Persist")
	defer span.End()

	err = r.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := r.payments.Insert(ctx, p); err != nil {
			return fmt.Errorf("insert payment %d: %w", p.ID, err)
		}
		err := r.ledger.Reserve(ctx, port.LedgerEntry{
			Key:         key,
			Snapshot:    snapshot,
			RequestHash: requestHash,
			PaymentID:   p.ID,
			CreatedAt:   p.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("reserve idempotency key: %w", err)
		}
		if r.outbox == nil {
			return nil
		}
		payload, err := json.Marshal(domain.NewPaymentCharged(p, key))
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		return r.outbox.SaveEvent(ctx, port.OutboxMessage{
			ID:        uuid.NewString(),
			Topic:     domain.EventPaymentCharged,
			Payload:   payload,
			CreatedAt: p.CreatedAt,
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return snapshot, nil
}
