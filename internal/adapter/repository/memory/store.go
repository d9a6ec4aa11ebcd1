// Package memory provides an in-process store with the same uniqueness and
// transaction guarantees as the Postgres adapter.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/strogmv/payment-service/internal/domain"
	"github.com/strogmv/payment-service/internal/port"
)

type outboxRow struct {
	msg       port.OutboxMessage
	seq       int
	processed bool
}

// Store keeps payments, ledger entries and outbox events in maps. Writes made
// inside WithTx are staged and applied atomically on commit.
type Store struct {
	mu       sync.RWMutex
	payments map[int64]domain.Payment
	ledger   map[string]port.LedgerEntry
	outbox   map[string]*outboxRow
	seq      int
}

func NewStore() *Store {
	return &Store{
		payments: make(map[int64]domain.Payment),
		ledger:   make(map[string]port.LedgerEntry),
		outbox:   make(map[string]*outboxRow),
	}
}

type txKey struct{}

type tx struct {
	payments []domain.Payment
	ledger   []port.LedgerEntry
	outbox   []port.OutboxMessage
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

// WithTx stages every write made through ctx and commits them together when
// fn succeeds. A nested call joins the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}
	t := &tx{}
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(t.ledger))
	for _, e := range t.ledger {
		if _, ok := s.ledger[e.Key]; ok {
			return fmt.Errorf("key %q: %w", e.Key, port.ErrConflict)
		}
		if _, ok := seen[e.Key]; ok {
			return fmt.Errorf("key %q: %w", e.Key, port.ErrConflict)
		}
		seen[e.Key] = struct{}{}
	}
	for _, p := range t.payments {
		if _, ok := s.payments[p.ID]; ok {
			return fmt.Errorf("payment %d already exists", p.ID)
		}
	}

	for _, p := range t.payments {
		s.payments[p.ID] = p
	}
	for _, e := range t.ledger {
		s.ledger[e.Key] = e
	}
	for _, m := range t.outbox {
		s.appendOutbox(m)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, p *domain.Payment) error {
	if p == nil {
		return fmt.Errorf("payment is required")
	}
	if t := txFrom(ctx); t != nil {
		t.payments = append(t.payments, *p)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; ok {
		return fmt.Errorf("payment %d already exists", p.ID)
	}
	s.payments[p.ID] = *p
	return nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %d: %w", id, port.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) Lookup(ctx context.Context, key string) (*port.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.ledger[key]
	if !ok {
		return nil, nil
	}
	e.Snapshot = append([]byte(nil), e.Snapshot...)
	return &e, nil
}

func (s *Store) Reserve(ctx context.Context, entry port.LedgerEntry) error {
	entry.Snapshot = append([]byte(nil), entry.Snapshot...)
	if t := txFrom(ctx); t != nil {
		s.mu.RLock()
		_, exists := s.ledger[entry.Key]
		s.mu.RUnlock()
		if exists {
			return fmt.Errorf("key %q: %w", entry.Key, port.ErrConflict)
		}
		t.ledger = append(t.ledger, entry)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledger[entry.Key]; ok {
		return fmt.Errorf("key %q: %w", entry.Key, port.ErrConflict)
	}
	s.ledger[entry.Key] = entry
	return nil
}

func (s *Store) SaveEvent(ctx context.Context, msg port.OutboxMessage) error {
	if t := txFrom(ctx); t != nil {
		t.outbox = append(t.outbox, msg)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendOutbox(msg)
	return nil
}

func (s *Store) appendOutbox(msg port.OutboxMessage) {
	s.seq++
	s.outbox[msg.ID] = &outboxRow{msg: msg, seq: s.seq}
}

func (s *Store) ListPending(ctx context.Context, limit int) ([]port.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]*outboxRow, 0, len(s.outbox))
	for _, r := range s.outbox {
		if !r.processed {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	items := make([]port.OutboxMessage, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.msg)
	}
	return items, nil
}

func (s *Store) MarkProcessed(ctx context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if r, ok := s.outbox[id]; ok {
			r.processed = true
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

// Counts reports how many payments and ledger entries are committed.
func (s *Store) Counts() (payments, entries int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payments), len(s.ledger)
}

var (
	_ port.TxManager         = (*Store)(nil)
	_ port.IdempotencyLedger = (*Store)(nil)
	_ port.PaymentRepository = (*Store)(nil)
	_ port.OutboxRepository  = (*Store)(nil)
	_ port.Pinger            = (*Store)(nil)
)
