package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/strogmv/payment-service/internal/adapter/repository/memory"
	"github.com/strogmv/payment-service/internal/port"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDs struct{ n, ref atomic.Int64 }

func (g *seqIDs) PaymentID() int64 { return g.n.Add(1) }

func (g *seqIDs) Reference() string { return fmt.Sprintf("ref-%d", g.ref.Add(1)) }

var testNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(DefaultDeclineThreshold, fixedClock{t: testNow}, &seqIDs{})
}

func newTestService(store *memory.Store, opts ...Option) *PaymentService {
	rec := NewRecorder(store, store, store, store, time.Second)
	return NewPaymentService(store, store, newTestEngine(), rec, opts...)
}

type LedgerMock struct {
	LookupFunc  func(ctx context.Context, key string) (*port.LedgerEntry, error)
	ReserveFunc func(ctx context.Context, entry port.LedgerEntry) error
}

func (m *LedgerMock) Lookup(ctx context.Context, key string) (*port.LedgerEntry, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, key)
	}
	return nil, nil
}

func (m *LedgerMock) Reserve(ctx context.Context, entry port.LedgerEntry) error {
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, entry)
	}
	return nil
}

type TxManagerMock struct {
	WithTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *TxManagerMock) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	return fn(ctx)
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(ctx context.Context, key string, snapshot []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; !ok {
		c.data[key] = append([]byte(nil), snapshot...)
	}
	return nil
}

type LockerMock struct {
	AcquireFunc func(ctx context.Context, key string) (func(), bool, error)
}

func (m *LockerMock) Acquire(ctx context.Context, key string) (func(), bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, key)
	}
	return func() {}, true, nil
}

type PublisherMock struct {
	mu          sync.Mutex
	PublishFunc func(ctx context.Context, subject string, payload []byte) error
	Subjects    []string
}

func (m *PublisherMock) Publish(ctx context.Context, subject string, payload []byte) error {
	if m.PublishFunc != nil {
		if err := m.PublishFunc(ctx, subject, payload); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Subjects = append(m.Subjects, subject)
	m.mu.Unlock()
	return nil
}
