package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/strogmv/payment-service/internal/pkg/logger"
	"github.com/strogmv/payment-service/internal/port"
)

// OutboxRelay publishes events recorded by the Recorder. Delivery is at least
// once: a crash between publish and mark resends the message.
type OutboxRelay struct {
	outbox    port.OutboxRepository
	publisher port.Publisher
	subjects  map[string]string
	interval  time.Duration
	batch     int
}

// NewOutboxRelay builds a relay. subjects maps event topics to broker
// subjects; unmapped topics are published under the topic name.
func NewOutboxRelay(outbox port.OutboxRepository, publisher port.Publisher, subjects map[string]string, interval time.Duration, batch int) *OutboxRelay {
	if interval <= 0 {
		interval = time.Second
	}
	if batch <= 0 {
		batch = 100
	}
	return &OutboxRelay{outbox: outbox, publisher: publisher, subjects: subjects, interval: interval, batch: batch}
}

// Run flushes on every tick until ctx is done.
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				logger.From(ctx).Warn("outbox flush failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Flush publishes one batch in order and stops at the first failure so that
// events are never delivered out of order.
func (r *OutboxRelay) Flush(ctx context.Context) (int, error) {
	msgs, err := r.outbox.ListPending(ctx, r.batch)
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", err)
	}
	delivered := make([]string, 0, len(msgs))
	var pubErr error
	for _, m := range msgs {
		subject := m.Topic
		if s, ok := r.subjects[m.Topic]; ok {
			subject = s
		}
		if err := r.publisher.Publish(ctx, subject, m.Payload); err != nil {
			outboxFailures.Inc()
			pubErr = fmt.Errorf("publish %s: %w", m.ID, err)
			break
		}
		outboxPublished.Inc()
		delivered = append(delivered, m.ID)
	}
	if len(delivered) > 0 {
		if err := r.outbox.MarkProcessed(ctx, delivered...); err != nil {
			return 0, fmt.Errorf("mark processed: %w", err)
		}
	}
	return len(delivered), pubErr
}
