package postgres

import (
	"context"

	"github.com/strogmv/payment-service/internal/port"
)

type OutboxRepository struct {
	gw    *Gateway
	table string
}

func NewOutboxRepository(gw *Gateway) *OutboxRepository {
	return &OutboxRepository{gw: gw, table: gw.Table("outbox_events")}
}

func (r *OutboxRepository) SaveEvent(ctx context.Context, msg port.OutboxMessage) error {
	_, err := r.gw.Exec(ctx,
		"INSERT INTO "+r.table+" (id, topic, payload, created_at) VALUES ($1, $2, $3, $4)",
		msg.ID, msg.Topic, string(msg.Payload), msg.CreatedAt)
	return err
}

func (r *OutboxRepository) ListPending(ctx context.Context, limit int) ([]port.OutboxMessage, error) {
	rows, err := r.gw.Query(ctx,
		"SELECT id::text, topic, payload::text, created_at FROM "+r.table+" WHERE processed_at IS NULL ORDER BY seq LIMIT $1", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []port.OutboxMessage
	for rows.Next() {
		var (
			m       port.OutboxMessage
			payload string
		)
		if err := rows.Scan(&m.ID, &m.Topic, &payload, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Payload = []byte(payload)
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *OutboxRepository) MarkProcessed(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.gw.Exec(ctx, "UPDATE "+r.table+" SET processed_at = NOW() WHERE id::text = ANY($1)", ids)
	return err
}

var _ port.OutboxRepository = (*OutboxRepository)(nil)
