package port

import (
	"context"
	"time"
)

type OutboxMessage struct {
	ID        string
	Topic     string
	Payload   []byte
	CreatedAt time.Time
}

// OutboxRepository keeps events written in the same transaction as the payment
// until the relay has published them.
type OutboxRepository interface {
	SaveEvent(ctx context.Context, msg OutboxMessage) error
	// ListPending returns unpublished messages, oldest first.
	ListPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkProcessed(ctx context.Context, ids ...string) error
}
