package port

import "context"

type OutboxRepositoryMock struct {
	SaveEventFunc     func(ctx context.Context, msg OutboxMessage) error
	ListPendingFunc   func(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkProcessedFunc func(ctx context.Context, ids ...string) error
}

func (m *OutboxRepositoryMock) SaveEvent(ctx context.Context, msg OutboxMessage) error {
	if m.SaveEventFunc != nil {
		return m.SaveEventFunc(ctx, msg)
	}
	return nil
}

func (m *OutboxRepositoryMock) ListPending(ctx context.Context, limit int) ([]OutboxMessage, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, limit)
	}
	return nil, nil
}

func (m *OutboxRepositoryMock) MarkProcessed(ctx context.Context, ids ...string) error {
	if m.MarkProcessedFunc != nil {
		return m.MarkProcessedFunc(ctx, ids...)
	}
	return nil
}

func NewOutboxRepositoryMock() *OutboxRepositoryMock {
	return &OutboxRepositoryMock{}
}

var _ OutboxRepository = (*OutboxRepositoryMock)(nil)
