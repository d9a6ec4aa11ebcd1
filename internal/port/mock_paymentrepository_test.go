package port

import (
	"context"

	"github.com/strogmv/payment-service/internal/domain"
)

type PaymentRepositoryMock struct {
	InsertFunc   func(ctx context.Context, p *domain.Payment) error
	FindByIDFunc func(ctx context.Context, id int64) (*domain.Payment, error)
}

func (m *PaymentRepositoryMock) Insert(ctx context.Context, p *domain.Payment) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, p)
	}
	return nil
}

func (m *PaymentRepositoryMock) FindByID(ctx context.Context, id int64) (*domain.Payment, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, ErrNotFound
}

func NewPaymentRepositoryMock() *PaymentRepositoryMock {
	return &PaymentRepositoryMock{}
}

var _ PaymentRepository = (*PaymentRepositoryMock)(nil)
