package port

import (
	"context"

	"github.com/strogmv/payment-service/internal/domain"
)

type PaymentRepository interface {
	Insert(ctx context.Context, p *domain.Payment) error
	// FindByID returns ErrNotFound when no payment has the id.
	FindByID(ctx context.Context, id int64) (*domain.Payment, error)
}
