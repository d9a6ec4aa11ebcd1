package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/strogmv/payment-service/internal/domain"
	"github.com/strogmv/payment-service/internal/port"
)

type PaymentRepository struct {
	gw    *Gateway
	table string
}

func NewPaymentRepository(gw *Gateway) *PaymentRepository {
	return &PaymentRepository{gw: gw, table: gw.Table("payments")}
}

func (r *PaymentRepository) Insert(ctx context.Context, p *domain.Payment) error {
	_, err := r.gw.Exec(ctx,
		"INSERT INTO "+r.table+" (payment_id, order_id, amount, method, status, reference, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		p.ID, p.OrderID, p.Amount.String(), p.Method, string(p.Status), p.Reference, p.CreatedAt)
	return err
}

func (r *PaymentRepository) FindByID(ctx context.Context, id int64) (*domain.Payment, error) {
	var (
		p              domain.Payment
		amount, status string
	)
	err := r.gw.QueryRow(ctx,
		"SELECT payment_id, order_id, amount::text, method, status, reference::text, created_at FROM "+r.table+" WHERE payment_id = $1",
		id).Scan(&p.ID, &p.OrderID, &amount, &p.Method, &status, &p.Reference, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payment %d: %w", id, port.ErrNotFound)
		}
		return nil, err
	}
	p.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("payment %d amount %q: %w", id, amount, err)
	}
	p.Status = domain.PaymentStatus(status)
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

var _ port.PaymentRepository = (*PaymentRepository)(nil)
