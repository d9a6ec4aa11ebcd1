package port

import (
	"context"

	"github.com/strogmv/payment-service/internal/domain"
)

type Payments interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	GetPayment(ctx context.Context, id int64) (domain.ChargeResponse, error)
}

// ChargeRequest carries the fields of a charge call. Amount is the textual
// form received from the client; empty means it was absent.
type ChargeRequest struct {
	IdempotencyKey string `json:"-"`
	OrderID        string `json:"order_id" validate:"required,max=255"`
	Amount         string `json:"amount"`
	Method         string `json:"method" validate:"required,max=64"`
}

// ChargeResult is the response body to send. Replayed is set when Body is a
// stored snapshot from an earlier request with the same key.
type ChargeResult struct {
	Body      []byte
	Replayed  bool
	PaymentID int64
}
