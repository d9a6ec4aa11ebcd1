package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	StatusSuccess PaymentStatus = "SUCCESS"
	StatusFailed  PaymentStatus = "FAILED"
)

func (s PaymentStatus) Valid() bool {
	return s == StatusSuccess || s == StatusFailed
}

// CreatedAtLayout is ISO-8601 in UTC with millisecond precision.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z"

// Payment is the outcome of one charge attempt. It is written once and
// never mutated.
type Payment struct {
	ID        int64
	OrderID   string
	Amount    decimal.Decimal
	Method    string
	Status    PaymentStatus
	Reference string
	CreatedAt time.Time
}

// ChargeResponse is the client-visible body of a charge and the shape of the
// snapshot stored for replay.
type ChargeResponse struct {
	PaymentID int64         `json:"payment_id"`
	OrderID   string        `json:"order_id"`
	Amount    json.Number   `json:"amount"`
	Method    string        `json:"method"`
	Status    PaymentStatus `json:"status"`
	Reference string        `json:"reference"`
	CreatedAt string        `json:"created_at"`
}

func (p *Payment) Response() ChargeResponse {
	return ChargeResponse{
		PaymentID: p.ID,
		OrderID:   p.OrderID,
		Amount:    json.Number(p.Amount.String()),
		Method:    p.Method,
		Status:    p.Status,
		Reference: p.Reference,
		CreatedAt: p.CreatedAt.UTC().Format(CreatedAtLayout),
	}
}

// Snapshot serializes the response exactly as it is returned and stored.
func (p *Payment) Snapshot() ([]byte, error) {
	return json.Marshal(p.Response())
}
