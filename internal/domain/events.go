package domain

const EventPaymentCharged = "payment.charged"

// PaymentCharged is emitted once per recorded payment through the outbox.
type PaymentCharged struct {
	PaymentID      int64         `json:"paymentId"`
	OrderID        string        `json:"orderId"`
	Amount         string        `json:"amount"`
	Method         string        `json:"method"`
	Status         PaymentStatus `json:"status"`
	Reference      string        `json:"reference"`
	IdempotencyKey string        `json:"idempotencyKey"`
	CreatedAt      string        `json:"createdAt"`
}

func NewPaymentCharged(p *Payment, key string) PaymentCharged {
	return PaymentCharged{
		PaymentID:      p.ID,
		OrderID:        p.OrderID,
		Amount:         p.Amount.String(),
		Method:         p.Method,
		Status:         p.Status,
		Reference:      p.Reference,
		IdempotencyKey: key,
		CreatedAt:      p.CreatedAt.UTC().Format(CreatedAtLayout),
	}
}
