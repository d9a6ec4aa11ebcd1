package service

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/strogmv/payment-service/internal/domain"
	"github.com/strogmv/payment-service/internal/pkg/errors"
	"github.com/strogmv/payment-service/internal/port"
)

// DefaultDeclineThreshold is the largest amount that is still approved.
var DefaultDeclineThreshold = decimal.NewFromInt(10000)

var errInvalidAmount = errors.New(http.StatusBadRequest, "Bad Request", "amount must be a positive number")

// DecisionInput is a charge request whose amount has been parsed.
type DecisionInput struct {
	OrderID string
	Amount  decimal.Decimal
	Method  string
}

// Engine decides charges. It performs no I/O; time and ids come from the
// injected clock and generator.
type Engine struct {
	threshold decimal.Decimal
	clock     port.Clock
	ids       port.IDGenerator
}

func NewEngine(threshold decimal.Decimal, clock port.Clock, ids port.IDGenerator) *Engine {
	return &Engine{threshold: threshold, clock: clock, ids: ids}
}

// Bounds on accepted amounts. An exponent is expanded in full by String and
// by comparisons, so it must be limited before any arithmetic.
const (
	maxAmountText     = 64
	maxAmountDigits   = 38
	maxAmountExponent = 18
)

// ParseAmount accepts the textual amount of a request. Missing, non-numeric,
// zero and negative values are input errors, as are amounts outside the
// bounds above.
func ParseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" || len(raw) > maxAmountText {
		return decimal.Zero, errInvalidAmount
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, http.StatusBadRequest, "Bad Request", "amount must be a positive number")
	}
	if exp := amount.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Zero, errInvalidAmount
	}
	if amount.NumDigits() > maxAmountDigits || !amount.IsPositive() {
		return decimal.Zero, errInvalidAmount
	}
	return amount, nil
}

// Decide returns the payment for in: FAILED above the threshold, SUCCESS otherwise.
func (e *Engine) Decide(in DecisionInput) (*domain.Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("decide order %q: %w", in.OrderID, errInvalidAmount)
	}
	status := domain.StatusSuccess
	if in.Amount.GreaterThan(e.threshold) {
		status = domain.StatusFailed
	}
	return &domain.Payment{
		ID:        e.ids.PaymentID(),
		OrderID:   in.OrderID,
		Amount:    in.Amount,
		Method:    in.Method,
		Status:    status,
		Reference: e.ids.Reference(),
		CreatedAt: e.clock.Now().UTC(),
	}, nil
}
