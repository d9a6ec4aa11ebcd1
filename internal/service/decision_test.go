package service

import (
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strogmv/payment-service/internal/domain"
	"github.com/strogmv/payment-service/internal/pkg/errors"
)

func TestDecideBoundary(t *testing.T) {
	e := newTestEngine()
	cases := []struct {
		amount string
		want   domain.PaymentStatus
	}{
		{"0.01", domain.StatusSuccess},
		{"9999.99", domain.StatusSuccess},
		{"10000", domain.StatusSuccess},
		{"10000.00", domain.StatusSuccess},
		{"10000.01", domain.StatusFailed},
		{"1e5", domain.StatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.amount, func(t *testing.T) {
			amount, err := ParseAmount(tc.amount)
			require.NoError(t, err)
			p, err := e.Decide(DecisionInput{OrderID: "o", Amount: amount, Method: "card"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, p.Status)
		})
	}
}

func TestDecideUsesInjectedClockAndIDs(t *testing.T) {
	e := newTestEngine()
	p1, err := e.Decide(DecisionInput{OrderID: "o", Amount: decimal.NewFromInt(5), Method: "card"})
	require.NoError(t, err)
	p2, err := e.Decide(DecisionInput{OrderID: "o", Amount: decimal.NewFromInt(5), Method: "card"})
	require.NoError(t, err)

	assert.Equal(t, testNow, p1.CreatedAt)
	assert.NotEqual(t, p1.ID, p2.ID)
	assert.NotEqual(t, p1.Reference, p2.Reference)
}

func TestParseAmountRejects(t *testing.T) {
	for _, raw := range []string{
		"", "0", "0.00", "-1", "-10000.01", "abc", "NaN", "Infinity", "true", "{}",
		"1e1000000000", "1e-1000000000", "1e2000000", "1e19", "1e-19",
		"123456789012345678901234567890123456789",
		"1" + strings.Repeat("0", 70),
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseAmount(raw)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, errors.Status(err))
		})
	}
}

func TestDecideRejectsNonPositive(t *testing.T) {
	_, err := newTestEngine().Decide(DecisionInput{OrderID: "o", Amount: decimal.Zero, Method: "card"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.Status(err))
}

func TestParseAmountAcceptsBoundaries(t *testing.T) {
	for _, raw := range []string{"1e18", "1e-18", "0.000000000000000001", "12345678901234567890123456789012345678"} {
		t.Run(raw, func(t *testing.T) {
			amount, err := ParseAmount(raw)
			require.NoError(t, err)
			assert.True(t, amount.IsPositive())
		})
	}
}
