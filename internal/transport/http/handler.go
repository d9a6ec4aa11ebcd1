package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/strogmv/payment-service/internal/pkg/errors"
	"github.com/strogmv/payment-service/internal/port"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotencyReplayedHeader = "Idempotency-Replayed"
)

var errInvalidPaymentID = errors.New(http.StatusBadRequest, "Bad Request", "invalid payment_id")

type PaymentHandler struct {
	payments port.Payments
	ready    port.Pinger
}

func NewPaymentHandler(payments port.Payments, ready port.Pinger) *PaymentHandler {
	return &PaymentHandler{payments: payments, ready: ready}
}

type chargeBody struct {
	OrderID string          `json:"order_id"`
	Amount  json.RawMessage `json:"amount"`
	Method  string          `json:"method"`
}

// Charge handles POST /v1/payments/charge. The key is checked before the body
// is read so that a request without one is rejected the same way whatever its
// payload.
func (h *PaymentHandler) Charge(w http.ResponseWriter, r *http.Request) {
	req := port.ChargeRequest{IdempotencyKey: r.Header.Get(IdempotencyKeyHeader)}
	if req.IdempotencyKey != "" {
		var body chargeBody
		if err := decodeJSONRequest(r, &body); err != nil {
			writeDecodeError(w, r, err)
			return
		}
		req.OrderID = body.OrderID
		req.Method = body.Method
		req.Amount = amountText(body.Amount)
	}

	res, err := h.payments.Charge(r.Context(), req)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(IdempotencyReplayedHeader, strconv.FormatBool(res.Replayed))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Body) //nolint:errcheck
}

// Get handles GET /v1/payments/{payment_id}.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "payment_id"), 10, 64)
	if err != nil || id <= 0 {
		errors.WriteError(w, r, errInvalidPaymentID)
		return
	}
	resp, err := h.payments.GetPayment(r.Context(), id)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	errors.WriteJSON(w, http.StatusOK, resp)
}

func (h *PaymentHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	errors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *PaymentHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ready.Ping(ctx); err != nil {
			errors.WriteError(w, r, errors.Wrap(err, http.StatusServiceUnavailable, "Service Unavailable", "payment store unavailable"))
			return
		}
	}
	errors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// decodeJSONRequest reads the whole body into out. An empty body decodes as
// an empty object so that missing fields are reported by validation.
func decodeJSONRequest(r *http.Request, out any) error {
	if r.Body == nil {
		return nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		errors.WriteError(w, r, errTooLarge(tooLarge.Limit))
		return
	}
	errors.WriteError(w, r, errors.Wrap(err, http.StatusBadRequest, "Bad Request", "invalid JSON body"))
}

// amountText returns the amount as written by the client. A JSON string is
// unquoted so that "12.50" and 12.50 are treated alike; null and absence
// both yield "".
func amountText(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return s
		}
		return strings.TrimSpace(str)
	}
	return s
}
