package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/strogmv/payment-service/internal/domain"
	"github.com/strogmv/payment-service/internal/pkg/errors"
	"github.com/strogmv/payment-service/internal/pkg/fingerprint"
	"github.com/strogmv/payment-service/internal/pkg/logger"
	"github.com/strogmv/payment-service/internal/port"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

var (
	errMissingKey      = errors.New(http.StatusBadRequest, "Bad Request", "Idempotency-Key header required")
	errPaymentNotFound = errors.New(http.StatusNotFound, "Not Found", "payment not found")
)

const (
	detailPersistFailed = "payment persistence failed"
	detailLookupFailed  = "payment lookup failed"
)

// PaymentService resolves charge requests against the idempotency ledger.
//
// A request whose key is already in the ledger gets the stored snapshot back
// unchanged. Otherwise the engine decides, the recorder persists, and the new
// snapshot is returned. When persisting loses a race on the key, the winner's
// snapshot is read back and returned instead.
type PaymentService struct {
	ledger   port.IdempotencyLedger
	payments port.PaymentRepository
	engine   *Engine
	recorder *Recorder
	cache    port.ReplayCache
	locker   port.KeyLocker
}

type Option func(*PaymentService)

func WithReplayCache(c port.ReplayCache) Option {
	return func(s *PaymentService) { s.cache = c }
}

func WithKeyLocker(l port.KeyLocker) Option {
	return func(s *PaymentService) { s.locker = l }
}

func NewPaymentService(ledger port.IdempotencyLedger, payments port.PaymentRepository, engine *Engine, recorder *Recorder, opts ...Option) *PaymentService {
	s := &PaymentService{ledger: ledger, payments: payments, engine: engine, recorder: recorder}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PaymentService) Charge(ctx context.Context, req port.ChargeRequest) (resp port.ChargeResult, err error) {
	ctx, span := tracer.Start(ctx, "PaymentService.Charge")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	key := req.IdempotencyKey
	if key == "" {
		chargeOutcomes.WithLabelValues(outcomeRejected).Inc()
		return resp, errMissingKey
	}
	log := logger.From(ctx).With(slog.String("idempotency_key", key))

	in, err := validateCharge(req)
	if err != nil {
		chargeOutcomes.WithLabelValues(outcomeRejected).Inc()
		return resp, err
	}
	hash := fingerprint.Of(in.OrderID, in.Amount.String(), in.Method)

	resp, found, err := s.replay(ctx, log, key, hash)
	if err != nil {
		chargeOutcomes.WithLabelValues(outcomeFailed).Inc()
		return resp, storeError(err, detailLookupFailed)
	}
	if found {
		chargeOutcomes.WithLabelValues(outcomeReplayed).Inc()
		span.SetAttributes(attribute.Bool("payment.replayed", true))
		log.Info("charge replayed", slog.Int64("payment_id", resp.PaymentID))
		return resp, nil
	}

	if s.locker != nil {
		release, ok, lerr := s.locker.Acquire(ctx, key)
		if lerr != nil {
			log.Warn("idempotency lock unavailable", slog.String("error", lerr.Error()))
		}
		if ok {
			defer release()
			// The previous holder may have finished while we waited.
			resp, found, err = s.replay(ctx, log, key, hash)
			if err != nil {
				chargeOutcomes.WithLabelValues(outcomeFailed).Inc()
				return resp, storeError(err, detailLookupFailed)
			}
			if found {
				chargeOutcomes.WithLabelValues(outcomeReplayed).Inc()
				log.Info("charge replayed after wait", slog.Int64("payment_id", resp.PaymentID))
				return resp, nil
			}
		}
	}

	payment, err := s.engine.Decide(in)
	if err != nil {
		chargeOutcomes.WithLabelValues(outcomeRejected).Inc()
		return resp, err
	}

	snapshot, err := s.recorder.Persist(ctx, payment, key, hash)
	if errors.Is(err, port.ErrConflict) {
		resp, found, lerr := s.replay(ctx, log, key, hash)
		if lerr != nil {
			chargeOutcomes.WithLabelValues(outcomeFailed).Inc()
			return resp, storeError(lerr, detailLookupFailed)
		}
		if !found {
			chargeOutcomes.WithLabelValues(outcomeFailed).Inc()
			return resp, errors.Wrap(err, http.StatusInternalServerError, "Internal Server Error", detailPersistFailed)
		}
		chargeOutcomes.WithLabelValues(outcomeConflictReplayed).Inc()
		span.SetAttributes(attribute.Bool("payment.replayed", true))
		log.Info("charge lost race, replaying winner", slog.Int64("payment_id", resp.PaymentID))
		return resp, nil
	}
	if err != nil {
		chargeOutcomes.WithLabelValues(outcomeFailed).Inc()
		log.Error("payment persist failed", slog.Int64("payment_id", payment.ID), slog.String("error", err.Error()))
		return resp, storeError(err, detailPersistFailed)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, snapshot); err != nil {
			log.Warn("replay cache set failed", slog.String("error", err.Error()))
		}
	}
	chargeOutcomes.WithLabelValues(outcomeCreated).Inc()
	chargeDecisions.WithLabelValues(string(payment.Status)).Inc()
	span.SetAttributes(
		attribute.Int64("payment.id", payment.ID),
		attribute.String("payment.status", string(payment.Status)),
	)
	log.Info("charge recorded",
		slog.Int64("payment_id", payment.ID),
		slog.String("status", string(payment.Status)),
	)
	return port.ChargeResult{Body: snapshot, PaymentID: payment.ID}, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id int64) (domain.ChargeResponse, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.GetPayment")
	defer span.End()

	p, err := s.payments.FindByID(ctx, id)
	if errors.Is(err, port.ErrNotFound) {
		return domain.ChargeResponse{}, errPaymentNotFound
	}
	if err != nil {
		return domain.ChargeResponse{}, storeError(err, detailLookupFailed)
	}
	return p.Response(), nil
}

// replay returns the stored response for key, consulting the cache first.
func (s *PaymentService) replay(ctx context.Context, log *slog.Logger, key, hash string) (port.ChargeResult, bool, error) {
	if s.cache != nil {
		snap, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn("replay cache get failed", slog.String("error", err.Error()))
		} else if ok {
			return port.ChargeResult{Body: replayBody(log, snap), Replayed: true}, true, nil
		}
	}

	entry, err := s.ledger.Lookup(ctx, key)
	if err != nil {
		return port.ChargeResult{}, false, fmt.Errorf("lookup idempotency key: %w", err)
	}
	if entry == nil {
		return port.ChargeResult{}, false, nil
	}
	if entry.RequestHash != "" && entry.RequestHash != hash {
		log.Warn("idempotency key reused with a different request body", slog.Int64("payment_id", entry.PaymentID))
	}
	if s.cache != nil && json.Valid(entry.Snapshot) {
		if err := s.cache.Set(ctx, key, entry.Snapshot); err != nil {
			log.Warn("replay cache set failed", slog.String("error", err.Error()))
		}
	}
	return port.ChargeResult{
		Body:      replayBody(log, entry.Snapshot),
		Replayed:  true,
		PaymentID: entry.PaymentID,
	}, true, nil
}

// replayBody returns snap untouched when it is JSON. A corrupt snapshot is
// sent back as a JSON string holding the raw stored value.
func replayBody(log *slog.Logger, snap []byte) []byte {
	if json.Valid(snap) {
		return snap
	}
	log.Warn("stored snapshot is not valid JSON, replaying raw value")
	raw, _ := json.Marshal(string(snap))
	return raw
}

func validateCharge(req port.ChargeRequest) (DecisionInput, error) {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return DecisionInput{}, errors.New(http.StatusBadRequest, "Bad Request", fieldMessage(verrs[0]))
		}
		return DecisionInput{}, errors.Wrap(err, http.StatusBadRequest, "Bad Request", "invalid request")
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return DecisionInput{}, err
	}
	return DecisionInput{OrderID: req.OrderID, Amount: amount, Method: req.Method}, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}

func storeError(err error, detail string) error {
	if errors.Is(err, port.ErrStoreUnavailable) {
		return errors.Wrap(err, http.StatusServiceUnavailable, "Service Unavailable", "payment store unavailable")
	}
	return errors.Wrap(err, http.StatusInternalServerError, "Internal Server Error", detail)
}
