package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/strogmv/payment-service/internal/service")

const (
	outcomeCreated          = "created"
	outcomeReplayed         = "replayed"
	outcomeConflictReplayed = "conflict_replayed"
	outcomeRejected         = "rejected"
	outcomeFailed           = "failed"
)

var (
	chargeOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_charges_total",
		Help: "Charge requests by how they were resolved.",
	}, []string{"outcome"})

	chargeDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_decisions_total",
		Help: "Newly recorded payments by status.",
	}, []string{"status"})

	outboxPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_outbox_published_total",
		Help: "Outbox events delivered to the broker.",
	})

	outboxFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_outbox_publish_failures_total",
		Help: "Outbox events whose publish attempt failed.",
	})
)
