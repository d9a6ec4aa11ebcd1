package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/strogmv/payment-service/internal/port"
)

type RouterConfig struct {
	ServiceName    string
	CORSOrigins    []string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// NewRouter mounts the payment API together with the probe and metrics
// endpoints. ready may be nil, in which case /readyz always succeeds.
func NewRouter(cfg RouterConfig, payments port.Payments, ready port.Pinger) http.Handler {
	h := NewPaymentHandler(payments, ready)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", IdempotencyKeyHeader, middleware.RequestIDHeader},
		ExposedHeaders: []string{IdempotencyReplayedHeader, middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/payments", func(r chi.Router) {
		r.Use(MaxBodySizeMiddleware(cfg.MaxBodyBytes))
		r.Use(TimeoutMiddleware(cfg.RequestTimeout))
		r.Post("/charge", h.Charge)
		r.Get("/{payment_id}", h.Get)
	})

	name := cfg.ServiceName
	if name == "" {
		name = "payment-service"
	}
	return otelhttp.NewHandler(r, name)
}
