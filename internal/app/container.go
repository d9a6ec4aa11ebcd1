package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	rediscache "github.com/strogmv/payment-service/internal/adapter/cache/redis"
	natsevents "github.com/strogmv/payment-service/internal/adapter/events/nats"
	redislock "github.com/strogmv/payment-service/internal/adapter/lock/redis"
	"github.com/strogmv/payment-service/internal/adapter/repository/memory"
	"github.com/strogmv/payment-service/internal/adapter/repository/postgres"
	"github.com/strogmv/payment-service/internal/config"
	"github.com/strogmv/payment-service/internal/domain"
	"github.com/strogmv/payment-service/internal/pkg/circuitbreaker"
	"github.com/strogmv/payment-service/internal/pkg/idgen"
	"github.com/strogmv/payment-service/internal/port"
	"github.com/strogmv/payment-service/internal/service"
)

type Container struct {
	Config *config.Config

	Pool  *pgxpool.Pool
	Redis *redis.Client
	NATS  *natsevents.Client

	Ledger   port.IdempotencyLedger
	Payments port.PaymentRepository
	Outbox   port.OutboxRepository
	Tx       port.TxManager
	Ready    port.Pinger

	SvcPayments *service.PaymentService
	Relay       *service.OutboxRelay
}

// NewContainer connects the configured backends and wires the service. Redis
// and NATS are optional; when their address is empty the matching feature is
// left out.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	threshold, err := decimal.NewFromString(cfg.DeclineThreshold)
	if err != nil {
		return nil, fmt.Errorf("DECLINE_THRESHOLD: %w", err)
	}
	ids, err := idgen.New(cfg.NodeID)
	if err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case "memory":
		store := memory.NewStore()
		c.Ledger, c.Payments, c.Outbox, c.Tx, c.Ready = store, store, store, store, store
	default:
		if err := c.connectPostgres(ctx); err != nil {
			return nil, err
		}
	}

	var opts []service.Option
	if cfg.RedisAddr != "" {
		c.Redis = rediscache.NewClient(cfg.RedisAddr)
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			// Cache and lock are optimizations; the store stays authoritative.
			slog.Warn("redis unavailable at startup", slog.String("addr", cfg.RedisAddr), slog.String("error", err.Error()))
		}
		opts = append(opts,
			service.WithReplayCache(rediscache.NewReplayCache(c.Redis, cfg.ReplayCacheTTL)),
			service.WithKeyLocker(redislock.NewLocker(c.Redis, cfg.LockTTL, cfg.LockWait)),
		)
	}

	if cfg.NATSURL != "" {
		c.NATS, err = natsevents.NewClient(cfg.NATSURL, cfg.ServiceName)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("nats: %w", err)
		}
		subjects := map[string]string{domain.EventPaymentCharged: cfg.EventsSubject}
		c.Relay = service.NewOutboxRelay(c.Outbox, c.NATS, subjects, cfg.OutboxInterval, cfg.OutboxBatch)
	}

	// Without a relay nothing would drain the outbox.
	var outbox port.OutboxRepository
	if c.Relay != nil {
		outbox = c.Outbox
	}

	engine := service.NewEngine(threshold, idgen.SystemClock{}, ids)
	recorder := service.NewRecorder(c.Tx, c.Payments, c.Ledger, outbox, cfg.PersistTimeout)
	c.SvcPayments = service.NewPaymentService(c.Ledger, c.Payments, engine, recorder, opts...)
	return c, nil
}

func (c *Container) connectPostgres(ctx context.Context) error {
	cfg := c.Config
	pool, err := postgres.Connect(ctx, cfg.DSN(), cfg.DBMaxConns, cfg.DBConnectRetries, cfg.DBConnectDelay)
	if err != nil {
		return err
	}
	breaker := circuitbreaker.NewBreaker(cfg.BreakerThreshold, cfg.BreakerTimeout, cfg.BreakerHalfOpen,
		circuitbreaker.OnStateChange(func(from, to circuitbreaker.State) {
			slog.Warn("payment store breaker state changed", slog.String("from", from.String()), slog.String("to", to.String()))
		}),
	)
	gw := postgres.NewGateway(pool, breaker, cfg.DBSchema)
	if err := gw.Migrate(ctx); err != nil {
		pool.Close()
		return err
	}

	c.Pool = pool
	c.Tx = gw
	c.Ready = gw
	c.Ledger = postgres.NewLedger(gw)
	c.Payments = postgres.NewPaymentRepository(gw)
	c.Outbox = postgres.NewOutboxRepository(gw)
	return nil
}

// Close releases every backend connection. It is safe on a partly built
// container.
func (c *Container) Close() {
	if c.NATS != nil {
		c.NATS.Close()
	}
	if c.Redis != nil {
		c.Redis.Close() //nolint:errcheck
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
