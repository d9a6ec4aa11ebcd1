package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a bounded pool and waits for the database to answer,
// retrying with a constant delay.
func Connect(ctx context.Context, dsn string, maxConns int32, retries uint, delay time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	_, err = backoff.Retry[struct{}](ctx, func() (struct{}, error) {
		return struct{}{}, pool.Ping(ctx)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(delay)),
		backoff.WithMaxTries(retries),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("payment DB not ready", slog.String("error", err.Error()), slog.Duration("retry_in", next))
		}),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("payment DB unavailable: %w", err)
	}
	return pool, nil
}
