package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strogmv/payment-service/internal/pkg/circuitbreaker"
	"github.com/strogmv/payment-service/internal/port"
)

const uniqueViolation = "23505"

// executor is satisfied by both *pgxpool.Pool and pgx.Tx.
type executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

func getExecutor(ctx context.Context, pool *pgxpool.Pool) executor {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// Gateway is the only path from repositories to the pool. Each call borrows
// a connection for its own duration, or runs on the transaction carried by
// ctx. Connection-level failures feed the breaker.
type Gateway struct {
	pool    *pgxpool.Pool
	breaker *circuitbreaker.Breaker
	schema  string
}

// NewGateway wraps pool. breaker may be nil.
func NewGateway(pool *pgxpool.Pool, breaker *circuitbreaker.Breaker, schema string) *Gateway {
	return &Gateway{pool: pool, breaker: breaker, schema: schema}
}

// Table returns the quoted, schema-qualified table name.
func (g *Gateway) Table(name string) string {
	if g.schema == "" {
		return pgx.Identifier{name}.Sanitize()
	}
	return pgx.Identifier{g.schema, name}.Sanitize()
}

func (g *Gateway) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	var tag pgconn.CommandTag
	err := g.breaker.Execute(func() error {
		var err error
		tag, err = getExecutor(ctx, g.pool).Exec(ctx, sql, args...)
		return err
	}, isUnavailable)
	return tag, translate(err)
}

func (g *Gateway) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	var rows pgx.Rows
	err := g.breaker.Execute(func() error {
		var err error
		rows, err = getExecutor(ctx, g.pool).Query(ctx, sql, args...)
		return err
	}, isUnavailable)
	return rows, translate(err)
}

func (g *Gateway) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if !g.breaker.Allow() {
		return errRow{err: port.ErrStoreUnavailable}
	}
	return &guardedRow{row: getExecutor(ctx, g.pool).QueryRow(ctx, sql, args...), breaker: g.breaker}
}

// WithTx runs fn in a transaction. The connection goes back to the pool on
// commit or rollback, whichever ends the transaction.
func (g *Gateway) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	if !g.breaker.Allow() {
		return port.ErrStoreUnavailable
	}
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		if isUnavailable(err) {
			g.breaker.RecordFailure()
		}
		return fmt.Errorf("begin tx: %w", err)
	}
	g.breaker.RecordSuccess()
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("commit tx: %w", port.ErrConflict)
		}
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	return translate(g.breaker.Execute(func() error { return g.pool.Ping(ctx) }, isUnavailable))
}

type guardedRow struct {
	row     pgx.Row
	breaker *circuitbreaker.Breaker
}

func (r *guardedRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if err != nil && isUnavailable(err) {
		r.breaker.RecordFailure()
	} else {
		r.breaker.RecordSuccess()
	}
	return err
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// isUnavailable separates "the store did not answer" from answers such as
// constraint violations or empty results. Caller deadlines and cancellations
// say nothing about the store's health.
func isUnavailable(err error) bool {
	if err == nil || errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	return !errors.As(err, &pgErr)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func translate(err error) error {
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return port.ErrStoreUnavailable
	}
	return err
}

var (
	_ port.TxManager = (*Gateway)(nil)
	_ port.Pinger    = (*Gateway)(nil)
)
