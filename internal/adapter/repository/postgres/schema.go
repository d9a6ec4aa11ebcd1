package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Migrate creates the schema and tables if they do not exist.
func (g *Gateway) Migrate(ctx context.Context) error {
	payments := g.Table("payments")
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + payments + ` (
			payment_id BIGINT PRIMARY KEY,
			order_id   TEXT NOT NULL,
			amount     NUMERIC NOT NULL CHECK (amount > 0),
			method     TEXT NOT NULL,
			status     TEXT NOT NULL CHECK (status IN ('SUCCESS', 'FAILED')),
			reference  UUID NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + g.Table("idempotency_keys") + ` (
			idempotency_key   TEXT PRIMARY KEY,
			response_snapshot TEXT NOT NULL,
			request_hash      TEXT,
			payment_id        BIGINT REFERENCES ` + payments + ` (payment_id),
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + g.Table("outbox_events") + ` (
			seq          BIGSERIAL,
			id           UUID PRIMARY KEY,
			topic        TEXT NOT NULL,
			payload      JSONB NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			processed_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS outbox_events_pending_idx ON ` + g.Table("outbox_events") + ` (seq) WHERE processed_at IS NULL`,
	}
	if g.schema != "" {
		stmts = append([]string{"CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{g.schema}.Sanitize()}, stmts...)
	}
	for _, stmt := range stmts {
		if _, err := g.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
