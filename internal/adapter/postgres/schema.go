package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id           SERIAL PRIMARY KEY,
		number       TEXT UNIQUE NOT NULL,
		full_name    TEXT NOT NULL,
		size         TEXT NOT NULL CHECK (size IN ('S', 'M', 'L')),
		status       TEXT NOT NULL DEFAULT 'received' CHECK (status IN ('received', 'cooking', 'ready')),
		processed_by TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS order_toppings (
		order_id   INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		topping_id TEXT NOT NULL,
		position   INTEGER NOT NULL,
		PRIMARY KEY (order_id, topping_id)
	)`,
	`CREATE TABLE IF NOT EXISTS order_status_log (
		id         SERIAL PRIMARY KEY,
		order_id   INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		status     TEXT NOT NULL,
		changed_by TEXT NOT NULL,
		changed_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_number_counters (
		day  DATE PRIMARY KEY,
		last INTEGER NOT NULL
	)`,
}

// EnsureSchema creates the order tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
