package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id SERIAL PRIMARY KEY,
		organizer_id INT NOT NULL,
		name TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		starts_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS ticket_types (
		id SERIAL PRIMARY KEY,
		event_id INT NOT NULL REFERENCES events(id),
		name TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_quantity INT NOT NULL,
		available_quantity INT NOT NULL CHECK (available_quantity >= 0),
		sold_quantity INT NOT NULL DEFAULT 0 CHECK (sold_quantity >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ,
		CHECK (available_quantity + sold_quantity = total_quantity)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id SERIAL PRIMARY KEY,
		user_id INT NOT NULL,
		event_id INT NOT NULL REFERENCES events(id),
		total_price DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id SERIAL PRIMARY KEY,
		serial UUID NOT NULL UNIQUE,
		order_id INT NOT NULL REFERENCES orders(id),
		ticket_type_id INT NOT NULL REFERENCES ticket_types(id),
		seat_number TEXT NOT NULL DEFAULT '',
		qr_payload TEXT,
		state TEXT NOT NULL DEFAULT 'reserved',
		validated_at TIMESTAMPTZ,
		validated_by INT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS payment_transactions (
		id SERIAL PRIMARY KEY,
		order_id INT NOT NULL REFERENCES orders(id),
		external_ref TEXT NOT NULL UNIQUE,
		amount DOUBLE PRECISION NOT NULL,
		currency CHAR(3) NOT NULL DEFAULT 'USD',
		status TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_order_id ON tickets(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id)`,
}

// Migrate applies the schema at startup. Statements are idempotent so reruns
// are safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
