package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema on startup. Statements are idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
	email VARCHAR(255) PRIMARY KEY,
	name VARCHAR(255) NOT NULL DEFAULT '',
	role VARCHAR(16) NOT NULL DEFAULT 'user',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
		`CREATE TABLE IF NOT EXISTS tickets (
	id BIGSERIAL PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	transport_type VARCHAR(16) NOT NULL,
	origin VARCHAR(255) NOT NULL,
	destination VARCHAR(255) NOT NULL,
	price_cents BIGINT NOT NULL,
	total_quantity INTEGER NOT NULL,
	available_quantity INTEGER NOT NULL,
	departure_time TIMESTAMPTZ NOT NULL,
	perks TEXT[] NOT NULL DEFAULT '{}',
	image_url TEXT NOT NULL DEFAULT '',
	vendor_email VARCHAR(255) NOT NULL,
	verification_status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
	ad_active BOOLEAN NOT NULL DEFAULT FALSE,
	ad_priority INTEGER NOT NULL DEFAULT 0,
	ad_advertised_at TIMESTAMPTZ,
	ad_expires_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT quantity_bounds CHECK (available_quantity >= 0 AND available_quantity <= total_quantity)
);`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_route ON tickets (origin, destination);`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_vendor ON tickets (vendor_email);`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_ad ON tickets (ad_active) WHERE ad_active;`,
		`CREATE TABLE IF NOT EXISTS bookings (
	id BIGSERIAL PRIMARY KEY,
	reference VARCHAR(64) NOT NULL UNIQUE,
	ticket_id BIGINT NOT NULL,
	ticket_title VARCHAR(255) NOT NULL,
	transport_type VARCHAR(16) NOT NULL,
	origin VARCHAR(255) NOT NULL,
	destination VARCHAR(255) NOT NULL,
	departure_time TIMESTAMPTZ NOT NULL,
	unit_price_cents BIGINT NOT NULL,
	quantity INTEGER NOT NULL,
	total_cents BIGINT NOT NULL,
	user_email VARCHAR(255) NOT NULL,
	user_name VARCHAR(255) NOT NULL DEFAULT '',
	vendor_email VARCHAR(255) NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings (user_email);`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_vendor ON bookings (vendor_email);`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_ticket ON bookings (ticket_id);`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}
