package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// Open connects to Postgres and tunes the pool.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates tables, the exclusion constraint and the resource_usage
// view if they do not exist. The exclusion constraint on
// (unit_id, service_period) is the authoritative double-booking guard; every
// availability check elsewhere in the codebase is advisory.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,

		`CREATE TABLE IF NOT EXISTS products (
			id            BIGSERIAL PRIMARY KEY,
			slug          TEXT UNIQUE NOT NULL,
			name          TEXT NOT NULL,
			mode          TEXT NOT NULL CHECK (mode IN ('day_rental','slot_based')),
			price_daily   NUMERIC(10,2) NOT NULL DEFAULT 0,
			price_weekend NUMERIC(10,2) NOT NULL DEFAULT 0,
			price_sunday  NUMERIC(10,2) NOT NULL DEFAULT 0,
			setup_min     INT NOT NULL DEFAULT 0,
			teardown_min  INT NOT NULL DEFAULT 0,
			travel_min    INT NOT NULL DEFAULT 0,
			cleaning_min  INT NOT NULL DEFAULT 0,
			open_min      INT NOT NULL DEFAULT 480,
			close_min     INT NOT NULL DEFAULT 1200,
			active        BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		`CREATE TABLE IF NOT EXISTS product_slots (
			id          BIGSERIAL PRIMARY KEY,
			product_id  BIGINT NOT NULL REFERENCES products(id),
			label       TEXT NOT NULL,
			event_start INT NOT NULL,
			event_end   INT NOT NULL,
			price       NUMERIC(10,2) NOT NULL DEFAULT 0,
			sort_order  INT NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS units (
			id         BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL REFERENCES products(id),
			name       TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'available'
				CHECK (status IN ('available','maintenance','retired'))
		)`,

		`CREATE TABLE IF NOT EXISTS ops_resources (
			id     BIGSERIAL PRIMARY KEY,
			kind   TEXT NOT NULL CHECK (kind IN ('crew','vehicle')),
			name   TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		`CREATE TABLE IF NOT EXISTS resource_schedules (
			resource_id BIGINT NOT NULL REFERENCES ops_resources(id) ON DELETE CASCADE,
			weekday     INT NOT NULL CHECK (weekday BETWEEN 0 AND 6),
			enabled     BOOLEAN NOT NULL DEFAULT TRUE,
			start_min   INT NOT NULL DEFAULT 480,
			end_min     INT NOT NULL DEFAULT 1200,
			PRIMARY KEY (resource_id, weekday)
		)`,

		`CREATE TABLE IF NOT EXISTS customers (
			id         BIGSERIAL PRIMARY KEY,
			email      TEXT UNIQUE NOT NULL,
			name       TEXT NOT NULL DEFAULT '',
			phone      TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS staff (
			id            BIGSERIAL PRIMARY KEY,
			email         TEXT UNIQUE NOT NULL,
			name          TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'ops',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id              BIGSERIAL PRIMARY KEY,
			number          TEXT UNIQUE NOT NULL,
			customer_id     BIGINT NOT NULL REFERENCES customers(id),
			product_id      BIGINT NOT NULL REFERENCES products(id),
			unit_id         BIGINT NOT NULL REFERENCES units(id),
			booking_type    TEXT NOT NULL CHECK (booking_type IN ('daily','weekend','sunday','slot')),
			slot_id         BIGINT REFERENCES product_slots(id),
			status          TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending','confirmed','cancelled','expired')),
			event_date      DATE NOT NULL,
			delivery_date   DATE NOT NULL,
			pickup_date     DATE NOT NULL,
			event_start     TIMESTAMPTZ NOT NULL,
			event_end       TIMESTAMPTZ NOT NULL,
			service_period  TSTZRANGE NOT NULL,
			same_day_pickup BOOLEAN NOT NULL DEFAULT FALSE,
			price_base      NUMERIC(10,2) NOT NULL DEFAULT 0,
			price_discount  NUMERIC(10,2) NOT NULL DEFAULT 0,
			price_total     NUMERIC(10,2) NOT NULL DEFAULT 0,
			price_deposit   NUMERIC(10,2) NOT NULL DEFAULT 0,
			price_balance   NUMERIC(10,2) NOT NULL DEFAULT 0,
			promo_code      TEXT,
			delivery_crew_id BIGINT REFERENCES ops_resources(id),
			pickup_crew_id   BIGINT REFERENCES ops_resources(id),
			vehicle_id       BIGINT REFERENCES ops_resources(id),
			payment_ref     TEXT,
			payment_link    TEXT,
			payment_due_at  TIMESTAMPTZ,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		// The authoritative no-double-booking rule. Cancelled and expired rows
		// stop occupying the unit the moment their status flips.
		`DO $$ BEGIN
			ALTER TABLE bookings ADD CONSTRAINT bookings_unit_service_period_excl
				EXCLUDE USING gist (unit_id WITH =, service_period WITH &&)
				WHERE (status IN ('pending','confirmed'));
		EXCEPTION WHEN duplicate_object OR duplicate_table THEN NULL;
		END $$`,

		`CREATE TABLE IF NOT EXISTS booking_blocks (
			id            BIGSERIAL PRIMARY KEY,
			booking_id    BIGINT NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
			resource_kind TEXT NOT NULL CHECK (resource_kind IN ('unit','crew','vehicle')),
			resource_id   BIGINT NOT NULL,
			block_kind    TEXT NOT NULL CHECK (block_kind IN ('asset','ops')),
			leg           TEXT CHECK (leg IN ('delivery','pickup')),
			period        TSTZRANGE NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_unit ON bookings(unit_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_payment_ref ON bookings(payment_ref)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_due ON bookings(status, payment_due_at)`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_booking ON booking_blocks(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_resource ON booking_blocks(resource_kind, resource_id)`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_period ON booking_blocks USING gist (period)`,

		// Shared view over occupied intervals; the cross-product evening check
		// and the staff calendar both read from here instead of hard-coding
		// per-product rules. Unit rows come straight from bookings so the view
		// stays correct even when block materialization failed; ops rows come
		// from the block projection.
		`CREATE OR REPLACE VIEW resource_usage AS
			SELECT 'unit'::TEXT AS resource_kind,
			       b.unit_id    AS resource_id,
			       'asset'::TEXT AS block_kind,
			       NULL::TEXT   AS leg,
			       b.service_period AS period,
			       b.id         AS booking_id,
			       b.number     AS booking_number,
			       b.product_id,
			       b.status
			FROM bookings b
			WHERE b.status IN ('pending','confirmed')
			UNION ALL
			SELECT bb.resource_kind,
			       bb.resource_id,
			       bb.block_kind,
			       bb.leg,
			       bb.period,
			       b.id,
			       b.number,
			       b.product_id,
			       b.status
			FROM booking_blocks bb
			JOIN bookings b ON b.id = bb.booking_id
			WHERE bb.resource_kind <> 'unit'
			  AND b.status IN ('pending','confirmed')`,
	}

	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
