package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations is the ordered schema history. The entry at index i moves the
// database from user_version i to i+1; past entries must never be edited.
var migrations = []string{
	`
	CREATE TABLE tickets (
		id              TEXT PRIMARY KEY,
		plate           TEXT NOT NULL,
		vehicle_type_id TEXT NOT NULL,
		barcode         TEXT NOT NULL,
		entry_time      TEXT NOT NULL,
		exit_time       TEXT,
		base_price      INTEGER NOT NULL CHECK (base_price > 0),
		total_minutes   INTEGER,
		total_amount    INTEGER,
		status          TEXT NOT NULL CHECK (status IN ('active', 'completed', 'cancelled')),
		is_paid         INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	);

	CREATE INDEX idx_tickets_status_plate ON tickets (status, plate);
	CREATE INDEX idx_tickets_barcode ON tickets (barcode);

	CREATE TABLE daily_aggregates (
		day               TEXT PRIMARY KEY,
		ticket_count      INTEGER NOT NULL DEFAULT 0,
		total_amount      INTEGER NOT NULL DEFAULT 0,
		car_count         INTEGER NOT NULL DEFAULT 0,
		car_amount        INTEGER NOT NULL DEFAULT 0,
		motorcycle_count  INTEGER NOT NULL DEFAULT 0,
		motorcycle_amount INTEGER NOT NULL DEFAULT 0,
		truck_count       INTEGER NOT NULL DEFAULT 0,
		truck_amount      INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE vehicle_types (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		hourly_rate INTEGER NOT NULL CHECK (hourly_rate > 0),
		builtin     INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	`,
	`
	INSERT INTO vehicle_types (id, name, hourly_rate, builtin, created_at, updated_at) VALUES
		('car',        'Carro',  3000, 1, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'), strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
		('motorcycle', 'Moto',   2000, 1, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'), strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
		('truck',      'Camion', 4000, 1, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'), strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	ON CONFLICT (id) DO NOTHING;
	`,
}

// Migrate brings the schema up to the latest version. Each pending step runs
// in its own transaction and bumps the user_version pragma on success, so a
// failed step leaves the database at the last completed version.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	current, err := schemaVersion(ctx, pool.DB())
	if err != nil {
		return err
	}

	if current > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this binary supports (%d)", current, len(migrations))
	}

	for version := current; version < len(migrations); version++ {
		step := migrations[version]
		err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, step); err != nil {
				return fmt.Errorf("migration %d failed: %w", version+1, err)
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version+1)); err != nil {
				return fmt.Errorf("failed to record schema version %d: %w", version+1, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
