package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/parking-pos/internal/persistence"
	"github.com/example/parking-pos/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool         *sqlite.ConnectionPool
	Tickets      persistence.TicketRepository
	Aggregates   persistence.AggregateRepository
	VehicleTypes persistence.VehicleTypeRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness over a temporary database file
// that is migrated automatically. Callers may optionally invoke Close, but the
// helper also registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	dsn := "file:" + filepath.Join(dir, "parking.db") + "?_foreign_keys=on"

	pool, err := sqlite.Open(dsn)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:         pool,
		Tickets:      sqlite.NewTicketRepository(pool),
		Aggregates:   sqlite.NewAggregateRepository(pool),
		VehicleTypes: sqlite.NewVehicleTypeRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
