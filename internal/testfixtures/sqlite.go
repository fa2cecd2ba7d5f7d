package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/campus-reservations/internal/persistence"
	"github.com/example/campus-reservations/internal/persistence/sqlite"
)

// SQLiteHarness exposes the full repository set backed by a temporary
// SQLite database for integration-style tests.
type SQLiteHarness struct {
	Rooms       persistence.RoomRepository
	Commitments persistence.CommitmentRepository
	Requests    persistence.RequestRepository
	Audit       persistence.AuditRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a migrated temporary database and registers its
// cleanup with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "reservations.db")
	pool, err := sqlite.NewConnectionPool(path)
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}
	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Rooms:       sqlite.NewRoomRepository(pool),
		Commitments: sqlite.NewCommitmentRepository(pool),
		Requests:    sqlite.NewRequestRepository(pool),
		Audit:       sqlite.NewAuditRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
