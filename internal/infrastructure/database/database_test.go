package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nerrad567/pointwatch-core/internal/infrastructure/database"
	_ "github.com/nerrad567/pointwatch-core/migrations"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestProbe(t *testing.T) {
	db := openTestDB(t)
	if err := db.Probe(context.Background()); err != nil {
		t.Errorf("Probe() error = %v", err)
	}
}

func TestProbe_CancelledContext(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := db.Probe(ctx); err == nil {
		t.Error("Probe() with cancelled context expected error, got nil")
	}
}

func TestMigrate_AppliesSchema(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Both change tables must exist after migration.
	for _, table := range []string{"change_records", "change_stats"} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing after Migrate(): %v", table, err)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	pending, err := db.PendingMigrations(ctx)
	if err != nil {
		t.Fatalf("PendingMigrations() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("PendingMigrations() = %v, want none after Migrate()", pending)
	}
}

func TestPendingMigrations_BeforeMigrate(t *testing.T) {
	db := openTestDB(t)

	pending, err := db.PendingMigrations(context.Background())
	if err != nil {
		t.Fatalf("PendingMigrations() error = %v", err)
	}
	if len(pending) == 0 {
		t.Error("PendingMigrations() on fresh database expected pending versions")
	}
}
