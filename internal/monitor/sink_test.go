package monitor_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/pointwatch-core/internal/detector"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/database"
	"github.com/nerrad567/pointwatch-core/internal/monitor"
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
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func record(room, device, point string, changeTime time.Time) detector.ChangeRecord {
	return detector.ChangeRecord{
		ID:               uuid.New().String(),
		RoomID:           room,
		DeviceType:       "air_cooler",
		DeviceName:       device,
		PointName:        point,
		PointDescription: "Target temperature",
		ChangeTime:       changeTime,
		PreviousValue:    "18.4",
		CurrentValue:     "19",
		ChangeKind:       "analog",
		ChangeDetail:     "18.4 → 19 (Δ +0.6)",
		ChangeMagnitude:  0.6,
		DetectedAt:       time.Now().UTC(),
	}
}

func TestSaveBatch_InsertsAndCounts(t *testing.T) {
	sink := monitor.NewSQLiteSink(openTestDB(t))
	changeTime := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)

	inserted, err := sink.SaveBatch(context.Background(), "room-101", []detector.ChangeRecord{
		record("room-101", "cooler-01", "temperature_setpoint", changeTime),
		record("room-101", "cooler-01", "power_state", changeTime),
	})
	if err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}
	if inserted != 2 {
		t.Errorf("inserted = %d, want 2", inserted)
	}

	count, err := sink.CountForRoom(context.Background(), "room-101",
		changeTime.Add(-time.Hour), changeTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("CountForRoom() error = %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestSaveBatch_DuplicateNaturalKeySkipped(t *testing.T) {
	sink := monitor.NewSQLiteSink(openTestDB(t))
	changeTime := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)

	first := record("room-101", "cooler-01", "temperature_setpoint", changeTime)
	if _, err := sink.SaveBatch(context.Background(), "room-101", []detector.ChangeRecord{first}); err != nil {
		t.Fatalf("first SaveBatch() error = %v", err)
	}

	// Same natural key, fresh surrogate ID: an overlapping rescan.
	rescan := record("room-101", "cooler-01", "temperature_setpoint", changeTime)
	inserted, err := sink.SaveBatch(context.Background(), "room-101", []detector.ChangeRecord{rescan})
	if err != nil {
		t.Fatalf("rescan SaveBatch() error = %v", err)
	}
	if inserted != 0 {
		t.Errorf("rescan inserted = %d, want 0", inserted)
	}
}

func TestSaveBatch_EmptyBatch(t *testing.T) {
	sink := monitor.NewSQLiteSink(openTestDB(t))
	inserted, err := sink.SaveBatch(context.Background(), "room-101", nil)
	if err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}
	if inserted != 0 {
		t.Errorf("inserted = %d, want 0", inserted)
	}
}

func TestSaveBatch_DistinctTimesBothStored(t *testing.T) {
	sink := monitor.NewSQLiteSink(openTestDB(t))
	base := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)

	inserted, err := sink.SaveBatch(context.Background(), "room-101", []detector.ChangeRecord{
		record("room-101", "cooler-01", "temperature_setpoint", base),
		record("room-101", "cooler-01", "temperature_setpoint", base.Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}
	if inserted != 2 {
		t.Errorf("inserted = %d, want 2", inserted)
	}
}
