package monitor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/pointwatch-core/internal/detector"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/database"
)

// SQLiteSink persists change records into the change_records table.
//
// Each SaveBatch call runs in a single transaction: a room's batch is
// stored whole or not at all. Records whose natural key already exists
// are skipped by the unique index, making overlapping scan windows
// idempotent.
type SQLiteSink struct {
	db *database.DB
}

// NewSQLiteSink creates a sink over an open database.
func NewSQLiteSink(db *database.DB) *SQLiteSink {
	return &SQLiteSink{db: db}
}

// SaveBatch stores one room's change records.
//
// Returns:
//   - int: Records actually inserted (duplicates excluded)
//   - error: nil on success; the transaction is rolled back on failure
func (s *SQLiteSink) SaveBatch(ctx context.Context, roomID string, records []detector.ChangeRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO change_records (
			id, room_id, device_type, device_name, point_name,
			point_description, change_time, previous_value, current_value,
			change_kind, change_detail, change_magnitude, detected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(room_id, device_name, point_name, change_time) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range records {
		r := &records[i]

		var magnitude interface{}
		if r.ChangeKind == "analog" {
			magnitude = r.ChangeMagnitude
		}

		res, err := stmt.ExecContext(ctx,
			r.ID, r.RoomID, r.DeviceType, r.DeviceName, r.PointName,
			r.PointDescription, r.ChangeTime.UTC(), r.PreviousValue, r.CurrentValue,
			r.ChangeKind, r.ChangeDetail, magnitude, r.DetectedAt.UTC(),
		)
		if err != nil {
			return 0, fmt.Errorf("insert record %s: %w", r.ID, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// CountForRoom returns how many change records exist for a room within
// a window. Used by tests and operational queries.
func (s *SQLiteSink) CountForRoom(ctx context.Context, roomID string, start, end time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM change_records
		WHERE room_id = ? AND change_time >= ? AND change_time < ?
	`, roomID, start.UTC(), end.UTC()).Scan(&count)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}
