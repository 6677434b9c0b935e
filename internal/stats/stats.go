package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/pointwatch-core/internal/infrastructure/database"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/logging"
)

// ErrAggregationFailed wraps storage errors from a stats computation.
var ErrAggregationFailed = errors.New("stats: aggregation failed")

// DayStat is one aggregated row: changes per room and device type for
// one calendar day.
type DayStat struct {
	Day         string
	RoomID      string
	DeviceType  string
	ChangeCount int
}

// Aggregator computes daily change statistics from the change record
// store.
//
// Stats are derived data: recomputing a day replaces its rows, so the
// nightly job can safely rerun after a missed schedule or a late
// backfill scan.
type Aggregator struct {
	db     *database.DB
	logger *logging.Logger
}

// New creates an Aggregator.
func New(db *database.DB, logger *logging.Logger) *Aggregator {
	return &Aggregator{db: db, logger: logger}
}

// ComputeDay aggregates change counts for one UTC calendar day.
//
// Parameters:
//   - ctx: Context for cancellation
//   - day: Any instant within the target day; truncated to UTC midnight
//
// Returns:
//   - int: Number of (room, device type) rows written
//   - error: ErrAggregationFailed on storage errors
func (a *Aggregator) ComputeDay(ctx context.Context, day time.Time) (int, error) {
	dayStart := day.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)
	dayKey := dayStart.Format("2006-01-02")

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %w", ErrAggregationFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	// Replace the day wholesale so reruns converge on current data.
	if _, err := tx.ExecContext(ctx, `DELETE FROM change_stats WHERE day = ?`, dayKey); err != nil {
		return 0, fmt.Errorf("%w: clear day: %w", ErrAggregationFailed, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO change_stats (day, room_id, device_type, change_count, computed_at)
		SELECT ?, room_id, device_type, COUNT(*), ?
		FROM change_records
		WHERE change_time >= ? AND change_time < ?
		GROUP BY room_id, device_type
	`, dayKey, time.Now().UTC(), dayStart, dayEnd)
	if err != nil {
		return 0, fmt.Errorf("%w: insert: %w", ErrAggregationFailed, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %w", ErrAggregationFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %w", ErrAggregationFailed, err)
	}

	a.logger.Info("daily stats computed", "day", dayKey, "rows", rows)
	return int(rows), nil
}

// DayStats returns the aggregated rows for one day, ordered by room
// and device type.
func (a *Aggregator) DayStats(ctx context.Context, day time.Time) ([]DayStat, error) {
	dayKey := day.UTC().Truncate(24 * time.Hour).Format("2006-01-02")

	rows, err := a.db.QueryContext(ctx, `
		SELECT day, room_id, device_type, change_count
		FROM change_stats
		WHERE day = ?
		ORDER BY room_id, device_type
	`, dayKey)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrAggregationFailed, err)
	}
	defer rows.Close()

	var stats []DayStat
	for rows.Next() {
		var s DayStat
		if err := rows.Scan(&s.Day, &s.RoomID, &s.DeviceType, &s.ChangeCount); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrAggregationFailed, err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %w", ErrAggregationFailed, err)
	}
	return stats, nil
}
