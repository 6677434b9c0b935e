package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/pointwatch-core/internal/detector"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/config"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/logging"
	"github.com/nerrad567/pointwatch-core/internal/snapshot"
)

// Sink persists one room's change records as a unit.
//
// SaveBatch must be all-or-nothing per call: either every new record in
// the batch is stored or none are. Records already present under their
// natural key are silently skipped; the returned count covers only
// records actually inserted.
type Sink interface {
	SaveBatch(ctx context.Context, roomID string, records []detector.ChangeRecord) (int, error)
}

// Notifier receives monitoring outcomes for downstream fan-out
// (MQTT events, metrics mirroring). Implementations must not block.
type Notifier interface {
	// ChangesDetected is called once per room that persisted at least
	// one new record.
	ChangesDetected(roomID string, records []detector.ChangeRecord)

	// BatchCompleted is called once per pass with the final result.
	BatchCompleted(result *BatchResult)
}

// Orchestrator coordinates one batch monitoring pass: discover devices
// per room, fetch snapshot history, run change detection, and persist
// the results.
//
// Room failures are isolated; a room whose snapshot store query or
// persistence fails is recorded in the result and the remaining rooms
// proceed.
type Orchestrator struct {
	source   snapshot.Source
	detector *detector.Detector
	sink     Sink
	cfg      config.MonitorConfig
	logger   *logging.Logger

	mu       sync.RWMutex
	notifier Notifier
}

// New creates an Orchestrator.
//
// Parameters:
//   - source: Snapshot history source
//   - det: Configured change detector
//   - sink: Change record persistence
//   - cfg: Monitoring settings (rooms, window cap, concurrency)
//   - logger: Structured logger
func New(source snapshot.Source, det *detector.Detector, sink Sink, cfg config.MonitorConfig, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		source:   source,
		detector: det,
		sink:     sink,
		cfg:      cfg,
		logger:   logger,
	}
}

// SetNotifier attaches a downstream notifier. Optional; pass nil to
// detach.
func (o *Orchestrator) SetNotifier(n Notifier) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notifier = n
}

// Run executes one batch pass over the given rooms and window.
//
// Rerunning Run over an overlapping window is safe: persistence
// deduplicates on the natural change key, so already-recorded changes
// are not stored or counted again.
//
// Parameters:
//   - ctx: Context for cancellation
//   - rooms: Room IDs to scan; nil falls back to the configured set
//   - start, end: Window to scan, end exclusive of future data
//
// Returns:
//   - *BatchResult: Always non-nil on nil error
//   - error: ErrInvalidRange, ErrNoRooms, or context cancellation
func (o *Orchestrator) Run(ctx context.Context, rooms []string, start, end time.Time) (*BatchResult, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end %s not after start %s", ErrInvalidRange, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if max := o.cfg.MaxWindow(); max > 0 && end.Sub(start) > max {
		return nil, fmt.Errorf("%w: span %s exceeds maximum %s", ErrInvalidRange, end.Sub(start), max)
	}

	if rooms == nil {
		rooms = o.cfg.Rooms
	}
	if len(rooms) == 0 {
		return nil, ErrNoRooms
	}

	began := time.Now()
	result := &BatchResult{
		Start:      start,
		End:        end,
		RoomErrors: make(map[string]error),
	}
	var mu sync.Mutex

	workers := o.cfg.RoomWorkers
	if workers < 1 {
		workers = 1
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for _, roomID := range rooms {
		roomID := roomID
		group.Go(func() error {
			stored, err := o.scanRoom(groupCtx, roomID, start, end)

			mu.Lock()
			result.RoomsScanned++
			if err != nil {
				result.RoomErrors[roomID] = err
				o.logger.Error("room scan failed", "room_id", roomID, "error", err)
			} else {
				result.TotalChanges += stored
			}
			mu.Unlock()

			// Room failures stay in the result; only cancellation
			// aborts the group.
			return groupCtx.Err()
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(began)
	o.logger.Info("batch pass complete",
		"rooms", result.RoomsScanned,
		"changes", result.TotalChanges,
		"failed_rooms", len(result.RoomErrors),
		"duration", result.Duration.String(),
	)

	if n := o.currentNotifier(); n != nil {
		n.BatchCompleted(result)
	}

	return result, nil
}

// scanRoom processes one room: discovery, per-device detection,
// in-batch deduplication, and a single all-or-nothing persist.
func (o *Orchestrator) scanRoom(ctx context.Context, roomID string, start, end time.Time) (int, error) {
	devices, err := o.source.ListDevices(ctx, roomID, start, end)
	if err != nil {
		return 0, fmt.Errorf("list devices: %w", err)
	}
	if len(devices) == 0 {
		o.logger.Debug("no devices in window", "room_id", roomID)
		return 0, nil
	}

	seen := make(map[string]bool)
	var records []detector.ChangeRecord

	for _, device := range devices {
		snapshots, err := o.source.FetchSnapshots(ctx, device, start, end)
		if err != nil {
			return 0, fmt.Errorf("fetch snapshots for %s: %w", device.DeviceID, err)
		}
		if len(snapshots) < 2 {
			o.logger.Debug("insufficient snapshots", "room_id", roomID, "device_id", device.DeviceID, "count", len(snapshots))
			continue
		}

		recs, issues, err := o.detector.DetectSeries(snapshots)
		if err != nil {
			return 0, fmt.Errorf("detect %s: %w", device.DeviceID, err)
		}
		for _, issue := range issues {
			o.logger.Warn("data quality issue", "room_id", roomID, "device_id", device.DeviceID, "issue", issue.Error())
		}

		for _, rec := range recs {
			key := naturalKey(&rec)
			if seen[key] {
				continue
			}
			seen[key] = true
			records = append(records, rec)
		}
	}

	if len(records) == 0 {
		return 0, nil
	}

	stored, err := o.sink.SaveBatch(ctx, roomID, records)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSinkFailed, err)
	}

	if stored > 0 {
		if n := o.currentNotifier(); n != nil {
			n.ChangesDetected(roomID, records)
		}
	}
	return stored, nil
}

func (o *Orchestrator) currentNotifier() Notifier {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.notifier
}

// naturalKey builds the in-batch dedup key matching the storage
// uniqueness constraint.
func naturalKey(r *detector.ChangeRecord) string {
	return fmt.Sprintf("%s|%s|%s|%d", r.RoomID, r.DeviceName, r.PointName, r.ChangeTime.Unix())
}
