package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nerrad567/pointwatch-core/internal/infrastructure/tsdb"
)

// metricName is the series name under which setpoint values are stored.
const metricName = "setpoint"

// VictoriaSource reads snapshots from VictoriaMetrics via the
// Prometheus HTTP API.
//
// Series scheme: setpoint{room_id, device_id, device_type, device_name,
// point}. One series per monitored point; FetchSnapshots merges the
// per-point series of a device into per-timestamp snapshots.
type VictoriaSource struct {
	client *tsdb.Client
	step   time.Duration
}

// NewVictoriaSource creates a Source backed by a tsdb client.
//
// Parameters:
//   - client: Configured VictoriaMetrics query client
//   - step: Range-query resolution step
func NewVictoriaSource(client *tsdb.Client, step time.Duration) *VictoriaSource {
	return &VictoriaSource{client: client, step: step}
}

// ListDevices discovers devices with setpoint series in the window.
//
// Uses the series API rather than a range query: label sets are enough
// for discovery and far cheaper than sample data.
func (v *VictoriaSource) ListDevices(ctx context.Context, roomID string, start, end time.Time) ([]DeviceRef, error) {
	match := fmt.Sprintf(`%s{room_id=%q}`, metricName, roomID)

	labelSets, err := v.client.SeriesLabels(ctx, match, start, end)
	if err != nil {
		return nil, classify(err)
	}

	// One device appears once per monitored point; collapse on device_id.
	seen := make(map[string]bool)
	var devices []DeviceRef
	for _, labels := range labelSets {
		id := labels["device_id"]
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		devices = append(devices, DeviceRef{
			RoomID:     roomID,
			DeviceID:   id,
			DeviceType: labels["device_type"],
			DeviceName: labels["device_name"],
		})
	}

	// Discovery order from the store is arbitrary; stable output makes
	// batch logs and tests deterministic.
	sort.Slice(devices, func(i, j int) bool { return devices[i].DeviceID < devices[j].DeviceID })

	return devices, nil
}

// FetchSnapshots returns a device's snapshots in the window, oldest first.
//
// Each monitored point is a separate series; samples sharing a
// timestamp are merged into one Snapshot keyed by point alias.
func (v *VictoriaSource) FetchSnapshots(ctx context.Context, device DeviceRef, start, end time.Time) ([]Snapshot, error) {
	query := fmt.Sprintf(`%s{room_id=%q, device_id=%q}`, metricName, device.RoomID, device.DeviceID)

	series, err := v.client.QueryRange(ctx, query, start, end, v.step)
	if err != nil {
		return nil, classify(err)
	}

	// Merge per-point series into per-timestamp snapshots.
	byTime := make(map[int64]*Snapshot)
	for _, s := range series {
		alias := s.Labels["point"]
		if alias == "" {
			continue
		}
		for _, sample := range s.Samples {
			ts := sample.Timestamp.Unix()
			snap, ok := byTime[ts]
			if !ok {
				snap = &Snapshot{
					RoomID:     device.RoomID,
					DeviceID:   device.DeviceID,
					DeviceType: device.DeviceType,
					DeviceName: device.DeviceName,
					CapturedAt: sample.Timestamp,
					Values:     make(map[string]string),
				}
				byTime[ts] = snap
			}
			snap.Values[alias] = sample.Value
		}
	}

	snapshots := make([]Snapshot, 0, len(byTime))
	for _, snap := range byTime {
		snapshots = append(snapshots, *snap)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CapturedAt.Before(snapshots[j].CapturedAt)
	})

	return snapshots, nil
}

// classify maps tsdb transport errors onto the package sentinels.
func classify(err error) error {
	switch {
	case errors.Is(err, tsdb.ErrTimeout):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, tsdb.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return err
	}
}
