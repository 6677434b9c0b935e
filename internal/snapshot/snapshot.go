package snapshot

import (
	"context"
	"errors"
	"time"
)

// Snapshot is one device's point values captured at a single instant.
//
// Values are kept as raw strings from the store; interpretation
// (numeric parsing, enum mapping) belongs to detection, keyed by
// point alias.
type Snapshot struct {
	RoomID     string
	DeviceID   string
	DeviceType string
	DeviceName string
	CapturedAt time.Time

	// Values maps point alias to the raw stored value.
	Values map[string]string
}

// Value returns the raw value for a point alias.
//
// Returns:
//   - string: The raw value, or "" if absent
//   - bool: true if the alias was present in this snapshot
func (s *Snapshot) Value(alias string) (string, bool) {
	v, ok := s.Values[alias]
	return v, ok
}

// DeviceRef identifies one device discovered in a room.
type DeviceRef struct {
	RoomID     string
	DeviceID   string
	DeviceType string
	DeviceName string
}

// Sentinel errors for snapshot retrieval.
var (
	// ErrUnavailable indicates the snapshot store could not be reached.
	ErrUnavailable = errors.New("snapshot: store unavailable")

	// ErrTimeout indicates a snapshot query exceeded its deadline.
	ErrTimeout = errors.New("snapshot: query timeout")
)

// Source retrieves historical device snapshots for change detection.
//
// Implementations must return snapshots in ascending CapturedAt order
// and classify transport failures into the package sentinels so the
// orchestrator can report them uniformly.
type Source interface {
	// ListDevices discovers the devices that reported setpoint data
	// for a room within the window.
	ListDevices(ctx context.Context, roomID string, start, end time.Time) ([]DeviceRef, error)

	// FetchSnapshots returns one device's snapshots within the
	// window, oldest first.
	FetchSnapshots(ctx context.Context, device DeviceRef, start, end time.Time) ([]Snapshot, error)
}
