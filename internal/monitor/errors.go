package monitor

import "errors"

// Sentinel errors for batch monitoring.
var (
	// ErrInvalidRange indicates a batch window whose end is not after
	// its start, or whose span exceeds the configured maximum.
	ErrInvalidRange = errors.New("monitor: invalid time range")

	// ErrNoRooms indicates a batch was requested with no rooms.
	ErrNoRooms = errors.New("monitor: no rooms to scan")

	// ErrSinkFailed indicates a room's change records could not be
	// persisted. The room's batch is rolled back as a unit.
	ErrSinkFailed = errors.New("monitor: sink failed")
)
