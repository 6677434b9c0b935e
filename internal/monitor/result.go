package monitor

import "time"

// BatchResult summarizes one batch monitoring pass.
type BatchResult struct {
	// Start and End delimit the scanned window.
	Start time.Time
	End   time.Time

	// RoomsScanned counts rooms that completed, successfully or not.
	RoomsScanned int

	// TotalChanges counts records persisted across all rooms after
	// deduplication, both in-batch and against prior scans.
	TotalChanges int

	// RoomErrors maps room ID to the failure that aborted that room.
	// Failures are isolated: other rooms are unaffected.
	RoomErrors map[string]error

	// Duration is the wall-clock time of the pass.
	Duration time.Duration
}

// Success reports whether every room completed without error.
func (r *BatchResult) Success() bool {
	return len(r.RoomErrors) == 0
}

// FailedRooms returns the IDs of rooms that errored, for logging.
func (r *BatchResult) FailedRooms() []string {
	rooms := make([]string, 0, len(r.RoomErrors))
	for room := range r.RoomErrors {
		rooms = append(rooms, room)
	}
	return rooms
}
