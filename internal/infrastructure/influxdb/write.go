package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteChangeCount mirrors a per-room change count from one batch pass.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - roomID: Room the count applies to
//   - deviceType: Device classification (air_cooler, fan, humidifier, light)
//   - count: Number of change records detected for this room/type
func (c *Client) WriteChangeCount(roomID, deviceType string, count int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"setpoint_changes",
		map[string]string{
			"room_id":     roomID,
			"device_type": deviceType,
		},
		map[string]interface{}{
			"count": count,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteChangeMagnitude mirrors the magnitude of one analog setpoint change.
//
// Dashboards use this to chart drift per point over time.
//
// Parameters:
//   - roomID: Room the device belongs to
//   - deviceName: Human-readable device name
//   - pointName: Monitored point name
//   - magnitude: Signed delta (current - previous)
//   - changeTime: When the change was observed
func (c *Client) WriteChangeMagnitude(roomID, deviceName, pointName string, magnitude float64, changeTime time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"setpoint_magnitude",
		map[string]string{
			"room_id":     roomID,
			"device_name": deviceName,
			"point_name":  pointName,
		},
		map[string]interface{}{
			"magnitude": magnitude,
		},
		changeTime,
	)

	c.writeAPI.WritePoint(point)
}

// WriteBatchSummary mirrors the outcome of one orchestrator pass.
//
// Parameters:
//   - totalChanges: Deduplicated records persisted across all rooms
//   - failedRooms: Rooms that errored in this pass
//   - duration: Wall-clock batch duration
func (c *Client) WriteBatchSummary(totalChanges, failedRooms int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"monitor_batch",
		map[string]string{},
		map[string]interface{}{
			"total_changes": totalChanges,
			"failed_rooms":  failedRooms,
			"duration_ms":   duration.Milliseconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
