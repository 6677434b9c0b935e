package monitor

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/pointwatch-core/internal/detector"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/logging"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/mqtt"
)

// changeEventPayload is the wire shape of one published change event.
type changeEventPayload struct {
	RoomID     string             `json:"room_id"`
	Count      int                `json:"count"`
	Changes    []changeEventEntry `json:"changes"`
	DetectedAt time.Time          `json:"detected_at"`
}

type changeEventEntry struct {
	DeviceType    string    `json:"device_type"`
	DeviceName    string    `json:"device_name"`
	PointName     string    `json:"point_name"`
	ChangeTime    time.Time `json:"change_time"`
	PreviousValue string    `json:"previous_value"`
	CurrentValue  string    `json:"current_value"`
	ChangeKind    string    `json:"change_kind"`
	ChangeDetail  string    `json:"change_detail"`
}

// batchResultPayload is the wire shape of a published batch summary.
type batchResultPayload struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	RoomsScanned int       `json:"rooms_scanned"`
	TotalChanges int       `json:"total_changes"`
	FailedRooms  []string  `json:"failed_rooms,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
}

// EventNotifier fans monitoring outcomes out to MQTT and InfluxDB.
//
// Both sinks are optional; publish and write failures are logged and
// never propagate, since the SQLite record is already committed by the
// time a notification fires.
type EventNotifier struct {
	mqtt   *mqtt.Client
	influx *influxdb.Client
	topics mqtt.Topics
	logger *logging.Logger
}

// NewEventNotifier creates a notifier. Either client may be nil.
func NewEventNotifier(mqttClient *mqtt.Client, influxClient *influxdb.Client, logger *logging.Logger) *EventNotifier {
	return &EventNotifier{mqtt: mqttClient, influx: influxClient, logger: logger}
}

// ChangesDetected publishes one room's new change records and mirrors
// per-type counts and analog magnitudes.
func (n *EventNotifier) ChangesDetected(roomID string, records []detector.ChangeRecord) {
	if n.mqtt != nil {
		payload := changeEventPayload{
			RoomID:     roomID,
			Count:      len(records),
			Changes:    make([]changeEventEntry, 0, len(records)),
			DetectedAt: time.Now().UTC(),
		}
		for i := range records {
			r := &records[i]
			payload.Changes = append(payload.Changes, changeEventEntry{
				DeviceType:    r.DeviceType,
				DeviceName:    r.DeviceName,
				PointName:     r.PointName,
				ChangeTime:    r.ChangeTime,
				PreviousValue: r.PreviousValue,
				CurrentValue:  r.CurrentValue,
				ChangeKind:    r.ChangeKind,
				ChangeDetail:  r.ChangeDetail,
			})
		}

		data, err := json.Marshal(payload)
		if err == nil {
			err = n.mqtt.PublishEvent(n.topics.ChangeEvent(roomID), data)
		}
		if err != nil {
			n.logger.Warn("change event publish failed", "room_id", roomID, "error", err)
		}
	}

	if n.influx != nil {
		countsByType := make(map[string]int)
		for i := range records {
			r := &records[i]
			countsByType[r.DeviceType]++
			if r.ChangeKind == "analog" {
				n.influx.WriteChangeMagnitude(roomID, r.DeviceName, r.PointName, r.ChangeMagnitude, r.ChangeTime)
			}
		}
		for deviceType, count := range countsByType {
			n.influx.WriteChangeCount(roomID, deviceType, count)
		}
	}
}

// BatchCompleted publishes the pass summary and mirrors it.
func (n *EventNotifier) BatchCompleted(result *BatchResult) {
	if n.mqtt != nil {
		data, err := json.Marshal(batchResultPayload{
			Start:        result.Start,
			End:          result.End,
			RoomsScanned: result.RoomsScanned,
			TotalChanges: result.TotalChanges,
			FailedRooms:  result.FailedRooms(),
			DurationMS:   result.Duration.Milliseconds(),
		})
		if err == nil {
			err = n.mqtt.PublishEvent(n.topics.BatchResult(), data)
		}
		if err != nil {
			n.logger.Warn("batch result publish failed", "error", err)
		}
	}

	if n.influx != nil {
		n.influx.WriteBatchSummary(result.TotalChanges, len(result.RoomErrors), result.Duration)
	}
}
