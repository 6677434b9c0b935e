package snapshot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nerrad567/pointwatch-core/internal/infrastructure/config"
	"github.com/nerrad567/pointwatch-core/internal/infrastructure/tsdb"
)

func newTestSource(t *testing.T, handler http.HandlerFunc) *VictoriaSource {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := tsdb.New(config.TSDBConfig{URL: server.URL, QueryTimeout: 2, Step: 60})
	return NewVictoriaSource(client, time.Minute)
}

func TestListDevices_CollapsesPerPointSeries(t *testing.T) {
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/series" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"status": "success",
			"data": [
				{"__name__": "setpoint", "room_id": "room-101", "device_id": "cooler-01", "device_type": "air_cooler", "device_name": "North Cooler", "point": "temp_set"},
				{"__name__": "setpoint", "room_id": "room-101", "device_id": "cooler-01", "device_type": "air_cooler", "device_name": "North Cooler", "point": "power"},
				{"__name__": "setpoint", "room_id": "room-101", "device_id": "fan-02", "device_type": "fan", "device_name": "Exhaust Fan", "point": "speed_set"}
			]
		}`))
	})

	devices, err := source.ListDevices(context.Background(), "room-101",
		time.Unix(0, 0), time.Unix(3600, 0))
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}

	if len(devices) != 2 {
		t.Fatalf("device count = %d, want 2", len(devices))
	}
	if devices[0].DeviceID != "cooler-01" || devices[1].DeviceID != "fan-02" {
		t.Errorf("devices = %v, want cooler-01 then fan-02", devices)
	}
	if devices[0].DeviceType != "air_cooler" {
		t.Errorf("device_type = %q, want air_cooler", devices[0].DeviceType)
	}
	if devices[1].DeviceName != "Exhaust Fan" {
		t.Errorf("device_name = %q, want Exhaust Fan", devices[1].DeviceName)
	}
}

func TestFetchSnapshots_MergesPointsByTimestamp(t *testing.T) {
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query_range" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"status": "success",
			"data": {
				"resultType": "matrix",
				"result": [
					{
						"metric": {"point": "temp_set"},
						"values": [[1767225600, "18"], [1767229200, "18.4"]]
					},
					{
						"metric": {"point": "power"},
						"values": [[1767225600, "1"], [1767229200, "1"]]
					}
				]
			}
		}`))
	})

	device := DeviceRef{RoomID: "room-101", DeviceID: "cooler-01", DeviceType: "air_cooler", DeviceName: "North Cooler"}
	snapshots, err := source.FetchSnapshots(context.Background(), device,
		time.Unix(1767225600, 0), time.Unix(1767229200, 0))
	if err != nil {
		t.Fatalf("FetchSnapshots() error = %v", err)
	}

	if len(snapshots) != 2 {
		t.Fatalf("snapshot count = %d, want 2", len(snapshots))
	}
	if !snapshots[0].CapturedAt.Before(snapshots[1].CapturedAt) {
		t.Error("snapshots not in ascending time order")
	}

	first := snapshots[0]
	if v, _ := first.Value("temp_set"); v != "18" {
		t.Errorf("temp_set = %q, want 18", v)
	}
	if v, _ := first.Value("power"); v != "1" {
		t.Errorf("power = %q, want 1", v)
	}
	if first.DeviceName != "North Cooler" {
		t.Errorf("device_name = %q, want North Cooler", first.DeviceName)
	}

	if v, _ := snapshots[1].Value("temp_set"); v != "18.4" {
		t.Errorf("second temp_set = %q, want 18.4", v)
	}
}

func TestFetchSnapshots_MissingAliasAbsent(t *testing.T) {
	source := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{
			"status": "success",
			"data": {
				"resultType": "matrix",
				"result": [{
					"metric": {"point": "temp_set"},
					"values": [[1767225600, "18"]]
				}]
			}
		}`))
	})

	snapshots, err := source.FetchSnapshots(context.Background(),
		DeviceRef{RoomID: "room-101", DeviceID: "cooler-01"},
		time.Unix(0, 0), time.Unix(3600, 0))
	if err != nil {
		t.Fatalf("FetchSnapshots() error = %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("snapshot count = %d, want 1", len(snapshots))
	}

	if _, ok := snapshots[0].Value("power"); ok {
		t.Error("Value(power) reported present for absent alias")
	}
}

func TestFetchSnapshots_StoreDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := tsdb.New(config.TSDBConfig{URL: server.URL, QueryTimeout: 1})
	server.Close()
	source := NewVictoriaSource(client, time.Minute)

	_, err := source.FetchSnapshots(context.Background(),
		DeviceRef{RoomID: "room-101", DeviceID: "cooler-01"},
		time.Unix(0, 0), time.Unix(3600, 0))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("FetchSnapshots() against closed server: error = %v, want ErrUnavailable", err)
	}
}
