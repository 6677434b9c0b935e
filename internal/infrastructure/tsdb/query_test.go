package tsdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nerrad567/pointwatch-core/internal/infrastructure/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(config.TSDBConfig{URL: server.URL, QueryTimeout: 2, Step: 60})
}

func TestQueryRange_DecodesMatrix(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query_range" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"status": "success",
			"data": {
				"resultType": "matrix",
				"result": [{
					"metric": {"__name__": "setpoint", "point": "temp_set", "device_id": "cooler-01"},
					"values": [[1767225600, "18"], [1767229200, "18.4"], [1767232800, "19"]]
				}]
			}
		}`))
	})

	series, err := client.QueryRange(context.Background(),
		`setpoint{device_id="cooler-01"}`,
		time.Unix(1767225600, 0), time.Unix(1767232800, 0), time.Minute)
	if err != nil {
		t.Fatalf("QueryRange() error = %v", err)
	}

	if len(series) != 1 {
		t.Fatalf("series count = %d, want 1", len(series))
	}
	if series[0].Labels["point"] != "temp_set" {
		t.Errorf("point label = %q, want temp_set", series[0].Labels["point"])
	}
	if len(series[0].Samples) != 3 {
		t.Fatalf("sample count = %d, want 3", len(series[0].Samples))
	}
	if series[0].Samples[1].Value != "18.4" {
		t.Errorf("sample value = %q, want 18.4", series[0].Samples[1].Value)
	}
	if got := series[0].Samples[0].Timestamp.Unix(); got != 1767225600 {
		t.Errorf("sample timestamp = %d, want 1767225600", got)
	}
}

func TestQueryRange_RejectsBadRange(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	})

	now := time.Now()
	_, err := client.QueryRange(context.Background(), "setpoint", now, now.Add(-time.Hour), time.Minute)
	if !errors.Is(err, ErrQueryFailed) {
		t.Errorf("QueryRange() with end before start: error = %v, want ErrQueryFailed", err)
	}
}

func TestQueryRange_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "error", "data": {}}`))
	})

	_, err := client.QueryRange(context.Background(), "setpoint",
		time.Unix(0, 0), time.Unix(60, 0), time.Minute)
	if !errors.Is(err, ErrQueryFailed) {
		t.Errorf("QueryRange() error = %v, want ErrQueryFailed", err)
	}
}

func TestQueryRange_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := New(config.TSDBConfig{URL: server.URL, QueryTimeout: 1})
	server.Close()

	_, err := client.QueryRange(context.Background(), "setpoint",
		time.Unix(0, 0), time.Unix(60, 0), time.Minute)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("QueryRange() against closed server: error = %v, want ErrUnavailable", err)
	}
}

func TestSeriesLabels(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/series" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"status": "success",
			"data": [
				{"__name__": "setpoint", "device_id": "cooler-01", "device_type": "air_cooler"},
				{"__name__": "setpoint", "device_id": "fan-02", "device_type": "fan"}
			]
		}`))
	})

	labels, err := client.SeriesLabels(context.Background(),
		`setpoint{room_id="room-101"}`, time.Unix(0, 0), time.Unix(3600, 0))
	if err != nil {
		t.Fatalf("SeriesLabels() error = %v", err)
	}
	if len(labels) != 2 {
		t.Fatalf("label set count = %d, want 2", len(labels))
	}
	if labels[1]["device_type"] != "fan" {
		t.Errorf("device_type = %q, want fan", labels[1]["device_type"])
	}
}

func TestHealthCheck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
