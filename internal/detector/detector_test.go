package detector

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/nerrad567/pointwatch-core/internal/infrastructure/config"
	"github.com/nerrad567/pointwatch-core/internal/pointcfg"
	"github.com/nerrad567/pointwatch-core/internal/snapshot"
)

// newTestDetector builds a detector over an in-memory point set:
// air_cooler with power (digital), temp_set (analog, threshold 0.5)
// and mode (enum 1=auto 2=manual 3=eco).
func newTestDetector(t *testing.T) *Detector {
	t.Helper()

	dir := t.TempDir()
	listPath := dir + "/monitor_points.json"
	detailPath := dir + "/device_details.json"

	writeFile(t, listPath, `{
		"device_types": [{
			"device_type": "air_cooler",
			"points": [
				{"alias": "power", "name": "power_state", "description": "Unit power", "kind": "digital"},
				{"alias": "temp_set", "name": "temperature_setpoint", "description": "Target temperature", "kind": "analog", "threshold": 0.5},
				{"alias": "mode", "name": "operating_mode", "description": "Control mode", "kind": "enum"}
			]
		}]
	}`)
	writeFile(t, detailPath, `{
		"device_types": [{
			"device_type": "air_cooler",
			"enum_points": [{"alias": "mode", "values": {"1": "auto", "2": "manual", "3": "eco"}}]
		}]
	}`)

	cfg := config.PointsConfig{MonitorListPath: listPath, DeviceDetailPath: detailPath}
	set, err := pointcfg.Load(cfg)
	if err != nil {
		t.Fatalf("load point config: %v", err)
	}
	return New(pointcfg.NewStore(set, cfg))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func snap(capturedAt time.Time, values map[string]string) snapshot.Snapshot {
	return snapshot.Snapshot{
		RoomID:     "room-101",
		DeviceID:   "cooler-01",
		DeviceType: "air_cooler",
		DeviceName: "North Cooler",
		CapturedAt: capturedAt,
		Values:     values,
	}
}

var (
	t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
)

func TestDetectDevice_Digital(t *testing.T) {
	tests := []struct {
		name       string
		prev, curr string
		wantChange bool
		wantDetail string
	}{
		{"off to on", "0", "1", true, "off → on"},
		{"on to off", "1", "0", true, "on → off"},
		{"no change", "1", "1", false, ""},
		{"numeric normalization", "1", "1.0", false, ""},
		{"textual forms", "false", "on", true, "off → on"},
		{"non-canonical values", "standby", "active", true, "standby → active"},
	}

	d := newTestDetector(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, issues, err := d.DetectDevice(
				snap(t0, map[string]string{"power": tt.prev}),
				snap(t1, map[string]string{"power": tt.curr}),
			)
			if err != nil {
				t.Fatalf("DetectDevice() error = %v", err)
			}
			if len(issues) != 0 {
				t.Fatalf("unexpected issues: %v", issues)
			}

			if !tt.wantChange {
				if len(records) != 0 {
					t.Fatalf("records = %v, want none", records)
				}
				return
			}
			if len(records) != 1 {
				t.Fatalf("record count = %d, want 1", len(records))
			}
			if records[0].ChangeDetail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", records[0].ChangeDetail, tt.wantDetail)
			}
			if records[0].ChangeKind != "digital" {
				t.Errorf("kind = %q, want digital", records[0].ChangeKind)
			}
		})
	}
}

func TestDetectDevice_AnalogThresholdInclusive(t *testing.T) {
	tests := []struct {
		name       string
		prev, curr string
		wantChange bool
	}{
		{"below threshold", "18.0", "18.4", false},
		{"exactly at threshold", "18.0", "18.5", true},
		{"above threshold", "18.4", "19.0", true},
		{"negative delta at threshold", "19.0", "18.5", true},
		{"no movement", "18.0", "18.0", false},
	}

	d := newTestDetector(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, issues, err := d.DetectDevice(
				snap(t0, map[string]string{"temp_set": tt.prev}),
				snap(t1, map[string]string{"temp_set": tt.curr}),
			)
			if err != nil {
				t.Fatalf("DetectDevice() error = %v", err)
			}
			if len(issues) != 0 {
				t.Fatalf("unexpected issues: %v", issues)
			}
			if got := len(records) == 1; got != tt.wantChange {
				t.Errorf("change detected = %v, want %v (records %v)", got, tt.wantChange, records)
			}
		})
	}
}

func TestDetectDevice_AnalogMagnitudeAndDetail(t *testing.T) {
	d := newTestDetector(t)
	records, _, err := d.DetectDevice(
		snap(t0, map[string]string{"temp_set": "18.4"}),
		snap(t1, map[string]string{"temp_set": "19"}),
	)
	if err != nil {
		t.Fatalf("DetectDevice() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("record count = %d, want 1", len(records))
	}

	r := records[0]
	if r.ChangeMagnitude < 0.599 || r.ChangeMagnitude > 0.601 {
		t.Errorf("magnitude = %v, want ~0.6", r.ChangeMagnitude)
	}
	if r.PreviousValue != "18.4" || r.CurrentValue != "19" {
		t.Errorf("values = %q → %q, want 18.4 → 19", r.PreviousValue, r.CurrentValue)
	}
	if r.ChangeDetail != "18.4 → 19 (Δ +0.6)" {
		t.Errorf("detail = %q, want %q", r.ChangeDetail, "18.4 → 19 (Δ +0.6)")
	}
	if r.ChangeTime != t1 {
		t.Errorf("change time = %v, want current snapshot time %v", r.ChangeTime, t1)
	}
}

func TestDetectDevice_AnalogUnparseableSkipsPoint(t *testing.T) {
	d := newTestDetector(t)
	records, issues, err := d.DetectDevice(
		snap(t0, map[string]string{"temp_set": "garbage", "power": "0"}),
		snap(t1, map[string]string{"temp_set": "19", "power": "1"}),
	)
	if err != nil {
		t.Fatalf("DetectDevice() error = %v", err)
	}

	if len(issues) != 1 {
		t.Fatalf("issue count = %d, want 1", len(issues))
	}
	if !errors.Is(issues[0], ErrDataQuality) {
		t.Errorf("issue = %v, want ErrDataQuality", issues[0])
	}
	var dq *DataQualityError
	if !errors.As(issues[0], &dq) {
		t.Fatal("issue is not a *DataQualityError")
	}
	if dq.PointAlias != "temp_set" || dq.DeviceName != "North Cooler" {
		t.Errorf("issue context = %s/%s, want North Cooler/temp_set", dq.DeviceName, dq.PointAlias)
	}

	// The digital point still produced its record.
	if len(records) != 1 || records[0].PointName != "power_state" {
		t.Errorf("records = %v, want the power_state change only", records)
	}
}

func TestDetectDevice_Enum(t *testing.T) {
	d := newTestDetector(t)
	records, issues, err := d.DetectDevice(
		snap(t0, map[string]string{"mode": "1"}),
		snap(t1, map[string]string{"mode": "2"}),
	)
	if err != nil {
		t.Fatalf("DetectDevice() error = %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if len(records) != 1 {
		t.Fatalf("record count = %d, want 1", len(records))
	}
	if records[0].ChangeDetail != "auto → manual" {
		t.Errorf("detail = %q, want %q", records[0].ChangeDetail, "auto → manual")
	}
	if records[0].PreviousValue != "auto" || records[0].CurrentValue != "manual" {
		t.Errorf("values = %q → %q, want auto → manual", records[0].PreviousValue, records[0].CurrentValue)
	}
}

func TestDetectDevice_EnumAliasedEncodingsEqual(t *testing.T) {
	// Two raw encodings mapped to the same label must not register as
	// a change.
	dir := t.TempDir()
	listPath := dir + "/monitor_points.json"
	detailPath := dir + "/device_details.json"

	writeFile(t, listPath, `{
		"device_types": [{
			"device_type": "air_cooler",
			"points": [
				{"alias": "mode", "name": "operating_mode", "description": "Control mode", "kind": "enum"}
			]
		}]
	}`)
	writeFile(t, detailPath, `{
		"device_types": [{
			"device_type": "air_cooler",
			"enum_points": [{"alias": "mode", "values": {"1": "auto", "1.0": "auto", "2": "manual"}}]
		}]
	}`)

	cfg := config.PointsConfig{MonitorListPath: listPath, DeviceDetailPath: detailPath}
	set, err := pointcfg.Load(cfg)
	if err != nil {
		t.Fatalf("load point config: %v", err)
	}
	d := New(pointcfg.NewStore(set, cfg))

	records, issues, err := d.DetectDevice(
		snap(t0, map[string]string{"mode": "1"}),
		snap(t1, map[string]string{"mode": "1.0"}),
	)
	if err != nil {
		t.Fatalf("DetectDevice() error = %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if len(records) != 0 {
		t.Errorf("records = %v, want none for aliased encodings of one state", records)
	}
}

func TestDetectDevice_EnumUnmappedDegrades(t *testing.T) {
	d := newTestDetector(t)
	records, issues, err := d.DetectDevice(
		snap(t0, map[string]string{"mode": "1"}),
		snap(t1, map[string]string{"mode": "7"}),
	)
	if err != nil {
		t.Fatalf("DetectDevice() error = %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("unmapped enum must not raise issues, got %v", issues)
	}
	if len(records) != 1 {
		t.Fatalf("record count = %d, want 1", len(records))
	}
	if records[0].CurrentValue != "unknown(7)" {
		t.Errorf("current value = %q, want unknown(7)", records[0].CurrentValue)
	}
	if records[0].ChangeDetail != "auto → unknown(7)" {
		t.Errorf("detail = %q, want %q", records[0].ChangeDetail, "auto → unknown(7)")
	}
}

func TestDetectDevice_MissingValueNoRecord(t *testing.T) {
	d := newTestDetector(t)

	// Previous snapshot never observed temp_set.
	records, issues, err := d.DetectDevice(
		snap(t0, map[string]string{"power": "1"}),
		snap(t1, map[string]string{"power": "1", "temp_set": "19"}),
	)
	if err != nil {
		t.Fatalf("DetectDevice() error = %v", err)
	}
	if len(records) != 0 || len(issues) != 0 {
		t.Errorf("records = %v, issues = %v; want none", records, issues)
	}
}

func TestDetectDevice_DeclarationOrder(t *testing.T) {
	d := newTestDetector(t)
	records, _, err := d.DetectDevice(
		snap(t0, map[string]string{"power": "0", "temp_set": "18", "mode": "1"}),
		snap(t1, map[string]string{"power": "1", "temp_set": "19", "mode": "2"}),
	)
	if err != nil {
		t.Fatalf("DetectDevice() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("record count = %d, want 3", len(records))
	}

	want := []string{"power_state", "temperature_setpoint", "operating_mode"}
	for i, name := range want {
		if records[i].PointName != name {
			t.Errorf("records[%d].PointName = %q, want %q", i, records[i].PointName, name)
		}
	}
}

func TestDetectDevice_UnknownDeviceType(t *testing.T) {
	d := newTestDetector(t)
	prev := snap(t0, map[string]string{"power": "0"})
	curr := snap(t1, map[string]string{"power": "1"})
	prev.DeviceType = "dehumidifier"
	curr.DeviceType = "dehumidifier"

	_, _, err := d.DetectDevice(prev, curr)
	if !errors.Is(err, pointcfg.ErrUnknownDeviceType) {
		t.Errorf("DetectDevice() error = %v, want ErrUnknownDeviceType", err)
	}
}

func TestDetectSeries(t *testing.T) {
	d := newTestDetector(t)
	t2 := t1.Add(time.Hour)

	// 18.0 → 18.4 (below threshold) → 19.0 (0.6 from 18.4: change).
	records, issues, err := d.DetectSeries([]snapshot.Snapshot{
		snap(t0, map[string]string{"temp_set": "18.0"}),
		snap(t1, map[string]string{"temp_set": "18.4"}),
		snap(t2, map[string]string{"temp_set": "19.0"}),
	})
	if err != nil {
		t.Fatalf("DetectSeries() error = %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if len(records) != 1 {
		t.Fatalf("record count = %d, want 1", len(records))
	}
	if records[0].ChangeTime != t2 {
		t.Errorf("change time = %v, want %v", records[0].ChangeTime, t2)
	}
	if records[0].PreviousValue != "18.4" || records[0].CurrentValue != "19" {
		t.Errorf("values = %q → %q, want 18.4 → 19", records[0].PreviousValue, records[0].CurrentValue)
	}
}

func TestDetectSeries_SingleSnapshot(t *testing.T) {
	d := newTestDetector(t)
	records, issues, err := d.DetectSeries([]snapshot.Snapshot{
		snap(t0, map[string]string{"temp_set": "18.0"}),
	})
	if err != nil {
		t.Fatalf("DetectSeries() error = %v", err)
	}
	if records != nil || issues != nil {
		t.Errorf("single snapshot produced output: records %v, issues %v", records, issues)
	}
}
