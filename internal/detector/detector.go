package detector

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/pointwatch-core/internal/pointcfg"
	"github.com/nerrad567/pointwatch-core/internal/snapshot"
)

// Detector compares consecutive device snapshots against the monitored
// point configuration and emits change records.
//
// A Detector is stateless between calls; the point configuration is
// read from the store at each device comparison, so a config reload
// takes effect on the next comparison without restart.
type Detector struct {
	store *pointcfg.Store
}

// New creates a Detector over a point configuration store.
func New(store *pointcfg.Store) *Detector {
	return &Detector{store: store}
}

// DetectDevice compares two consecutive snapshots of one device.
//
// Points are evaluated in declaration order, and records are returned
// in that order. A point missing from either snapshot produces no
// record; values that cannot be interpreted under the point's kind
// produce a DataQualityError and the point is skipped.
//
// Parameters:
//   - prev: Earlier snapshot
//   - curr: Later snapshot carrying the candidate new values
//
// Returns:
//   - []ChangeRecord: Detected changes in point declaration order
//   - []error: Per-point data quality issues (never fatal)
//   - error: ErrUnknownDeviceType if the device type declares no points
func (d *Detector) DetectDevice(prev, curr snapshot.Snapshot) ([]ChangeRecord, []error, error) {
	points, err := d.store.Current().Points(curr.DeviceType)
	if err != nil {
		return nil, nil, err
	}

	var records []ChangeRecord
	var issues []error
	now := time.Now().UTC()

	for i := range points {
		point := &points[i]

		prevRaw, prevOK := prev.Value(point.Alias)
		currRaw, currOK := curr.Value(point.Alias)
		if !prevOK || !currOK {
			// No previous (or current) observation: nothing to compare.
			continue
		}

		var record *ChangeRecord
		var issue error

		switch point.Kind {
		case pointcfg.KindDigital:
			record = detectDigital(point, prevRaw, currRaw)
		case pointcfg.KindAnalog:
			record, issue = detectAnalog(point, prevRaw, currRaw)
		case pointcfg.KindEnum:
			record = detectEnum(point, prevRaw, currRaw)
		}

		if issue != nil {
			var dq *DataQualityError
			if errors.As(issue, &dq) {
				dq.DeviceName = curr.DeviceName
			}
			issues = append(issues, issue)
			continue
		}
		if record == nil {
			continue
		}

		record.ID = uuid.New().String()
		record.RoomID = curr.RoomID
		record.DeviceType = curr.DeviceType
		record.DeviceName = curr.DeviceName
		record.PointName = point.Name
		record.PointDescription = point.Description
		record.ChangeTime = curr.CapturedAt
		record.DetectedAt = now
		records = append(records, *record)
	}

	return records, issues, nil
}

// DetectSeries walks a device's snapshot history pairwise.
//
// Fewer than two snapshots yields no records: there is nothing to
// compare against.
func (d *Detector) DetectSeries(snapshots []snapshot.Snapshot) ([]ChangeRecord, []error, error) {
	if len(snapshots) < 2 {
		return nil, nil, nil
	}

	var records []ChangeRecord
	var issues []error
	for i := 1; i < len(snapshots); i++ {
		recs, iss, err := d.DetectDevice(snapshots[i-1], snapshots[i])
		if err != nil {
			return nil, nil, err
		}
		records = append(records, recs...)
		issues = append(issues, iss...)
	}
	return records, issues, nil
}

// detectDigital compares a two-state point.
//
// Values are normalized before comparison: if both sides parse as
// numbers they compare numerically ("1" equals "1.0"), otherwise as
// trimmed case-insensitive strings. Output uses canonical on/off
// labels where the raw value admits one.
func detectDigital(point *pointcfg.PointConfig, prevRaw, currRaw string) *ChangeRecord {
	if digitalEqual(prevRaw, currRaw) {
		return nil
	}

	prevLabel := digitalLabel(prevRaw)
	currLabel := digitalLabel(currRaw)
	return &ChangeRecord{
		PreviousValue: prevLabel,
		CurrentValue:  currLabel,
		ChangeKind:    string(pointcfg.KindDigital),
		ChangeDetail:  fmt.Sprintf("%s → %s", prevLabel, currLabel),
	}
}

// digitalEqual reports whether two raw digital values denote the same
// state.
func digitalEqual(a, b string) bool {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA == nil && errB == nil {
		return fa == fb
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// digitalLabel maps a raw digital value to a canonical on/off label.
// Values outside the known forms pass through unchanged.
func digitalLabel(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "1.0", "true", "on":
		return "on"
	case "0", "0.0", "false", "off":
		return "off"
	default:
		return strings.TrimSpace(raw)
	}
}

// detectAnalog compares a continuous numeric point against its
// threshold. The threshold is inclusive: |delta| equal to the
// threshold is a change.
func detectAnalog(point *pointcfg.PointConfig, prevRaw, currRaw string) (*ChangeRecord, error) {
	prev, err := strconv.ParseFloat(strings.TrimSpace(prevRaw), 64)
	if err != nil {
		return nil, &DataQualityError{
			PointAlias: point.Alias, RawValue: prevRaw,
			Reason: "previous value not numeric",
		}
	}
	curr, err := strconv.ParseFloat(strings.TrimSpace(currRaw), 64)
	if err != nil {
		return nil, &DataQualityError{
			PointAlias: point.Alias, RawValue: currRaw,
			Reason: "current value not numeric",
		}
	}

	delta := curr - prev
	if math.Abs(delta) < point.Threshold {
		return nil, nil
	}

	prevStr := formatNumber(prev)
	currStr := formatNumber(curr)
	return &ChangeRecord{
		PreviousValue:   prevStr,
		CurrentValue:    currStr,
		ChangeKind:      string(pointcfg.KindAnalog),
		ChangeDetail:    fmt.Sprintf("%s → %s (Δ %s)", prevStr, currStr, formatDelta(delta)),
		ChangeMagnitude: delta,
	}, nil
}

// detectEnum compares a multi-state point through its value mapping.
// The comparison is on mapped labels, so distinct raw encodings of the
// same state ("1" and "1.0" both mapped to "auto") are equal. Unmapped
// values surface as "unknown(<raw>)" labels and so still compare by
// raw value; they never fail the point.
func detectEnum(point *pointcfg.PointConfig, prevRaw, currRaw string) *ChangeRecord {
	prevLabel, _ := point.MapEnum(strings.TrimSpace(prevRaw))
	currLabel, _ := point.MapEnum(strings.TrimSpace(currRaw))
	if prevLabel == currLabel {
		return nil
	}

	return &ChangeRecord{
		PreviousValue: prevLabel,
		CurrentValue:  currLabel,
		ChangeKind:    string(pointcfg.KindEnum),
		ChangeDetail:  fmt.Sprintf("%s → %s", prevLabel, currLabel),
	}
}

// formatNumber renders a float without trailing zeros ("19", "18.4").
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatDelta renders a signed delta with explicit sign ("+0.6", "-1.5").
// The delta is rounded for display: 19 - 18.4 is 0.5999... in binary
// floating point and must still read as +0.6.
func formatDelta(v float64) string {
	rounded := math.Round(v*1e9) / 1e9
	s := strconv.FormatFloat(rounded, 'f', -1, 64)
	if rounded >= 0 {
		return "+" + s
	}
	return s
}

// IsDataQuality reports whether err is a per-point data quality issue.
func IsDataQuality(err error) bool {
	return errors.Is(err, ErrDataQuality)
}
