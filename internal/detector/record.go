package detector

import "time"

// ChangeRecord is one detected setpoint change, ready for persistence.
//
// The natural key (RoomID, DeviceName, PointName, ChangeTime) identifies
// a change regardless of how many overlapping scans observe it; ID is a
// surrogate for storage only.
type ChangeRecord struct {
	// ID is a generated UUID, unique per stored record.
	ID string

	RoomID           string
	DeviceType       string
	DeviceName       string
	PointName        string
	PointDescription string

	// ChangeTime is when the change was observed: the CapturedAt of the
	// snapshot carrying the new value.
	ChangeTime time.Time

	// PreviousValue and CurrentValue are presentation forms: canonical
	// on/off for digital, trimmed numerics for analog, mapped labels
	// for enum.
	PreviousValue string
	CurrentValue  string

	// ChangeKind is the detection rule that produced this record.
	ChangeKind string

	// ChangeDetail is a human-readable one-liner, e.g. "off → on" or
	// "18.4 → 19 (Δ +0.6)".
	ChangeDetail string

	// ChangeMagnitude is the signed delta (current - previous).
	// Meaningful for analog changes only; zero otherwise.
	ChangeMagnitude float64

	// DetectedAt is when the detector produced this record.
	DetectedAt time.Time
}
