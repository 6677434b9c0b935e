package pointcfg

// ChangeKind classifies how a monitored point's value changes are detected.
type ChangeKind string

// Supported change kinds.
const (
	// KindDigital is a two-state point (on/off, open/closed).
	// Any normalized value difference is a change.
	KindDigital ChangeKind = "digital"

	// KindAnalog is a continuous numeric point (temperature, speed).
	// A change is recorded when |current - previous| meets the threshold.
	KindAnalog ChangeKind = "analog"

	// KindEnum is a discrete multi-state point (mode selectors).
	// Raw values are mapped to labels via the device's enum mapping.
	KindEnum ChangeKind = "enum"
)

// Valid reports whether k is one of the supported change kinds.
func (k ChangeKind) Valid() bool {
	switch k {
	case KindDigital, KindAnalog, KindEnum:
		return true
	default:
		return false
	}
}

// PointConfig describes a single monitored point on a device type.
//
// Points are declared per device type, not per device instance: every
// air_cooler shares the same monitored point list. Alias is the key used
// to look the point up in snapshot value maps.
type PointConfig struct {
	// DeviceType is the device classification this point belongs to
	// (air_cooler, fan, humidifier, light).
	DeviceType string `json:"device_type"`

	// Alias is the short identifier used as the snapshot value key.
	Alias string `json:"alias"`

	// Name is the canonical point name used in change records.
	Name string `json:"name"`

	// Description is human-readable context carried into change records.
	Description string `json:"description"`

	// Kind selects the change-detection rule for this point.
	Kind ChangeKind `json:"kind"`

	// Threshold is the minimum absolute delta that counts as a change.
	// Required for analog points, ignored for the other kinds.
	Threshold float64 `json:"threshold,omitempty"`

	// EnumMapping maps raw values to human-readable labels.
	// Required for enum points, ignored for the other kinds.
	EnumMapping map[string]string `json:"enum_mapping,omitempty"`
}

// IsAnalog reports whether the point uses threshold-based detection.
func (p *PointConfig) IsAnalog() bool {
	return p.Kind == KindAnalog
}

// MapEnum resolves a raw enum value to its label.
//
// Unmapped values degrade to "unknown(<raw>)" rather than failing:
// a firmware update adding a new mode must not break monitoring.
//
// Parameters:
//   - raw: Raw value from a snapshot
//
// Returns:
//   - string: Mapped label, or the degraded unknown form
//   - bool: true if the raw value was present in the mapping
func (p *PointConfig) MapEnum(raw string) (string, bool) {
	if label, ok := p.EnumMapping[raw]; ok {
		return label, true
	}
	return "unknown(" + raw + ")", false
}
