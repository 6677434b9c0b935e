package pointcfg

import "errors"

// Sentinel errors for point configuration loading and lookup.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, pointcfg.ErrMissingThreshold) {
//	    // Analog point declared without a threshold
//	}
var (
	// ErrLoadFailed indicates a configuration document could not be
	// read or parsed.
	ErrLoadFailed = errors.New("pointcfg: load failed")

	// ErrUnsupportedKind indicates a point declares a change kind
	// outside digital/analog/enum.
	ErrUnsupportedKind = errors.New("pointcfg: unsupported change kind")

	// ErrMissingThreshold indicates an analog point has no positive
	// threshold.
	ErrMissingThreshold = errors.New("pointcfg: analog point missing threshold")

	// ErrEmptyEnumMapping indicates an enum point has no value mapping.
	ErrEmptyEnumMapping = errors.New("pointcfg: enum point missing mapping")

	// ErrDuplicateAlias indicates two points on the same device type
	// share an alias.
	ErrDuplicateAlias = errors.New("pointcfg: duplicate point alias")

	// ErrUnknownDeviceType indicates a lookup for a device type with
	// no declared points.
	ErrUnknownDeviceType = errors.New("pointcfg: unknown device type")
)
