package detector

import (
	"errors"
	"fmt"
)

// ErrDataQuality is the sentinel wrapped by all DataQualityError values.
var ErrDataQuality = errors.New("detector: data quality")

// DataQualityError reports one point whose values could not be
// interpreted under its declared change kind.
//
// Data quality problems are per-point: the detector skips the point,
// reports the issue, and continues with the device's remaining points.
type DataQualityError struct {
	DeviceName string
	PointAlias string
	RawValue   string
	Reason     string
}

// Error implements the error interface.
func (e *DataQualityError) Error() string {
	return fmt.Sprintf("detector: data quality: %s/%s: %s (raw %q)",
		e.DeviceName, e.PointAlias, e.Reason, e.RawValue)
}

// Unwrap lets errors.Is match ErrDataQuality.
func (e *DataQualityError) Unwrap() error {
	return ErrDataQuality
}
