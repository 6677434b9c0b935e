package pointcfg

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nerrad567/pointwatch-core/internal/infrastructure/config"
)

// monitorListDoc is the on-disk shape of the monitoring list document.
//
// Points are grouped by device type, in declaration order. Order matters:
// detection results preserve it.
type monitorListDoc struct {
	DeviceTypes []struct {
		DeviceType string `json:"device_type"`
		Points     []struct {
			Alias       string     `json:"alias"`
			Name        string     `json:"name"`
			Description string     `json:"description"`
			Kind        ChangeKind `json:"kind"`
			Threshold   float64    `json:"threshold"`
		} `json:"points"`
	} `json:"device_types"`
}

// deviceDetailDoc is the on-disk shape of the static device-detail
// document. Only the enum value mappings are consumed here.
type deviceDetailDoc struct {
	DeviceTypes []struct {
		DeviceType string `json:"device_type"`
		EnumPoints []struct {
			Alias  string            `json:"alias"`
			Values map[string]string `json:"values"`
		} `json:"enum_points"`
	} `json:"device_types"`
}

// Load reads and joins the two point configuration documents.
//
// The monitoring list declares which points exist and how changes are
// detected; the device-detail document supplies enum value→label
// mappings, joined by (device_type, alias). Validation is exhaustive:
// every declared point is checked and the first violation is returned
// with enough context to locate it.
//
// Parameters:
//   - cfg: Paths to the two JSON documents
//
// Returns:
//   - *Set: Immutable, validated point set
//   - error: ErrLoadFailed, ErrUnsupportedKind, ErrMissingThreshold,
//     ErrEmptyEnumMapping, or ErrDuplicateAlias
func Load(cfg config.PointsConfig) (*Set, error) {
	var list monitorListDoc
	if err := readJSON(cfg.MonitorListPath, &list); err != nil {
		return nil, fmt.Errorf("%w: monitor list %s: %w", ErrLoadFailed, cfg.MonitorListPath, err)
	}

	var detail deviceDetailDoc
	if err := readJSON(cfg.DeviceDetailPath, &detail); err != nil {
		return nil, fmt.Errorf("%w: device detail %s: %w", ErrLoadFailed, cfg.DeviceDetailPath, err)
	}

	// Index enum mappings by (device_type, alias) for the join.
	enums := make(map[string]map[string]string)
	for _, dt := range detail.DeviceTypes {
		for _, ep := range dt.EnumPoints {
			enums[dt.DeviceType+"/"+ep.Alias] = ep.Values
		}
	}

	set := &Set{
		byType:  make(map[string][]PointConfig),
		byAlias: make(map[string]*PointConfig),
	}

	seen := make(map[string]bool)
	for _, dt := range list.DeviceTypes {
		for _, raw := range dt.Points {
			point := PointConfig{
				DeviceType:  dt.DeviceType,
				Alias:       raw.Alias,
				Name:        raw.Name,
				Description: raw.Description,
				Kind:        raw.Kind,
				Threshold:   raw.Threshold,
				EnumMapping: enums[dt.DeviceType+"/"+raw.Alias],
			}

			if err := validatePoint(&point); err != nil {
				return nil, err
			}

			key := point.DeviceType + "/" + point.Alias
			if seen[key] {
				return nil, fmt.Errorf("%w: %s on %s", ErrDuplicateAlias, point.Alias, point.DeviceType)
			}
			seen[key] = true

			set.byType[point.DeviceType] = append(set.byType[point.DeviceType], point)
			set.total++
		}
	}

	// Index after all appends so pointers reference the final slices.
	for dt, points := range set.byType {
		for i := range points {
			set.byAlias[dt+"/"+points[i].Alias] = &points[i]
		}
	}

	return set, nil
}

// validatePoint enforces per-kind requirements.
func validatePoint(p *PointConfig) error {
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: %q on %s/%s", ErrUnsupportedKind, p.Kind, p.DeviceType, p.Alias)
	}
	if p.Kind == KindAnalog && p.Threshold <= 0 {
		return fmt.Errorf("%w: %s/%s", ErrMissingThreshold, p.DeviceType, p.Alias)
	}
	if p.Kind == KindEnum && len(p.EnumMapping) == 0 {
		return fmt.Errorf("%w: %s/%s", ErrEmptyEnumMapping, p.DeviceType, p.Alias)
	}
	return nil
}

// readJSON reads and unmarshals one document.
func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from validated config
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	return nil
}
