package pointcfg

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/pointwatch-core/internal/infrastructure/config"
)

// Set is an immutable, validated collection of point configurations.
//
// A Set is built once by Load and never mutated; callers needing live
// reload wrap it in a Store.
type Set struct {
	// byType preserves declaration order per device type.
	byType map[string][]PointConfig

	// byAlias indexes points by "deviceType/alias" for O(1) lookup.
	byAlias map[string]*PointConfig

	total int
}

// Get returns the point configuration for a device type and alias.
//
// Returns:
//   - *PointConfig: The point, or nil if not found
//   - bool: true if the point exists
func (s *Set) Get(deviceType, alias string) (*PointConfig, bool) {
	p, ok := s.byAlias[deviceType+"/"+alias]
	return p, ok
}

// Points returns the monitored points for a device type, in
// declaration order. The returned slice must not be modified.
//
// Returns:
//   - []PointConfig: Points in declaration order
//   - error: ErrUnknownDeviceType if the type declares no points
func (s *Set) Points(deviceType string) ([]PointConfig, error) {
	points, ok := s.byType[deviceType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDeviceType, deviceType)
	}
	return points, nil
}

// DeviceTypes returns the device types that declare at least one point.
func (s *Set) DeviceTypes() []string {
	types := make([]string, 0, len(s.byType))
	for dt := range s.byType {
		types = append(types, dt)
	}
	return types
}

// Len returns the total number of declared points across all types.
func (s *Set) Len() int {
	return s.total
}

// Store holds the active point set and supports atomic reload.
//
// Detection runs read the current set via Current(); a reload swaps
// the whole set at once, so a batch in flight keeps the set it
// started with.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Store struct {
	mu  sync.RWMutex
	set *Set
	cfg config.PointsConfig
}

// NewStore wraps an initial set for live reload.
func NewStore(initial *Set, cfg config.PointsConfig) *Store {
	return &Store{set: initial, cfg: cfg}
}

// Current returns the active point set.
func (s *Store) Current() *Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set
}

// Reload re-reads the configuration documents and swaps the active set.
//
// On any load or validation error the previous set stays active.
//
// Parameters:
//   - ctx: Context (checked for cancellation before the swap)
//
// Returns:
//   - error: nil on success, the load error otherwise
func (s *Store) Reload(ctx context.Context) error {
	set, err := Load(s.cfg)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.set = set
	s.mu.Unlock()
	return nil
}
