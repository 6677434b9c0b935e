package mqtt

import "fmt"

// Topic prefixes for the Pointwatch MQTT namespace.
//
// The dashboard and other external consumers subscribe under pointwatch/core;
// operator-facing control topics live under pointwatch/system.
const (
	// TopicPrefixCore is the base for all monitoring output topics.
	TopicPrefixCore = "pointwatch/core"

	// TopicPrefixSystem is the base for system/operator topics.
	TopicPrefixSystem = "pointwatch/system"
)

// Topics provides builders for Pointwatch MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// ChangeEvent returns the topic for setpoint change events in a room.
//
// Example: pointwatch/core/change/room-101
func (Topics) ChangeEvent(roomID string) string {
	return fmt.Sprintf("%s/change/%s", TopicPrefixCore, roomID)
}

// BatchResult returns the topic for batch monitoring summaries.
//
// Example: pointwatch/core/batch/result
func (Topics) BatchResult() string {
	return fmt.Sprintf("%s/batch/result", TopicPrefixCore)
}

// InferenceRequest returns the topic on which inference triggers are published
// for the external ML pipeline.
//
// Example: pointwatch/core/inference/request
func (Topics) InferenceRequest() string {
	return fmt.Sprintf("%s/inference/request", TopicPrefixCore)
}

// SystemStatus returns the service status topic (retained, LWT-backed).
//
// Example: pointwatch/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemReload returns the operator topic that triggers a point
// configuration reload.
//
// Example: pointwatch/system/reload
func (Topics) SystemReload() string {
	return fmt.Sprintf("%s/reload", TopicPrefixSystem)
}

// AllChangeEvents returns a pattern matching change events for every room.
//
// Pattern: pointwatch/core/change/+
func (Topics) AllChangeEvents() string {
	return fmt.Sprintf("%s/change/+", TopicPrefixCore)
}
