// Package pointcfg loads and validates the monitored-point configuration.
//
// Points are declared per device type in a JSON monitoring list; enum
// points additionally join against a static device-detail document for
// their value→label mappings. The loaded Set is immutable and preserves
// declaration order, which detection output follows. Store adds atomic
// live reload on top, triggered from the MQTT reload topic.
package pointcfg
