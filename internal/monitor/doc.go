// Package monitor coordinates batch change-monitoring passes.
//
// The Orchestrator scans a set of rooms over a time window: device
// discovery and snapshot history come from a snapshot.Source, change
// detection from the detector, and persistence goes through the Sink
// interface with SQLite as the system of record. Rooms are scanned with
// bounded concurrency and fail independently. Outcomes optionally fan
// out to MQTT and InfluxDB via EventNotifier.
package monitor
