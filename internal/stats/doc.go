// Package stats aggregates change records into daily per-room,
// per-device-type counts. The nightly job recomputes the previous UTC
// day; recomputation replaces the day's rows, so reruns are safe.
package stats
