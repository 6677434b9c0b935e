// Package snapshot defines the device snapshot model and its sources.
//
// A Snapshot is one device's point values at one instant, keyed by
// point alias. The Source interface abstracts where snapshots come
// from; VictoriaSource implements it over the VictoriaMetrics
// Prometheus HTTP API, merging per-point series into per-timestamp
// snapshots.
package snapshot
