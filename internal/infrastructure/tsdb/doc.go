// Package tsdb provides read access to the time-series snapshot store.
//
// It queries VictoriaMetrics through the Prometheus HTTP API using only
// net/http: PromQL range queries return setpoint samples, and the series
// metadata endpoint backs device discovery. Pointwatch never writes here;
// telemetry ingestion is an external collaborator.
//
// # Error Classification
//
// Transport failures are classified into sentinel errors (ErrTimeout,
// ErrUnavailable, ErrQueryFailed) so the batch orchestrator can map them
// onto per-room failure handling.
package tsdb
