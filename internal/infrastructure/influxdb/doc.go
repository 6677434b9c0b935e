// Package influxdb mirrors monitoring metrics to InfluxDB for dashboards.
//
// Change counts, analog change magnitudes, and batch summaries are written
// through the non-blocking batched write API. The SQLite change sink is the
// system of record; this mirror is optional (influxdb.enabled) and its
// failures surface via an error callback, never failing a batch.
package influxdb
