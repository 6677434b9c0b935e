// Package detector turns consecutive device snapshots into change records.
//
// Each monitored point is compared under its declared kind: digital
// points on normalized equality with canonical on/off output, analog
// points against an inclusive absolute threshold with signed magnitude,
// enum points through their value→label mapping with graceful handling
// of unmapped values. Data quality problems are confined to the point
// that exhibits them.
package detector
