// Package influxdb mirrors peripheral readings to an InfluxDB v2
// bucket. Writes are batched and non-blocking; the SQLite history store
// remains the source of truth, the mirror is export only.
package influxdb
