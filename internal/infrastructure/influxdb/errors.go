package influxdb

import "errors"

var (
	// ErrDisabled indicates InfluxDB export is turned off in config.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed indicates the server could not be reached or
	// reported unhealthy during connect.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected indicates an operation was attempted after the
	// client was closed.
	ErrNotConnected = errors.New("influxdb: not connected")
)
