package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading mirrors a single peripheral reading. The write is
// non-blocking; points are batched and sent asynchronously. It
// satisfies the history store's mirror contract.
func (c *Client) WriteReading(kind, id string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"peripheral_readings",
		map[string]string{
			"kind":          kind,
			"peripheral_id": id,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point for measurements that do not fit
// the reading shape.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
