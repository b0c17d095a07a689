package influxdb

import (
	"errors"
	"testing"

	"github.com/hearthlabs/hearth-core/internal/infrastructure/config"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestWriteReadingDisconnected(t *testing.T) {
	// A closed or never-connected client must drop writes silently.
	c := &Client{}
	c.WriteReading("GasSensor", "gas-1", 3.5)
	c.WritePoint("custom", nil, map[string]interface{}{"value": 1.0})
	c.Flush()
}

func TestIsConnectedAfterClose(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true on zero client")
	}
}
