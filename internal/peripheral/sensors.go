package peripheral

import (
	"context"
	"fmt"
)

// GasSensor reads a gas concentration endpoint. Gas readings are
// transient alarm inputs and are not written to history.
type GasSensor struct {
	endpoint
}

func (g *GasSensor) Kind() Kind { return KindGasSensor }

func (g *GasSensor) Sensor() bool { return true }

func (g *GasSensor) State(ctx context.Context) (string, error) {
	raw, fields, err := g.fetch(ctx)
	if err != nil {
		return "", err
	}
	if _, ok := numericField(fields, "gasValue"); !ok {
		return "", fmt.Errorf("%w: missing gasValue", ErrMalformedResponse)
	}
	return raw, nil
}

// TemperatureSensor reads an ambient temperature endpoint.
type TemperatureSensor struct {
	endpoint
	recorder Recorder
}

func (t *TemperatureSensor) Kind() Kind { return KindTemperatureSensor }

func (t *TemperatureSensor) Sensor() bool { return true }

func (t *TemperatureSensor) State(ctx context.Context) (string, error) {
	raw, fields, err := t.fetch(ctx)
	if err != nil {
		return "", err
	}
	temp, ok := numericField(fields, "temperatureC")
	if !ok {
		return "", fmt.Errorf("%w: missing temperatureC", ErrMalformedResponse)
	}

	if t.recorder != nil {
		if err := t.recorder.RecordReading(ctx, KindTemperatureSensor, t.cfg.ID, temp); err != nil {
			t.logger.Warn("failed to record temperature reading", "peripheral_id", t.cfg.ID, "error", err)
		}
	}
	return raw, nil
}
