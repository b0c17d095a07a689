package peripheral

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
)

// Command types accepted by thermostat controls.
const (
	CmdSetTemperature      = "SET_TEMPERATURE"
	CmdIncreaseTemperature = "INCREASE_TEMPERATURE"
	CmdDecreaseTemperature = "DECREASE_TEMPERATURE"
)

// TemperatureControl is a local simulated thermostat. It keeps its
// setpoint in memory and never performs network I/O, which makes it
// useful for driving a deployment without real hardware attached.
type TemperatureControl struct {
	cfg     Config
	battery int
	logger  Logger

	mu       sync.Mutex
	setpoint int
}

func (t *TemperatureControl) ID() string { return t.cfg.ID }

func (t *TemperatureControl) Kind() Kind { return KindTemperatureControl }

func (t *TemperatureControl) Config() Config { return t.cfg }

func (t *TemperatureControl) Sensor() bool { return false }

func (t *TemperatureControl) BatteryLevel() int { return t.battery }

func (t *TemperatureControl) State(context.Context) (string, error) {
	t.mu.Lock()
	setpoint := t.setpoint
	t.mu.Unlock()

	body, err := json.Marshal(map[string]int{
		"temperature":  setpoint,
		"batteryLevel": t.battery,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return string(body), nil
}

func (t *TemperatureControl) Apply(_ context.Context, req Request) error {
	switch strings.ToUpper(req.Type) {
	case CmdSetTemperature:
		target, err := strconv.Atoi(req.Value)
		if err != nil {
			return fmt.Errorf("%w: unusable temperature %q", ErrBadCommand, req.Value)
		}
		t.mu.Lock()
		t.setpoint = target
		t.mu.Unlock()
		return nil
	case CmdIncreaseTemperature:
		t.shift(1)
		return nil
	case CmdDecreaseTemperature:
		t.shift(-1)
		return nil
	default:
		return fmt.Errorf("%w: unknown command type %q", ErrBadCommand, req.Type)
	}
}

func (t *TemperatureControl) shift(delta int) {
	t.mu.Lock()
	t.setpoint += delta
	t.mu.Unlock()
}

// initialSetpoint picks a plausible starting temperature in degrees C.
func initialSetpoint() int {
	return 18 + rand.IntN(13)
}
