package peripheral

import "context"

// Kind is the canonical device category name. It appears in listings,
// lifecycle events and aggregation requests.
type Kind string

const (
	KindLEDControl         Kind = "LedControl"
	KindGasSensor          Kind = "GasSensor"
	KindTemperatureSensor  Kind = "TemperatureSensor"
	KindRelay              Kind = "Relay"
	KindTemperatureControl Kind = "TemperatureControl"
)

// Config is one persisted peripheral entry. The kind tag is matched
// case-insensitively by the factory.
type Config struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Address string `json:"address"`
}

// Request is a parsed control command for a single peripheral.
type Request struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Info is a listing entry for a registered peripheral.
type Info struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
}

// Reading pairs a peripheral with the raw state document it returned.
type Reading struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

// Peripheral is the capability every registered device exposes.
type Peripheral interface {
	ID() string
	Kind() Kind
	Config() Config

	// Sensor reports whether the peripheral is read-only. Sensors are
	// included in sensor-only data sweeps and never accept commands.
	Sensor() bool

	// State reads the device's current state document. The returned
	// string is the device's own JSON body, passed through verbatim.
	State(ctx context.Context) (string, error)

	// BatteryLevel is the level sampled when the peripheral was built.
	BatteryLevel() int
}

// Control is the command capability of actuator peripherals.
type Control interface {
	Peripheral

	// Apply executes one command against the device. Unknown command
	// types are reported via ErrBadCommand and leave state untouched.
	Apply(ctx context.Context, req Request) error
}

// Recorder receives successful state readings for historical storage.
// Implementations must tolerate concurrent calls.
type Recorder interface {
	RecordReading(ctx context.Context, kind Kind, id string, value float64) error
}

// Notifier observes registry lifecycle changes.
type Notifier interface {
	PeripheralAdded(id string, kind Kind)
	PeripheralRemoved(id string)
}

// Logger is the minimal logging interface the package depends on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
