package peripheral

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
)

// Factory builds peripherals from persisted configuration entries. One
// shared HTTP client backs every networked peripheral it produces.
type Factory struct {
	timeout  time.Duration
	client   *http.Client
	recorder Recorder
	logger   Logger
}

// FactoryOptions configures a Factory. Zero values fall back to a two
// second call timeout, no recorder and no logging.
type FactoryOptions struct {
	CallTimeout time.Duration
	Recorder    Recorder
	Logger      Logger
}

// NewFactory returns a factory using the given options.
func NewFactory(opts FactoryOptions) *Factory {
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Factory{
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
		recorder: opts.Recorder,
		logger:   logger,
	}
}

// Create builds the peripheral described by cfg. The kind tag is matched
// case-insensitively; an unrecognised tag yields ErrUnknownKind.
func (f *Factory) Create(cfg Config) (Peripheral, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "led":
		return &LED{endpoint: f.endpoint(cfg), recorder: f.recorder}, nil
	case "relay":
		return &Relay{endpoint: f.endpoint(cfg), recorder: f.recorder}, nil
	case "gassensor":
		return &GasSensor{endpoint: f.endpoint(cfg)}, nil
	case "temperaturesensor":
		return &TemperatureSensor{endpoint: f.endpoint(cfg), recorder: f.recorder}, nil
	case "temperaturecontrol":
		return &TemperatureControl{
			cfg:      cfg,
			battery:  sampleBattery(),
			logger:   f.logger,
			setpoint: initialSetpoint(),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}

func (f *Factory) endpoint(cfg Config) endpoint {
	return endpoint{
		cfg:     cfg,
		battery: sampleBattery(),
		timeout: f.timeout,
		client:  f.client,
		logger:  f.logger,
	}
}

// sampleBattery fakes a battery level for devices that do not report one.
func sampleBattery() int {
	return rand.IntN(100)
}
