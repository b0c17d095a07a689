// Package command routes decoded client commands to the peripheral
// registry and serialises the results for the wire.
package command

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hearthlabs/hearth-core/internal/peripheral"
)

// Command types understood by the router, matched case-insensitively.
const (
	TypeListDevices      = "LIST_DEVICES"
	TypeGetAllData       = "GET_ALL_DATA"
	TypeGetAllSensorData = "GET_ALL_SENSOR_DATA"
	TypeControl          = "CONTROL"
)

// Envelope is the wire shape of a client command.
type Envelope struct {
	CommandType string `json:"commandType"`
	DeviceID    string `json:"deviceId"`
	Data        string `json:"data"`
}

// Registry is the slice of the peripheral registry the router needs.
type Registry interface {
	List() []peripheral.Info
	AllData(ctx context.Context) []peripheral.Reading
	AllSensorData(ctx context.Context) []peripheral.Reading
	Dispatch(ctx context.Context, id, payload string) string
}

// Logger is the minimal logging interface the package depends on.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Router decodes raw command text and executes it against the registry.
type Router struct {
	registry Registry
	logger   Logger
}

// NewRouter returns a router over the given registry.
func NewRouter(registry Registry, logger Logger) *Router {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Router{registry: registry, logger: logger}
}

// Handle executes one raw command and returns the serialised result.
// Every failure path, from unparseable input to an unreachable device,
// collapses to the empty string so transports can substitute their own
// rejection message.
func (r *Router) Handle(ctx context.Context, raw string) string {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		r.logger.Warn("unparseable command", "error", err)
		return ""
	}

	switch strings.ToUpper(env.CommandType) {
	case TypeListDevices:
		return r.marshal(r.registry.List())
	case TypeGetAllData:
		return r.marshal(r.registry.AllData(ctx))
	case TypeGetAllSensorData:
		return r.marshal(r.registry.AllSensorData(ctx))
	case TypeControl:
		return r.registry.Dispatch(ctx, env.DeviceID, env.Data)
	default:
		r.logger.Warn("unknown command type", "command_type", env.CommandType)
		return ""
	}
}

func (r *Router) marshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("failed to encode command result", "error", err)
		return ""
	}
	return string(data)
}
