package peripheral

import (
	"context"
	"fmt"
	"strings"
)

// Command types accepted by relays.
const (
	CmdSetOn  = "SET_ON"
	CmdSetOff = "SET_OFF"
)

// Relay drives a two-state switch endpoint. Commands map onto the
// device's HIGH/LOW pin vocabulary.
type Relay struct {
	endpoint
	recorder Recorder
}

func (r *Relay) Kind() Kind { return KindRelay }

func (r *Relay) Sensor() bool { return false }

func (r *Relay) State(ctx context.Context) (string, error) {
	raw, fields, err := r.fetch(ctx)
	if err != nil {
		return "", err
	}
	isOn, ok := boolField(fields, "isOn")
	if !ok {
		return "", fmt.Errorf("%w: missing isOn", ErrMalformedResponse)
	}

	if r.recorder != nil {
		state := 0.0
		if isOn {
			state = 1.0
		}
		if err := r.recorder.RecordReading(ctx, KindRelay, r.cfg.ID, state); err != nil {
			r.logger.Warn("failed to record relay reading", "peripheral_id", r.cfg.ID, "error", err)
		}
	}
	return raw, nil
}

func (r *Relay) Apply(ctx context.Context, req Request) error {
	switch strings.ToUpper(req.Type) {
	case CmdSetOn:
		return r.post(ctx, "HIGH")
	case CmdSetOff:
		return r.post(ctx, "LOW")
	default:
		return fmt.Errorf("%w: unknown command type %q", ErrBadCommand, req.Type)
	}
}
