package peripheral

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Command types accepted by dimmable lights.
const (
	CmdSetBrightness      = "SET_BRIGHTNESS"
	CmdIncreaseBrightness = "INCREASE_BRIGHTNESS"
	CmdDecreaseBrightness = "DECREASE_BRIGHTNESS"
)

// LED drives a dimmable light endpoint. Relative brightness commands are
// computed from the last brightness observed by State, so a successful
// read must precede them.
type LED struct {
	endpoint
	recorder Recorder

	mu            sync.Mutex
	lastBrightness string
	haveBrightness bool
}

func (l *LED) Kind() Kind { return KindLEDControl }

func (l *LED) Sensor() bool { return false }

func (l *LED) State(ctx context.Context) (string, error) {
	raw, fields, err := l.fetch(ctx)
	if err != nil {
		return "", err
	}
	brightness, ok := numericField(fields, "brightness")
	if !ok {
		return "", fmt.Errorf("%w: missing brightness", ErrMalformedResponse)
	}

	l.mu.Lock()
	l.lastBrightness = strconv.Itoa(int(brightness))
	l.haveBrightness = true
	l.mu.Unlock()

	if l.recorder != nil {
		if err := l.recorder.RecordReading(ctx, KindLEDControl, l.cfg.ID, brightness); err != nil {
			l.logger.Warn("failed to record brightness reading", "peripheral_id", l.cfg.ID, "error", err)
		}
	}
	return raw, nil
}

func (l *LED) Apply(ctx context.Context, req Request) error {
	switch strings.ToUpper(req.Type) {
	case CmdSetBrightness:
		return l.post(ctx, req.Value)
	case CmdIncreaseBrightness:
		return l.step(ctx, 1)
	case CmdDecreaseBrightness:
		return l.step(ctx, -1)
	default:
		return fmt.Errorf("%w: unknown command type %q", ErrBadCommand, req.Type)
	}
}

func (l *LED) step(ctx context.Context, delta int) error {
	l.mu.Lock()
	have := l.haveBrightness
	last := l.lastBrightness
	l.mu.Unlock()

	if !have {
		return fmt.Errorf("%w: brightness not yet observed", ErrBadCommand)
	}
	current, err := strconv.Atoi(last)
	if err != nil {
		return fmt.Errorf("%w: unusable brightness %q", ErrBadCommand, last)
	}
	return l.post(ctx, strconv.Itoa(current+delta))
}
