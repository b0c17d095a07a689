package mqtt

import (
	"encoding/json"
	"time"

	"github.com/hearthlabs/hearth-core/internal/peripheral"
)

// Logger is the minimal logging interface event publishing depends on.
type Logger interface {
	Warn(msg string, args ...any)
}

// EventPublisher forwards peripheral lifecycle events to the broker. It
// satisfies the registry's notifier contract; publish failures are
// logged and never propagate back into registry mutations.
type EventPublisher struct {
	client *Client
	logger Logger
}

// NewEventPublisher returns a publisher over the given client.
func NewEventPublisher(client *Client, logger Logger) *EventPublisher {
	return &EventPublisher{client: client, logger: logger}
}

func (p *EventPublisher) PeripheralAdded(id string, kind peripheral.Kind) {
	p.publish("peripheralAdded", map[string]any{"uuid": id, "kind": kind})
}

func (p *EventPublisher) PeripheralRemoved(id string) {
	p.publish("peripheralRemoved", map[string]any{"uuid": id})
}

func (p *EventPublisher) publish(event string, data map[string]any) {
	payload, err := json.Marshal(map[string]any{
		"type":      event,
		"data":      data,
		"timestamp": time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}
	if err := p.client.PublishJSON(Topics{}.PeripheralEvents(), payload); err != nil {
		if p.logger != nil {
			p.logger.Warn("failed to publish peripheral event", "event", event, "error", err)
		}
	}
}
