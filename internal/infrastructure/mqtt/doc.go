// Package mqtt publishes hub telemetry to an MQTT broker: peripheral
// lifecycle events and the hub's own online/offline status. The hub is
// publish-only; nothing is consumed from the broker.
package mqtt
