package mqtt

import "fmt"

// topicPrefix namespaces every topic the hub publishes.
const topicPrefix = "hearth"

// Topics builds the hub's topic names. A zero value is ready to use.
type Topics struct{}

// SystemStatus is the retained online/offline status topic.
func (Topics) SystemStatus() string {
	return topicPrefix + "/system/status"
}

// PeripheralEvents carries peripheral lifecycle events.
func (Topics) PeripheralEvents() string {
	return topicPrefix + "/events/peripherals"
}

// Reading carries individual readings, one topic per peripheral.
func (Topics) Reading(kind, id string) string {
	return fmt.Sprintf("%s/readings/%s/%s", topicPrefix, kind, id)
}
