package mqtt

import "errors"

var (
	// ErrConnectionFailed indicates the initial broker connection did
	// not succeed.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrNotConnected indicates an operation was attempted while the
	// broker connection is down.
	ErrNotConnected = errors.New("mqtt: not connected")

	// ErrInvalidTopic indicates an empty publish topic.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")

	// ErrInvalidQoS indicates a QoS level outside 0..2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level")

	// ErrPublishFailed indicates a publish was not acknowledged.
	ErrPublishFailed = errors.New("mqtt: publish failed")
)
