package mqtt

import "errors"

// Sentinel errors for MQTT operations.
// Use errors.Is to check for these conditions.
var (
	// ErrConnectionFailed indicates the initial broker connection failed.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrNotConnected indicates an operation was attempted while disconnected.
	ErrNotConnected = errors.New("mqtt: not connected")

	// ErrPublishTimeout indicates a publish did not complete in time.
	ErrPublishTimeout = errors.New("mqtt: publish timeout")

	// ErrSubscribeTimeout indicates a subscribe did not complete in time.
	ErrSubscribeTimeout = errors.New("mqtt: subscribe timeout")

	// ErrInvalidTopic indicates a topic string that does not match the
	// vendor's device topic layout.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")
)
