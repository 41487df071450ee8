package mqtt

import (
	"encoding/json"
	"fmt"
)

// Publish sends a message to the specified topic.
//
// Parameters:
//   - topic: Full topic string
//   - payload: Message payload (typically JSON)
//   - retained: Whether the broker should retain the message
//
// Returns:
//   - error: If not connected or publish times out
func (c *Client) Publish(topic string, payload []byte, retained bool) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, byte(c.cfg.QoS), retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: topic %s", ErrPublishTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}

	return nil
}

// PublishJSON marshals a value to JSON and publishes it.
//
// Vendor command topics are never retained, so retained is always false here.
//
// Parameters:
//   - topic: Full topic string
//   - value: Value to marshal as the payload
//
// Returns:
//   - error: If marshalling fails, not connected, or publish times out
func (c *Client) PublishJSON(topic string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshalling payload for %s: %w", topic, err)
	}
	return c.Publish(topic, payload, false)
}
