package mqtt

import "fmt"

// Subscribe registers a handler for messages matching a topic filter.
//
// The subscription is tracked and automatically restored on reconnect.
// Subscribing again to the same filter replaces the previous handler.
//
// Parameters:
//   - topic: Topic filter (may contain + and # wildcards)
//   - handler: Callback invoked for each matching message
//
// Returns:
//   - error: If not connected or subscribe times out
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Subscribe(topic, byte(c.cfg.QoS), c.wrapHandler(handler))
	if !token.WaitTimeout(defaultSubscribeTimeout) {
		return fmt.Errorf("%w: topic %s", ErrSubscribeTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	c.subMu.Lock()
	c.subscriptions[topic] = subscription{
		topic:   topic,
		qos:     byte(c.cfg.QoS),
		handler: handler,
	}
	c.subMu.Unlock()

	return nil
}

// Unsubscribe removes a subscription and stops tracking it.
//
// Parameters:
//   - topic: The topic filter used when subscribing
//
// Returns:
//   - error: If not connected or unsubscribe fails
func (c *Client) Unsubscribe(topic string) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Unsubscribe(topic)
	if !token.WaitTimeout(defaultSubscribeTimeout) {
		return fmt.Errorf("%w: topic %s", ErrSubscribeTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("unsubscribing from %s: %w", topic, err)
	}

	c.subMu.Lock()
	delete(c.subscriptions, topic)
	c.subMu.Unlock()

	return nil
}

// SubscriptionCount returns the number of tracked subscriptions.
// Intended for health reporting and tests.
func (c *Client) SubscriptionCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscriptions)
}
