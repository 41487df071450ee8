package command

import "encoding/json"

// Command is one outbound property write, ready to be rendered for the
// device's properties/write topic.
type Command struct {
	// Properties holds the raw property values to write.
	Properties map[string]any
}

// single builds a one-property command.
func single(property string, value any) *Command {
	return &Command{Properties: map[string]any{property: value}}
}

// Payload renders the wire body: {"properties": {...}}.
func (c *Command) Payload() ([]byte, error) {
	return json.Marshal(map[string]any{"properties": c.Properties})
}

// RefreshPayload is the body of a full telemetry refresh request,
// published to the device's properties/read topic.
func RefreshPayload() []byte {
	return []byte(`{"properties":["getAll"]}`)
}
