package telemetry

import (
	"encoding/json"
	"fmt"
)

// Message is a decoded inbound telemetry payload.
type Message struct {
	// Timestamp is the device's message time in unix seconds, zero if absent.
	Timestamp int64

	// Properties holds the raw property map, nil if absent.
	Properties map[string]any

	// Packs holds raw per-pack property maps from packData, nil if absent.
	Packs []map[string]any
}

// ParseMessage decodes a raw MQTT payload.
//
// Returns ErrParse (wrapped) for malformed JSON. Structurally
// unexpected but valid JSON decodes to an empty message rather than
// failing; unknown content surfaces later as diagnostics.
func ParseMessage(payload []byte) (*Message, error) {
	var raw struct {
		Timestamp  int64            `json:"timestamp"`
		Properties map[string]any   `json:"properties"`
		PackData   []map[string]any `json:"packData"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	return &Message{
		Timestamp:  raw.Timestamp,
		Properties: raw.Properties,
		Packs:      raw.PackData,
	}, nil
}
