package telemetry

import (
	"errors"
	"testing"
	"time"
)

func TestParseMessage(t *testing.T) {
	payload := []byte(`{
		"timestamp": 1717000000,
		"properties": {"electricLevel": 87, "solarInputPower": 245},
		"packData": [{"sn": "AO4E123456", "socLevel": 87}]
	}`)

	msg, err := ParseMessage(payload)
	if err != nil {
		t.Fatalf("ParseMessage() error: %v", err)
	}
	if msg.Timestamp != 1717000000 {
		t.Errorf("Timestamp = %d, want 1717000000", msg.Timestamp)
	}
	if len(msg.Properties) != 2 {
		t.Errorf("Properties = %v, want 2 entries", msg.Properties)
	}
	if len(msg.Packs) != 1 || msg.Packs[0]["sn"] != "AO4E123456" {
		t.Errorf("Packs = %v, want one entry with sn", msg.Packs)
	}
}

func TestParseMessageMalformed(t *testing.T) {
	_, err := ParseMessage([]byte(`{not json`))
	if !errors.Is(err, ErrParse) {
		t.Errorf("ParseMessage(malformed) error = %v, want ErrParse", err)
	}
}

func TestParseMessageEmptyObject(t *testing.T) {
	msg, err := ParseMessage([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParseMessage({}) error: %v", err)
	}
	if msg.Timestamp != 0 || msg.Properties != nil || msg.Packs != nil {
		t.Errorf("ParseMessage({}) = %+v, want zero message", msg)
	}
}

func TestClassifyStaleness(t *testing.T) {
	now := time.Unix(1717000000, 0)

	tests := []struct {
		name      string
		timestamp int64
		threshold time.Duration
		want      Connectivity
		wantOK    bool
	}{
		{"fresh", now.Unix() - 10, 300 * time.Second, Connected, true},
		{"exactly at threshold", now.Unix() - 300, 300 * time.Second, Connected, true},
		{"stale", now.Unix() - 301, 300 * time.Second, Disconnected, true},
		{"no timestamp", 0, 300 * time.Second, "", false},
		{"zero threshold uses default", now.Unix() - 400, 0, Disconnected, true},
		{"zero threshold fresh", now.Unix() - 100, 0, Connected, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyStaleness(tt.timestamp, now, tt.threshold)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ClassifyStaleness() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
