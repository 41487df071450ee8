package mqtt

import (
	"fmt"
	"strings"
)

// Topics builds the vendor topic strings used by the bridge.
//
// The vendor broker uses two parallel topic trees per device:
//
//	/{productKey}/{deviceKey}/...      report tree (telemetry pushed by device)
//	iot/{productKey}/{deviceKey}/...   iot tree (property reads and writes)
//
// Smart plugs additionally publish on an app-scoped tree:
//
//	/server/app/{userId}/{deviceId}/smart/power
type Topics struct{}

// SystemStatus returns the bridge's own status topic (LWT target).
func (Topics) SystemStatus() string {
	return "solarbridge/system/status"
}

// DeviceReport returns the wildcard subscription for a device's report tree.
func (Topics) DeviceReport(productKey, deviceKey string) string {
	return fmt.Sprintf("/%s/%s/#", productKey, deviceKey)
}

// DeviceIot returns the wildcard subscription for a device's iot tree.
func (Topics) DeviceIot(productKey, deviceKey string) string {
	return fmt.Sprintf("iot/%s/%s/#", productKey, deviceKey)
}

// PropertiesWrite returns the topic for property write commands.
func (Topics) PropertiesWrite(productKey, deviceKey string) string {
	return fmt.Sprintf("iot/%s/%s/properties/write", productKey, deviceKey)
}

// PropertiesRead returns the topic for requesting a full property report.
func (Topics) PropertiesRead(productKey, deviceKey string) string {
	return fmt.Sprintf("iot/%s/%s/properties/read", productKey, deviceKey)
}

// SmartPlugPower returns the app-scoped power topic for a smart plug.
func (Topics) SmartPlugPower(userID, deviceID string) string {
	return fmt.Sprintf("/server/app/%s/%s/smart/power", userID, deviceID)
}

// ParseDeviceTopic extracts the product key and device key from an
// inbound topic.
//
// The app-scoped "/server/app" prefix is stripped first, so smart plug
// topics yield their user ID and device ID in the same positions. Both
// report-tree and iot-tree topics parse the same way.
//
// Returns:
//   - productKey, deviceKey: The extracted identifiers
//   - error: ErrInvalidTopic if either segment is missing or empty
func ParseDeviceTopic(topic string) (productKey, deviceKey string, err error) {
	trimmed := strings.Replace(topic, "/server/app", "", 1)
	parts := strings.Split(trimmed, "/")
	if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	return parts[1], parts[2], nil
}

// IsForcedLogout reports whether a topic signals a forced logout of the
// cloud session. The vendor publishes this when the same account logs in
// elsewhere.
func IsForcedLogout(topic string) bool {
	return strings.Contains(strings.ToLower(topic), "loginout/force")
}
