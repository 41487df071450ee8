// Package mqtt provides the MQTT transport for Solarflow Bridge.
//
// It wraps paho.mqtt.golang with connection management, tracked
// subscriptions that survive reconnects, a Last Will and Testament on
// the bridge status topic, and panic-safe message handlers.
//
// The package also owns the vendor topic layout: builders for the
// report and iot topic trees, and ParseDeviceTopic for extracting
// product and device keys from inbound topics.
package mqtt
