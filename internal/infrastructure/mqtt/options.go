package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/config"
)

// Connection timing constants.
const (
	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultSubscribeTimeout  = 5 * time.Second
	defaultDisconnectQuiesce = 250 // milliseconds
	defaultKeepAlive         = 30 * time.Second
	defaultPingTimeout       = 10 * time.Second
)

// buildClientOptions creates paho client options from configuration.
//
// The configured client ID gets a random suffix so that multiple bridge
// instances (or a restart racing its own half-closed session) never
// steal each other's broker session.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))

	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.Broker.ClientID, uuid.NewString()[:8]))

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Reconnection behaviour: paho handles exponential backoff internally
	// between the configured bounds.
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetKeepAlive(defaultKeepAlive)
	opts.SetPingTimeout(defaultPingTimeout)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(false)

	return opts
}

// configureLWT sets up the Last Will and Testament message.
//
// If the bridge crashes or loses connection without a clean disconnect,
// the broker publishes this retained offline status on its behalf.
func configureLWT(opts *pahomqtt.ClientOptions, clientID string) {
	topic := Topics{}.SystemStatus()
	payload := buildLWTPayload(clientID)
	opts.SetWill(topic, string(payload), 1, true)
}

// statusPayload is the JSON body published to the system status topic.
type statusPayload struct {
	State     string `json:"state"`
	ClientID  string `json:"client_id"`
	Timestamp int64  `json:"timestamp"`
	Reason    string `json:"reason,omitempty"`
}

// buildOnlinePayload creates the online status message.
func buildOnlinePayload(clientID string) []byte {
	data, _ := json.Marshal(statusPayload{
		State:     "online",
		ClientID:  clientID,
		Timestamp: time.Now().Unix(),
	})
	return data
}

// buildOfflinePayload creates the graceful offline status message.
func buildOfflinePayload(clientID string) []byte {
	data, _ := json.Marshal(statusPayload{
		State:     "offline",
		ClientID:  clientID,
		Timestamp: time.Now().Unix(),
		Reason:    "shutdown",
	})
	return data
}

// buildLWTPayload creates the ungraceful offline status message.
// The timestamp is the connect time; the broker fills in nothing.
func buildLWTPayload(clientID string) []byte {
	data, _ := json.Marshal(statusPayload{
		State:     "offline",
		ClientID:  clientID,
		Timestamp: time.Now().Unix(),
		Reason:    "connection_lost",
	})
	return data
}
