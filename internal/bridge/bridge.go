package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fluxlink/solarflow-bridge/internal/device"
	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/config"
	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/logging"
	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/mqtt"
	"github.com/fluxlink/solarflow-bridge/internal/metrics"
	"github.com/fluxlink/solarflow-bridge/internal/state"
	"github.com/fluxlink/solarflow-bridge/internal/telemetry"
)

// Publisher is the slice of the MQTT client the bridge uses.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
	Subscribe(topic string, handler mqtt.MessageHandler) error
}

// HistoryWriter forwards telemetry to long-term storage. Writes are
// fire-and-forget; the implementation owns batching and retries.
type HistoryWriter interface {
	WriteTelemetry(deviceKey, field string, value float64)
	WritePackTelemetry(deviceKey, packSerial, field string, value float64)
	WriteCommand(deviceKey, property string, value float64)
}

// Options configures a Bridge.
type Options struct {
	Config   config.BridgeConfig
	Pub      Publisher
	Store    state.Store
	Registry *device.Registry

	// History is optional; nil disables history forwarding.
	History HistoryWriter

	// Hooks is optional; nil discards side effects.
	Hooks Hooks

	// Metrics is optional; nil registers into a private registry.
	Metrics *metrics.Metrics

	Logger *logging.Logger
}

// Bridge routes telemetry between the broker, the normalizers, and the
// state store.
type Bridge struct {
	cfg        config.BridgeConfig
	pub        Publisher
	store      state.Store
	registry   *device.Registry
	normalizer *telemetry.Normalizer
	history    HistoryWriter
	hooks      Hooks
	metrics    *metrics.Metrics
	logger     *logging.Logger
	topics     mqtt.Topics

	// now is swappable for tests.
	now func() time.Time

	aceMu            sync.RWMutex
	connectedWithAce map[string]bool
}

// New creates a Bridge.
func New(opts Options) *Bridge {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	hooks := opts.Hooks
	if hooks == nil {
		hooks = noopHooks{}
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}

	return &Bridge{
		cfg:              opts.Config,
		pub:              opts.Pub,
		store:            opts.Store,
		registry:         opts.Registry,
		normalizer:       &telemetry.Normalizer{UseCalculation: opts.Config.UseCalculation},
		history:          opts.History,
		hooks:            hooks,
		metrics:          m,
		logger:           logger.With("component", "bridge"),
		now:              time.Now,
		connectedWithAce: make(map[string]bool),
	}
}

// MarkConnectedWithAce records that a hub feeds through an ACE unit,
// which changes its standby power compensation.
func (b *Bridge) MarkConnectedWithAce(deviceKey string) {
	b.aceMu.Lock()
	b.connectedWithAce[deviceKey] = true
	b.aceMu.Unlock()
}

func (b *Bridge) isConnectedWithAce(deviceKey string) bool {
	b.aceMu.RLock()
	defer b.aceMu.RUnlock()
	return b.connectedWithAce[deviceKey]
}

// telemetryDevice assembles the per-device context the normalizer
// needs. An unregistered device still processes; family rules then run
// with an empty product name.
func (b *Bridge) telemetryDevice(productKey, deviceKey string) telemetry.Device {
	return telemetry.Device{
		ProductKey:       productKey,
		DeviceKey:        deviceKey,
		ProductName:      b.registry.ProductName(deviceKey),
		ConnectedWithAce: b.isConnectedWithAce(deviceKey),
	}
}

func (b *Bridge) offlineThreshold() time.Duration {
	return time.Duration(b.cfg.OfflineThresholdSeconds) * time.Second
}

func (b *Bridge) setCanonical(ctx context.Context, deviceKey, field string, value any) {
	if err := b.store.Set(ctx, deviceKey, state.Canonical, field, value); err != nil {
		b.logger.Error("storing canonical value failed",
			"device_key", deviceKey, "field", field, "error", err)
	}
}

func (b *Bridge) setControl(ctx context.Context, deviceKey, field string, value any) {
	if err := b.store.Set(ctx, deviceKey, state.Control, field, value); err != nil {
		b.logger.Error("storing control value failed",
			"device_key", deviceKey, "field", field, "error", err)
	}
}
