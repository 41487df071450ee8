package bridge

import (
	"context"

	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/mqtt"
	"github.com/fluxlink/solarflow-bridge/internal/metrics"
	"github.com/fluxlink/solarflow-bridge/internal/telemetry"
)

// HandleMessage processes one inbound broker message. It satisfies
// mqtt.MessageHandler and is the subscription callback for every
// device topic.
//
// A forced-logout topic raises the hook but does not stop processing;
// the same message may still carry telemetry. Unroutable topics and
// malformed payloads drop the whole message, nothing partially applied.
func (b *Bridge) HandleMessage(topic string, payload []byte) error {
	ctx := context.Background()

	if mqtt.IsForcedLogout(topic) {
		b.hooks.ForcedLogout(ctx)
	}

	productKey, deviceKey, err := mqtt.ParseDeviceTopic(topic)
	if err != nil {
		b.metrics.MessagesTotal.WithLabelValues(metrics.ResultRoutingError).Inc()
		b.logger.Warn("dropping unroutable message", "topic", topic, "error", err)
		return err
	}

	msg, err := telemetry.ParseMessage(payload)
	if err != nil {
		b.metrics.MessagesTotal.WithLabelValues(metrics.ResultParseError).Inc()
		b.logger.Warn("dropping malformed payload",
			"topic", topic, "device_key", deviceKey, "error", err)
		return err
	}

	dev := b.telemetryDevice(productKey, deviceKey)

	if conn, ok := telemetry.ClassifyStaleness(msg.Timestamp, b.now(), b.offlineThreshold()); ok {
		b.setConnectivity(ctx, deviceKey, conn)
	}
	b.setCanonical(ctx, deviceKey, "lastUpdate", float64(b.now().UnixMilli()))

	if len(msg.Properties) > 0 {
		reader := newStateReader(ctx, b.store, deviceKey)
		b.applyResult(ctx, deviceKey, b.normalizer.Normalize(dev, reader, msg))
	}
	if len(msg.Packs) > 0 {
		b.applyPacks(ctx, dev, msg.Packs)
	}

	b.metrics.MessagesTotal.WithLabelValues(metrics.ResultProcessed).Inc()
	return nil
}

func (b *Bridge) setConnectivity(ctx context.Context, deviceKey string, conn telemetry.Connectivity) {
	b.setCanonical(ctx, deviceKey, "wifiState", string(conn))
	gauge := 0.0
	if conn == telemetry.Connected {
		gauge = 1
	}
	b.metrics.DeviceConnectivity.WithLabelValues(deviceKey).Set(gauge)
}

// applyResult writes one normalization outcome to the stores and
// dispatches its hooks. Updates apply in order; the normalizer relies
// on last-write-wins for overlapping sources.
func (b *Bridge) applyResult(ctx context.Context, deviceKey string, res *telemetry.Result) {
	for _, u := range res.Updates {
		b.setCanonical(ctx, deviceKey, u.Field, u.Value)
		b.metrics.UpdatesTotal.Inc()

		if n, ok := u.Value.(float64); ok && b.history != nil {
			b.history.WriteTelemetry(deviceKey, u.Field, n)
		}
		if s, ok := u.Value.(string); ok && u.Field == "wifiState" {
			b.setConnectivity(ctx, deviceKey, telemetry.Connectivity(s))
		}
	}
	for _, u := range res.Control {
		b.setControl(ctx, deviceKey, u.Field, u.Value)
	}
	for _, h := range res.Hooks {
		b.dispatchHook(ctx, deviceKey, h)
	}
	for _, diag := range res.Diagnostics {
		b.metrics.UnknownPropertiesTotal.Inc()
		b.logger.Debug("unknown telemetry property",
			"device_key", deviceKey, "property", diag)
	}
}

// applyPacks normalizes and stores battery pack telemetry, registering
// newly observed packs on the way.
func (b *Bridge) applyPacks(ctx context.Context, dev telemetry.Device, packs []map[string]any) {
	res := telemetry.NormalizePacks(dev, packs)

	for _, serial := range res.Serials {
		packType, isNew := b.registry.RegisterPack(dev.DeviceKey, dev.ProductKey, serial)
		if !isNew {
			continue
		}
		b.metrics.PacksRegistered.Inc()
		b.logger.Info("battery pack registered",
			"device_key", dev.DeviceKey, "serial", serial, "model", string(packType))
		if packType != "" {
			b.setCanonical(ctx, dev.DeviceKey, packField(serial, "model"), string(packType))
		}
	}

	for _, u := range res.Updates {
		b.setCanonical(ctx, dev.DeviceKey, packField(u.Serial, u.Field), u.Value)
		b.metrics.UpdatesTotal.Inc()
		if b.history != nil {
			b.history.WritePackTelemetry(dev.DeviceKey, u.Serial, u.Field, u.Value)
		}
	}
	for _, h := range res.Hooks {
		b.dispatchHook(ctx, dev.DeviceKey, h)
	}
	for _, diag := range res.Diagnostics {
		b.metrics.UnknownPropertiesTotal.Inc()
		b.logger.Debug("unknown pack property",
			"device_key", dev.DeviceKey, "property", diag)
	}
}

func (b *Bridge) dispatchHook(ctx context.Context, deviceKey string, h telemetry.Hook) {
	b.metrics.HooksTotal.WithLabelValues(string(h.Kind)).Inc()
	switch h.Kind {
	case telemetry.HookEnergyMaxCapture:
		b.hooks.EnergyMaxCapture(ctx, deviceKey)
	case telemetry.HookResetSocToZero:
		b.hooks.ResetSocToZero(ctx, deviceKey)
	case telemetry.HookVoltageCheck:
		b.hooks.VoltageCheck(ctx, deviceKey, h.Value)
	}
}

// packField namespaces a pack reading under its serial.
func packField(serial, field string) string {
	return "packData." + serial + "." + field
}
