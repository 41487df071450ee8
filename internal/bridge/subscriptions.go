package bridge

import (
	"context"
	"strings"
	"time"

	"github.com/fluxlink/solarflow-bridge/internal/cloudapi"
	"github.com/fluxlink/solarflow-bridge/internal/command"
	"github.com/fluxlink/solarflow-bridge/internal/device"
)

// SubscribeDevices registers the account's devices and sets up their
// broker subscriptions, pacing them so a large account does not hammer
// the broker at connect time.
//
// Every device gets its report topic. Smart plugs additionally get the
// user-scoped power topic and skip the iot tree, which they do not
// publish on. Everything else gets the iot tree too; a successful iot
// subscription immediately requests a full telemetry report so state
// fills without waiting for the next spontaneous publish. ACE units
// listed as sub-devices of a hub subscribe like first-class devices and
// mark their hub as fed through an ACE.
//
// Individual subscription failures are logged and skipped; one bad
// device must not take down the rest of the fleet. The only error
// returned is context cancellation.
func (b *Bridge) SubscribeDevices(ctx context.Context, devices []cloudapi.DeviceDetails, userID string) error {
	stagger := time.Duration(b.cfg.SubscribeStaggerMillis) * time.Millisecond

	for _, dev := range devices {
		b.registerDevice(ctx, dev)

		if dev.ProductKey == device.ProductKeySmartPlug {
			if userID != "" && dev.ID.String() != "" {
				b.subscribe(b.topics.SmartPlugPower(userID, dev.ID.String()))
			}
			b.subscribe(b.topics.DeviceReport(dev.ProductKey, dev.DeviceKey))
			if err := pause(ctx, stagger); err != nil {
				return err
			}
			continue
		}

		b.subscribe(b.topics.DeviceReport(dev.ProductKey, dev.DeviceKey))
		if err := pause(ctx, stagger/2); err != nil {
			return err
		}
		b.subscribeIot(dev.ProductKey, dev.DeviceKey)

		for _, sub := range dev.PackList {
			if !strings.EqualFold(sub.ProductName, "ace 1500") {
				continue
			}
			b.MarkConnectedWithAce(dev.DeviceKey)
			b.registerDevice(ctx, sub)
			if err := pause(ctx, stagger/2); err != nil {
				return err
			}
			b.subscribe(b.topics.DeviceReport(sub.ProductKey, sub.DeviceKey))
			b.subscribeIot(sub.ProductKey, sub.DeviceKey)
		}

		if err := pause(ctx, stagger/2); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) registerDevice(ctx context.Context, d cloudapi.DeviceDetails) {
	err := b.registry.Register(ctx, &device.Device{
		Key:         d.DeviceKey,
		ProductKey:  d.ProductKey,
		Serial:      d.SnNumber,
		Name:        d.DeviceName,
		ProductName: d.ProductName,
	})
	if err != nil {
		b.logger.Warn("device registration failed",
			"device_key", d.DeviceKey, "product_key", d.ProductKey, "error", err)
	}
}

func (b *Bridge) subscribe(topic string) {
	if err := b.pub.Subscribe(topic, b.HandleMessage); err != nil {
		b.logger.Warn("subscription failed", "topic", topic, "error", err)
	}
}

// subscribeIot subscribes the iot tree and, once listening, asks the
// device for a full telemetry report.
func (b *Bridge) subscribeIot(productKey, deviceKey string) {
	topic := b.topics.DeviceIot(productKey, deviceKey)
	if err := b.pub.Subscribe(topic, b.HandleMessage); err != nil {
		b.logger.Warn("subscription failed", "topic", topic, "error", err)
		return
	}
	b.RequestRefresh(productKey, deviceKey)
}

// RequestRefresh asks a device to republish all of its properties.
func (b *Bridge) RequestRefresh(productKey, deviceKey string) {
	topic := b.topics.PropertiesRead(productKey, deviceKey)
	if err := b.pub.Publish(topic, command.RefreshPayload(), false); err != nil {
		b.logger.Warn("telemetry refresh request failed",
			"device_key", deviceKey, "error", err)
	}
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
