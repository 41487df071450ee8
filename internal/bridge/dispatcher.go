package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/fluxlink/solarflow-bridge/internal/command"
	"github.com/fluxlink/solarflow-bridge/internal/device"
	"github.com/fluxlink/solarflow-bridge/internal/metrics"
)

// Dispatcher publishes control commands.
//
// Clampers read the current state and then decide whether to publish.
// Two concurrent requests for the same device property could both read
// the same stale value and both publish, so the read-then-publish
// sequence is serialized with a mutex per (device, property) pair.
// Different properties and different devices proceed in parallel.
type Dispatcher struct {
	bridge  *Bridge
	clamper *command.Clamper

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDispatcher creates the command dispatcher for this bridge.
func (b *Bridge) NewDispatcher(clamper *command.Clamper) *Dispatcher {
	return &Dispatcher{
		bridge:  b,
		clamper: clamper,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Execute runs the command for a control property by name, with the
// value as it arrived from JSON. This is the entry point for the HTTP
// control endpoint.
func (d *Dispatcher) Execute(ctx context.Context, productKey, deviceKey, property string, value any) error {
	switch property {
	case "setInputLimit":
		n, err := requireNumber(property, value)
		if err != nil {
			return err
		}
		return d.SetInputLimit(ctx, productKey, deviceKey, n)
	case "setOutputLimit":
		n, err := requireNumber(property, value)
		if err != nil {
			return err
		}
		return d.SetOutputLimit(ctx, productKey, deviceKey, n)
	case "chargeLimit":
		n, err := requireNumber(property, value)
		if err != nil {
			return err
		}
		return d.SetChargeLimit(ctx, productKey, deviceKey, n)
	case "dischargeLimit":
		n, err := requireNumber(property, value)
		if err != nil {
			return err
		}
		return d.SetDischargeLimit(ctx, productKey, deviceKey, n)
	case "hubState":
		n, err := requireNumber(property, value)
		if err != nil {
			return err
		}
		return d.SetHubState(ctx, productKey, deviceKey, int(n))
	case "acMode":
		n, err := requireNumber(property, value)
		if err != nil {
			return err
		}
		return d.SetACMode(ctx, productKey, deviceKey, int(n))
	case "autoModel":
		n, err := requireNumber(property, value)
		if err != nil {
			return err
		}
		return d.SetAutoModel(ctx, productKey, deviceKey, int(n))
	case "passMode":
		n, err := requireNumber(property, value)
		if err != nil {
			return err
		}
		return d.SetPassMode(ctx, productKey, deviceKey, int(n))
	case command.ToggleBuzzer, command.ToggleAutoRecover, command.ToggleACSwitch, command.ToggleDCSwitch:
		on, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s needs a boolean", command.ErrValidation, property)
		}
		return d.SetToggle(ctx, productKey, deviceKey, property, on)
	}
	return fmt.Errorf("%w: %q is not controllable", command.ErrValidation, property)
}

// SetInputLimit clamps and publishes an input limit.
func (d *Dispatcher) SetInputLimit(ctx context.Context, productKey, deviceKey string, watts float64) error {
	unlock := d.lock(deviceKey, "inputLimit")
	defer unlock()

	cmd, err := d.clamper.InputLimit(
		d.family(productKey, deviceKey),
		newStateReader(ctx, d.bridge.store, deviceKey),
		watts,
	)
	return d.finish(productKey, deviceKey, "inputLimit", cmd, err)
}

// SetOutputLimit clamps and publishes an output limit.
func (d *Dispatcher) SetOutputLimit(ctx context.Context, productKey, deviceKey string, watts float64) error {
	unlock := d.lock(deviceKey, "outputLimit")
	defer unlock()

	cmd, err := d.clamper.OutputLimit(
		d.family(productKey, deviceKey),
		newStateReader(ctx, d.bridge.store, deviceKey),
		watts,
	)
	return d.finish(productKey, deviceKey, "outputLimit", cmd, err)
}

// SetChargeLimit publishes a charge ceiling.
func (d *Dispatcher) SetChargeLimit(ctx context.Context, productKey, deviceKey string, percent float64) error {
	cmd, err := command.ChargeLimit(percent)
	return d.finish(productKey, deviceKey, "socSet", cmd, err)
}

// SetDischargeLimit publishes a discharge floor.
func (d *Dispatcher) SetDischargeLimit(ctx context.Context, productKey, deviceKey string, percent float64) error {
	cmd, err := command.DischargeLimit(percent)
	return d.finish(productKey, deviceKey, "minSoc", cmd, err)
}

// SetHubState publishes the discharge-floor behaviour.
func (d *Dispatcher) SetHubState(ctx context.Context, productKey, deviceKey string, hubState int) error {
	cmd, err := command.HubState(hubState)
	return d.finish(productKey, deviceKey, "hubState", cmd, err)
}

// SetACMode publishes the AC mode.
func (d *Dispatcher) SetACMode(ctx context.Context, productKey, deviceKey string, mode int) error {
	cmd, err := command.ACMode(mode)
	return d.finish(productKey, deviceKey, "acMode", cmd, err)
}

// SetToggle publishes a boolean switch.
func (d *Dispatcher) SetToggle(ctx context.Context, productKey, deviceKey, property string, on bool) error {
	cmd, err := command.Toggle(property, on)
	return d.finish(productKey, deviceKey, property, cmd, err)
}

// SetAutoModel publishes an operation mode change.
func (d *Dispatcher) SetAutoModel(ctx context.Context, productKey, deviceKey string, mode int) error {
	return d.finish(productKey, deviceKey, "autoModel", command.AutoModel(mode), nil)
}

// SetPassMode publishes a bypass mode change.
func (d *Dispatcher) SetPassMode(ctx context.Context, productKey, deviceKey string, mode int) error {
	return d.finish(productKey, deviceKey, "passMode", command.PassMode(mode), nil)
}

// finish is the common tail of every command: count rejections,
// swallow suppressed no-ops, publish the rest.
func (d *Dispatcher) finish(productKey, deviceKey, property string, cmd *command.Command, err error) error {
	b := d.bridge
	if err != nil {
		b.metrics.CommandsTotal.WithLabelValues(metrics.CommandRejected).Inc()
		b.logger.Warn("command rejected",
			"device_key", deviceKey, "property", property, "error", err)
		return err
	}
	if cmd == nil {
		b.metrics.CommandsTotal.WithLabelValues(metrics.CommandSuppressed).Inc()
		b.logger.Debug("command suppressed, no change",
			"device_key", deviceKey, "property", property)
		return nil
	}

	body, err := cmd.Payload()
	if err != nil {
		return fmt.Errorf("command: encoding payload: %w", err)
	}
	topic := b.topics.PropertiesWrite(productKey, deviceKey)
	if err := b.pub.Publish(topic, body, false); err != nil {
		return fmt.Errorf("command: publishing %s: %w", property, err)
	}

	b.metrics.CommandsTotal.WithLabelValues(metrics.CommandPublished).Inc()
	b.logger.Info("command published",
		"device_key", deviceKey, "property", property)

	if b.history != nil {
		if n, ok := commandNumber(cmd.Properties[property]); ok {
			b.history.WriteCommand(deviceKey, property, n)
		}
	}
	return nil
}

func (d *Dispatcher) family(productKey, deviceKey string) device.Family {
	return device.Classify(productKey, d.bridge.registry.ProductName(deviceKey))
}

// lock serializes command processing per (device, property).
func (d *Dispatcher) lock(deviceKey, property string) func() {
	key := deviceKey + "/" + property

	d.mu.Lock()
	m, ok := d.locks[key]
	if !ok {
		m = &sync.Mutex{}
		d.locks[key] = m
	}
	d.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func requireNumber(property string, value any) (float64, error) {
	n, ok := commandNumber(value)
	if !ok {
		return 0, fmt.Errorf("%w: %s needs a number", command.ErrValidation, property)
	}
	return n, nil
}

func commandNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
