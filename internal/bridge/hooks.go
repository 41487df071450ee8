package bridge

import (
	"context"

	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/logging"
	"github.com/fluxlink/solarflow-bridge/internal/state"
)

// Pack voltages around these marks decide the low-voltage block. The
// engage mark is just above the cell cutoff the vendor firmware uses;
// release waits for a recovery margin so the block does not flap.
const (
	lowVoltageEngage  = 46.1
	lowVoltageRelease = 47.0
)

// Hooks receives the side effects the normalizers detect. Hook
// implementations must not block; they run on the message path.
type Hooks interface {
	// EnergyMaxCapture fires when a solar-capable device reports a
	// full battery.
	EnergyMaxCapture(ctx context.Context, deviceKey string)

	// ResetSocToZero fires when a device drains to its discharge floor.
	ResetSocToZero(ctx context.Context, deviceKey string)

	// VoltageCheck fires for every pack total-voltage reading on
	// solarflow-like devices.
	VoltageCheck(ctx context.Context, deviceKey string, volts float64)

	// ForcedLogout fires when the broker pushes a forced-logout topic.
	ForcedLogout(ctx context.Context)
}

type noopHooks struct{}

func (noopHooks) EnergyMaxCapture(context.Context, string)        {}
func (noopHooks) ResetSocToZero(context.Context, string)          {}
func (noopHooks) VoltageCheck(context.Context, string, float64)   {}
func (noopHooks) ForcedLogout(context.Context)                    {}

// Supervisor is the default Hooks implementation.
//
// Its one real responsibility is voltage supervision: a pack voltage at
// or below the engage mark raises control.lowVoltageBlock and flags a
// full charge; recovery above the release mark clears the block. The
// fullChargeNeeded flag stays up until telemetry reports a full
// battery, which the normalizer clears itself. The energy hooks are
// surfaced for an external energy calculator and only logged here.
type Supervisor struct {
	store    state.Store
	logger   *logging.Logger
	onLogout func()
}

// NewSupervisor builds a Supervisor.
//
// Parameters:
//   - store: State store holding the control flags
//   - logger: Structured logger, nil for a default
//   - onLogout: Called on a forced logout, nil to ignore
func NewSupervisor(store state.Store, logger *logging.Logger, onLogout func()) *Supervisor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Supervisor{
		store:    store,
		logger:   logger.With("component", "supervisor"),
		onLogout: onLogout,
	}
}

func (s *Supervisor) EnergyMaxCapture(ctx context.Context, deviceKey string) {
	s.logger.Info("battery full, energy maximum reached", "device_key", deviceKey)
}

func (s *Supervisor) ResetSocToZero(ctx context.Context, deviceKey string) {
	s.logger.Info("battery at discharge floor", "device_key", deviceKey)
}

func (s *Supervisor) VoltageCheck(ctx context.Context, deviceKey string, volts float64) {
	switch {
	case volts <= lowVoltageEngage:
		blocked, ok, _ := state.Bool(ctx, s.store, deviceKey, state.Control, "lowVoltageBlock")
		if ok && blocked {
			return
		}
		s.logger.Warn("pack voltage low, engaging low voltage block",
			"device_key", deviceKey, "volts", volts)
		s.setFlag(ctx, deviceKey, "lowVoltageBlock", true)
		s.setFlag(ctx, deviceKey, "fullChargeNeeded", true)

	case volts >= lowVoltageRelease:
		blocked, ok, _ := state.Bool(ctx, s.store, deviceKey, state.Control, "lowVoltageBlock")
		if !ok || !blocked {
			return
		}
		s.logger.Info("pack voltage recovered, releasing low voltage block",
			"device_key", deviceKey, "volts", volts)
		s.setFlag(ctx, deviceKey, "lowVoltageBlock", false)
	}
}

func (s *Supervisor) ForcedLogout(ctx context.Context) {
	s.logger.Warn("broker forced a logout, session needs renewal")
	if s.onLogout != nil {
		s.onLogout()
	}
}

func (s *Supervisor) setFlag(ctx context.Context, deviceKey, field string, value bool) {
	if err := s.store.Set(ctx, deviceKey, state.Control, field, value); err != nil {
		s.logger.Error("storing control flag failed",
			"device_key", deviceKey, "field", field, "error", err)
	}
}
