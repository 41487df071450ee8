package bridge

import (
	"context"

	"github.com/fluxlink/solarflow-bridge/internal/state"
)

// stateReader adapts the state store to the read-only view the
// normalizer and the clampers consume. Lookup errors read as absent;
// a degraded store must not fail telemetry processing.
type stateReader struct {
	ctx       context.Context
	store     state.Store
	deviceKey string
}

func newStateReader(ctx context.Context, store state.Store, deviceKey string) stateReader {
	return stateReader{ctx: ctx, store: store, deviceKey: deviceKey}
}

func (r stateReader) Canonical(field string) (any, bool) {
	v, ok, err := r.store.Get(r.ctx, r.deviceKey, state.Canonical, field)
	if err != nil {
		return nil, false
	}
	return v, ok
}

func (r stateReader) Control(field string) (any, bool) {
	v, ok, err := r.store.Get(r.ctx, r.deviceKey, state.Control, field)
	if err != nil {
		return nil, false
	}
	return v, ok
}
