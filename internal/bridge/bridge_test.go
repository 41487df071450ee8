package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fluxlink/solarflow-bridge/internal/device"
	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/config"
	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/mqtt"
	"github.com/fluxlink/solarflow-bridge/internal/state"
)

type published struct {
	topic   string
	payload string
}

type fakePublisher struct {
	mu        sync.Mutex
	published []published
	subs      []string
	failSubs  map[string]bool
}

func (f *fakePublisher) Publish(topic string, payload []byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{topic: topic, payload: string(payload)})
	return nil
}

func (f *fakePublisher) Subscribe(topic string, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubs[topic] {
		return context.DeadlineExceeded
	}
	f.subs = append(f.subs, topic)
	return nil
}

func (f *fakePublisher) publishedTopics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	topics := make([]string, len(f.published))
	for i, p := range f.published {
		topics[i] = p.topic
	}
	return topics
}

type fakeRepo struct {
	mu      sync.Mutex
	devices map[string]*device.Device
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{devices: make(map[string]*device.Device)}
}

func (f *fakeRepo) Upsert(ctx context.Context, d *device.Device) error {
	if err := d.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *d
	f.devices[d.Key] = &copied
	return nil
}

func (f *fakeRepo) GetByKey(ctx context.Context, key string) (*device.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.devices[key]
	if !ok {
		return nil, device.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]device.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]device.Device, 0, len(f.devices))
	for _, d := range f.devices {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeRepo) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.devices, key)
	return nil
}

type recordedHooks struct {
	mu        sync.Mutex
	energyMax []string
	socReset  []string
	voltages  []float64
	logouts   int
}

func (r *recordedHooks) EnergyMaxCapture(ctx context.Context, deviceKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.energyMax = append(r.energyMax, deviceKey)
}

func (r *recordedHooks) ResetSocToZero(ctx context.Context, deviceKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.socReset = append(r.socReset, deviceKey)
}

func (r *recordedHooks) VoltageCheck(ctx context.Context, deviceKey string, volts float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voltages = append(r.voltages, volts)
}

func (r *recordedHooks) ForcedLogout(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logouts++
}

type testFixture struct {
	bridge *Bridge
	pub    *fakePublisher
	store  *state.MemoryStore
	hooks  *recordedHooks
}

func newFixture(t *testing.T, cfg config.BridgeConfig) *testFixture {
	t.Helper()

	pub := &fakePublisher{failSubs: make(map[string]bool)}
	store := state.NewMemoryStore()
	hooks := &recordedHooks{}
	registry := device.NewRegistry(newFakeRepo())

	b := New(Options{
		Config:   cfg,
		Pub:      pub,
		Store:    store,
		Registry: registry,
		Hooks:    hooks,
	})
	b.now = func() time.Time { return time.Unix(1717000000, 0) }

	return &testFixture{bridge: b, pub: pub, store: store, hooks: hooks}
}

func (f *testFixture) registerHub(t *testing.T) {
	t.Helper()
	err := f.bridge.registry.Register(context.Background(), &device.Device{
		Key:         "abc123",
		ProductKey:  "73bkTV",
		ProductName: "SolarFlow 800",
	})
	if err != nil {
		t.Fatalf("registering hub: %v", err)
	}
}

func (f *testFixture) canonical(t *testing.T, deviceKey, field string) (any, bool) {
	t.Helper()
	v, ok, err := f.store.Get(context.Background(), deviceKey, state.Canonical, field)
	if err != nil {
		t.Fatalf("reading canonical %s: %v", field, err)
	}
	return v, ok
}

func (f *testFixture) control(t *testing.T, deviceKey, field string) (any, bool) {
	t.Helper()
	v, ok, err := f.store.Get(context.Background(), deviceKey, state.Control, field)
	if err != nil {
		t.Fatalf("reading control %s: %v", field, err)
	}
	return v, ok
}
