package device

import (
	"context"
	"fmt"
	"sync"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides device management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups on
// the telemetry hot path, plus in-memory tracking of discovered battery
// packs per device.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Device // by device key
	cacheMu sync.RWMutex

	packs   map[string]map[string]PackType // device key -> pack serial -> type
	packsMu sync.Mutex

	logger Logger
}

// NewRegistry creates a new device registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Device),
		packs:  make(map[string]map[string]PackType),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all devices from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Device, len(devices))
	for i := range devices {
		d := devices[i]
		r.cache[d.Key] = &d
	}

	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// Register inserts or updates a device and refreshes the cache entry.
// Registering an already-known device is idempotent.
func (r *Registry) Register(ctx context.Context, d *Device) error {
	if err := r.repo.Upsert(ctx, d); err != nil {
		return err
	}

	copied := *d
	r.cacheMu.Lock()
	_, known := r.cache[d.Key]
	r.cache[d.Key] = &copied
	r.cacheMu.Unlock()

	if !known {
		r.logger.Info("device registered",
			"device_key", d.Key,
			"product_key", d.ProductKey,
			"product_name", d.ProductName,
		)
	}
	return nil
}

// Get retrieves a device by its device key.
// Returns ErrNotFound if the device does not exist.
// The returned device is a copy; callers can safely modify it.
func (r *Registry) Get(ctx context.Context, key string) (*Device, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[key]
	r.cacheMu.RUnlock()

	if ok {
		copied := *cached
		return &copied, nil
	}

	d, err := r.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	copied := *d
	r.cacheMu.Lock()
	r.cache[key] = &copied
	r.cacheMu.Unlock()

	return d, nil
}

// List retrieves all devices.
// The returned devices are copies; callers can safely modify them.
func (r *Registry) List(ctx context.Context) ([]Device, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	if len(r.cache) > 0 {
		devices := make([]Device, 0, len(r.cache))
		for _, d := range r.cache {
			devices = append(devices, *d)
		}
		return devices, nil
	}

	return r.repo.List(ctx)
}

// Count returns the number of cached devices.
func (r *Registry) Count() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// ProductName returns the cached product name for a device key, or ""
// if the device is unknown. Used on the telemetry hot path where a full
// Get would be wasteful.
func (r *Registry) ProductName(key string) string {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	if d, ok := r.cache[key]; ok {
		return d.ProductName
	}
	return ""
}

// RegisterPack records a battery pack discovered in telemetry.
// Returns the derived pack type and whether the pack is newly seen.
// Re-registering a known pack is idempotent.
func (r *Registry) RegisterPack(deviceKey, productKey, serial string) (PackType, bool) {
	packType := DerivePackType(productKey, serial)

	r.packsMu.Lock()
	defer r.packsMu.Unlock()

	known, ok := r.packs[deviceKey]
	if !ok {
		known = make(map[string]PackType)
		r.packs[deviceKey] = known
	}
	if _, seen := known[serial]; seen {
		return packType, false
	}
	known[serial] = packType

	r.logger.Info("battery pack discovered",
		"device_key", deviceKey,
		"pack_serial", serial,
		"pack_type", string(packType),
	)
	return packType, true
}

// Packs returns the discovered packs for a device as serial -> type.
func (r *Registry) Packs(deviceKey string) map[string]PackType {
	r.packsMu.Lock()
	defer r.packsMu.Unlock()

	out := make(map[string]PackType, len(r.packs[deviceKey]))
	for serial, t := range r.packs[deviceKey] {
		out[serial] = t
	}
	return out
}
