package state

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store implementation.
//
// It backs the telemetry hot path; the SQLite store persists the same
// values for restart recovery. Also used directly in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[memoryKey]any
}

type memoryKey struct {
	deviceKey string
	ns        Namespace
	field     string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[memoryKey]any)}
}

// Set stores a value.
func (m *MemoryStore) Set(_ context.Context, deviceKey string, ns Namespace, field string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[memoryKey{deviceKey, ns, field}] = value
	return nil
}

// Get retrieves a value.
func (m *MemoryStore) Get(_ context.Context, deviceKey string, ns Namespace, field string) (any, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[memoryKey{deviceKey, ns, field}]
	return v, ok, nil
}

// GetAll retrieves every field in a namespace for a device.
func (m *MemoryStore) GetAll(_ context.Context, deviceKey string, ns Namespace) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]any)
	for k, v := range m.values {
		if k.deviceKey == deviceKey && k.ns == ns {
			out[k.field] = v
		}
	}
	return out, nil
}

// Delete removes a field.
func (m *MemoryStore) Delete(_ context.Context, deviceKey string, ns Namespace, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, memoryKey{deviceKey, ns, field})
	return nil
}
