package state

import "context"

// LayeredStore combines a fast in-memory store with a persistent one.
//
// Reads are served from memory. Writes go to memory first, then to the
// persistent store; a persistence failure is returned but the memory
// write stands, so the pipeline keeps a consistent view even when the
// disk is briefly unavailable.
//
// Load populates memory from the persistent store at startup.
type LayeredStore struct {
	memory     *MemoryStore
	persistent Store
}

// NewLayeredStore creates a layered store over the given persistent store.
func NewLayeredStore(persistent Store) *LayeredStore {
	return &LayeredStore{
		memory:     NewMemoryStore(),
		persistent: persistent,
	}
}

// Load copies all persisted state for the given devices into memory.
func (l *LayeredStore) Load(ctx context.Context, deviceKeys []string) error {
	for _, key := range deviceKeys {
		for _, ns := range []Namespace{Canonical, Control} {
			values, err := l.persistent.GetAll(ctx, key, ns)
			if err != nil {
				return err
			}
			for field, value := range values {
				if err := l.memory.Set(ctx, key, ns, field, value); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Set stores a value in memory and persists it.
func (l *LayeredStore) Set(ctx context.Context, deviceKey string, ns Namespace, field string, value any) error {
	if err := l.memory.Set(ctx, deviceKey, ns, field, value); err != nil {
		return err
	}
	return l.persistent.Set(ctx, deviceKey, ns, field, value)
}

// Get retrieves a value from memory.
func (l *LayeredStore) Get(ctx context.Context, deviceKey string, ns Namespace, field string) (any, bool, error) {
	return l.memory.Get(ctx, deviceKey, ns, field)
}

// GetAll retrieves a namespace snapshot from memory.
func (l *LayeredStore) GetAll(ctx context.Context, deviceKey string, ns Namespace) (map[string]any, error) {
	return l.memory.GetAll(ctx, deviceKey, ns)
}

// Delete removes a field from memory and the persistent store.
func (l *LayeredStore) Delete(ctx context.Context, deviceKey string, ns Namespace, field string) error {
	if err := l.memory.Delete(ctx, deviceKey, ns, field); err != nil {
		return err
	}
	return l.persistent.Delete(ctx, deviceKey, ns, field)
}
