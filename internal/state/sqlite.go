package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/database"
)

// SQLiteStore is a Store implementation backed by the device_state table.
//
// Values are stored as JSON text so numbers, booleans, and strings all
// round-trip. Numbers come back as float64, matching encoding/json.
type SQLiteStore struct {
	db *database.DB
}

// NewSQLiteStore creates a store using the given database.
func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Set stores a value, replacing any previous value for the field.
func (s *SQLiteStore) Set(ctx context.Context, deviceKey string, ns Namespace, field string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding state value %s/%s/%s: %w", deviceKey, ns, field, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO device_state (device_key, namespace, field, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(device_key, namespace, field) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, deviceKey, string(ns), field, string(encoded), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("storing state %s/%s/%s: %w", deviceKey, ns, field, err)
	}
	return nil
}

// Get retrieves a value.
func (s *SQLiteStore) Get(ctx context.Context, deviceKey string, ns Namespace, field string) (any, bool, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM device_state
		WHERE device_key = ? AND namespace = ? AND field = ?
	`, deviceKey, string(ns), field).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading state %s/%s/%s: %w", deviceKey, ns, field, err)
	}

	var value any
	if err := json.Unmarshal([]byte(encoded), &value); err != nil {
		return nil, false, fmt.Errorf("decoding state %s/%s/%s: %w", deviceKey, ns, field, err)
	}
	return value, true, nil
}

// GetAll retrieves every field in a namespace for a device.
func (s *SQLiteStore) GetAll(ctx context.Context, deviceKey string, ns Namespace) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT field, value FROM device_state
		WHERE device_key = ? AND namespace = ?
	`, deviceKey, string(ns))
	if err != nil {
		return nil, fmt.Errorf("listing state %s/%s: %w", deviceKey, ns, err)
	}
	defer rows.Close()

	out := make(map[string]any)
	for rows.Next() {
		var field, encoded string
		if err := rows.Scan(&field, &encoded); err != nil {
			return nil, fmt.Errorf("scanning state row: %w", err)
		}
		var value any
		if err := json.Unmarshal([]byte(encoded), &value); err != nil {
			return nil, fmt.Errorf("decoding state %s/%s/%s: %w", deviceKey, ns, field, err)
		}
		out[field] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state rows: %w", err)
	}
	return out, nil
}

// Delete removes a field.
func (s *SQLiteStore) Delete(ctx context.Context, deviceKey string, ns Namespace, field string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM device_state
		WHERE device_key = ? AND namespace = ? AND field = ?
	`, deviceKey, string(ns), field)
	if err != nil {
		return fmt.Errorf("deleting state %s/%s/%s: %w", deviceKey, ns, field, err)
	}
	return nil
}
