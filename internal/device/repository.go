package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/database"
)

// Repository defines persistence operations for devices.
type Repository interface {
	// Upsert inserts a device or updates it if the key already exists.
	Upsert(ctx context.Context, d *Device) error

	// GetByKey retrieves a device by its device key.
	// Returns ErrNotFound if it does not exist.
	GetByKey(ctx context.Context, key string) (*Device, error)

	// List retrieves all devices ordered by creation time.
	List(ctx context.Context) ([]Device, error)

	// Delete removes a device. Deleting a missing device is not an error.
	Delete(ctx context.Context, key string) error
}

// SQLiteRepository implements Repository backed by the bridge database.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates a repository using the given database.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert inserts or updates a device row.
func (r *SQLiteRepository) Upsert(ctx context.Context, d *Device) error {
	if err := d.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (device_key, product_key, serial, name, product_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_key) DO UPDATE SET
			product_key = excluded.product_key,
			serial = excluded.serial,
			name = excluded.name,
			product_name = excluded.product_name,
			updated_at = excluded.updated_at
	`,
		d.Key, d.ProductKey, d.Serial, d.Name, d.ProductName,
		d.CreatedAt.Format(time.RFC3339), d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting device %s: %w", d.Key, err)
	}
	return nil
}

// GetByKey retrieves a device by its device key.
func (r *SQLiteRepository) GetByKey(ctx context.Context, key string) (*Device, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT device_key, product_key, serial, name, product_name, created_at, updated_at
		FROM devices WHERE device_key = ?
	`, key)

	d, err := scanDevice(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting device %s: %w", key, err)
	}
	return d, nil
}

// List retrieves all devices.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT device_key, product_key, serial, name, product_name, created_at, updated_at
		FROM devices ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// Delete removes a device row.
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE device_key = ?", key); err != nil {
		return fmt.Errorf("deleting device %s: %w", key, err)
	}
	return nil
}

// scanDevice reads a device from a row scan function.
func scanDevice(scan func(dest ...any) error) (*Device, error) {
	var d Device
	var createdAt, updatedAt string
	if err := scan(&d.Key, &d.ProductKey, &d.Serial, &d.Name, &d.ProductName, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	// Timestamps are written by us in RFC3339; parse errors leave zero times.
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled
	return &d, nil
}
