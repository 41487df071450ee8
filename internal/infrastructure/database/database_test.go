package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/fluxlink/solarflow-bridge/internal/infrastructure/config"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 1,
	})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAndHealthCheck(t *testing.T) {
	db := openTestDB(t)
	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error: %v", err)
	}
}

func TestMigrate(t *testing.T) {
	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() { MigrationsFS, MigrationsDir = origFS, origDir })

	MigrationsFS = fstest.MapFS{
		"0001_widgets.sql": &fstest.MapFile{
			Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT);"),
		},
		"0002_widget_index.sql": &fstest.MapFile{
			Data: []byte("CREATE INDEX idx_widgets_name ON widgets(name);"),
		},
		"README.md": &fstest.MapFile{Data: []byte("not a migration")},
	}
	MigrationsDir = "."

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	// Idempotent: second run applies nothing and succeeds.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("counting applied migrations: %v", err)
	}
	if count != 2 {
		t.Errorf("applied migrations = %d, want 2", count)
	}

	// The migrated table is usable.
	if _, err := db.ExecContext(ctx, "INSERT INTO widgets (name) VALUES (?)", "w1"); err != nil {
		t.Errorf("inserting into migrated table: %v", err)
	}
}

func TestMigrateStopsOnFailure(t *testing.T) {
	origFS, origDir := MigrationsFS, MigrationsDir
	t.Cleanup(func() { MigrationsFS, MigrationsDir = origFS, origDir })

	MigrationsFS = fstest.MapFS{
		"0001_ok.sql":     &fstest.MapFile{Data: []byte("CREATE TABLE ok (id INTEGER);")},
		"0002_broken.sql": &fstest.MapFile{Data: []byte("CREATE SYNTAX ERROR;")},
		"0003_never.sql":  &fstest.MapFile{Data: []byte("CREATE TABLE never (id INTEGER);")},
	}
	MigrationsDir = "."

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err == nil {
		t.Fatal("Migrate() = nil, want error from broken migration")
	}

	// 0001 committed, 0003 never attempted.
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("counting applied migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("applied migrations = %d, want 1", count)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantOK      bool
	}{
		{"0001_device_state.sql", "0001", "device_state", true},
		{"0002_pack_history.sql", "0002", "pack_history", true},
		{"notes.txt", "", "", false},
		{"nounderscore.sql", "", "", false},
		{"_noversion.sql", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if version != tt.wantVersion || name != tt.wantName {
				t.Errorf("got (%q, %q), want (%q, %q)", version, name, tt.wantVersion, tt.wantName)
			}
		})
	}
}
