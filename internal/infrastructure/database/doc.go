// Package database provides SQLite persistence for Solarflow Bridge.
//
// It wraps database/sql with connection setup tuned for SQLite (WAL mode,
// busy timeout, single writer) and a small embedded migration runner.
// Migration files are provided by the top-level migrations package.
package database
