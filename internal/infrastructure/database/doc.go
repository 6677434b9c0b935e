// Package database provides SQLite persistence for Pointwatch Core.
//
// It wraps database/sql with WAL-mode configuration, an embedded migration
// runner, and the connectivity probe used by scheduler bootstrap gating.
//
// # Migrations
//
// SQL migration files are embedded into the binary by the migrations
// package and applied in version order, each in its own transaction.
// Migrate is idempotent and also serves as the periodic structural check.
//
// # Probe semantics
//
// Open never verifies connectivity; the scheduler retries Probe with its
// own budget before any periodic job runs. This keeps a slow-starting
// database from failing process construction.
package database
