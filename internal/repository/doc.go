// Package repository defines the data access interfaces for NetDash.
//
// The core only needs a keyed store with save, find and delete-by-id
// semantics. The sqlite subpackage provides the implementation used by the
// server; tests elsewhere substitute in-memory fakes.
//
// # SQLite Implementation
//
// The sqlite repository keeps one row per device with scalar columns only.
// It migrates the schema on startup and runs in WAL mode.
//
// # Testing
//
// The sqlite repository is tested against in-memory databases.
package repository
