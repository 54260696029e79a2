// Package store persists video records and analysis runs in SQLite. The
// database lives in the configured state directory and is the durable source
// of truth once the in-memory progress tracker clears a finished run.
package store
