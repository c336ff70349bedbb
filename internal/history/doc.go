// Package history persists per-podcast episode state in SQLite.
//
// Every episode ever discovered gets one row keyed by (podcast, url); the
// downloaded flag plus the resolved filename record completion. Rows are
// never deleted automatically, so a completed mark survives rule edits and
// partial runs. MarkComplete calls are serialized through the store so
// concurrent download workers never interleave writes.
//
// The database lives in the configured state directory. Schema changes bump
// the version in schema.go.
package history
