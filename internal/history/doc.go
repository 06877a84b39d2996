// Package history records render runs in SQLite.
//
// Each run gets a row when the frame loop starts and is completed with the
// encoder outcome when the run ends, successful or not. The ledger backs the
// `history` command and keeps a trace of interrupted renders. Schema changes
// are added as new files under migrations/; applied versions are tracked in
// schema_migrations.
package history
