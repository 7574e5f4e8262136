// Package history records finished countdown periods in a SQLite database.
//
// Store owns the database handle and embedded migrations. Recorder consumes
// tick events and writes one row per period that ran to completion, so
// paused or abandoned periods never appear. Rows older than the configured
// retention are removed by Prune.
package history
