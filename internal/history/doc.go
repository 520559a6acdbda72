// Package history persists one row per recognition request in SQLite.
//
// The store follows the same conventions as the rest of CineScan's
// persistence: WAL journal, busy_timeout, PRAGMA user_version checked on
// open, and short retries when SQLite reports the database as busy.
// Retention runs Prune on a cron schedule while the daemon is up.
package history
