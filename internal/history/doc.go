// Package history keeps a SQLite ledger of finished batches.
//
// Each batch row stores the request summary and outcome; item rows hold the
// per-file source, destination, and status. The CLI reads the ledger through
// List and Get, and Prune drops batches older than the retention window.
// Schema creation is serialized across processes with a lock file next to
// the database.
package history
