// Package store persists conversations using SQLite.
//
// # Model
//
// A Conversation is saved as one row: the thread id, the owning user, a
// title taken from the first line of the first question, and the turns
// encoded as JSON. Saving the same thread again replaces the row inside a
// transaction, so the numeric ID changes while the thread id does not.
//
// Every read and delete is scoped to a user id. A conversation owned by
// someone else reports ErrNotFound, exactly as a missing one does.
//
// # Drivers
//
// Open accepts either database/sql driver name:
//
//   - "sqlite": modernc.org/sqlite, pure Go (default)
//   - "sqlite3": github.com/mattn/go-sqlite3, requires cgo
//
// Timestamps are stored as RFC3339 TEXT in UTC.
//
// # Recording
//
// NewRecorder adapts a Store to conversation.Recorder so a controller saves
// its turns whenever a session ends. MockStore is an in-memory Store for
// tests of code that sits above persistence.
package store
