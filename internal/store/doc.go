// Package store maps typed records onto a remote cell grid and exposes
// create/find/findOne/update/delete over it.
//
// # Startup
//
// New starts a one-shot readiness gate: it connects (authenticates) and then
// binds the declared schema to the table header. Every operation waits on
// the gate first. The gate resolves exactly once, to ready or to failed, and
// is never retried; a failed gate makes every operation return the same
// INITIALIZATION_FAILED error.
//
// # Row format
//
//   - Row 1 is the header; column 0 is "__ID"
//   - Each record is one row: cell 0 holds its identity token
//   - Delete blanks the whole row, producing a tombstone; tombstones are
//     skipped by every read and row numbers are never compacted
//
// # Consistency
//
// The grid has no transactions, locks or version stamps. Update and Delete
// read the whole table, pick the first matching row, and write that one row
// back. Two concurrent mutations of the same record race and the later
// write wins. Callers that need safe concurrent mutation of a table must
// serialize externally, e.g. with a mutex keyed by table.
//
// Validation errors are always raised before any write. Operations never
// retry.
package store
