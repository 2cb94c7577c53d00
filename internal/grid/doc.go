// Package grid defines the transport contract between gridstore and a remote
// rectangular grid of string cells, plus an in-memory implementation.
//
// Addressing uses sheet row numbers: row 1 is the header, data starts at
// row 2. A Range names a table (spreadsheet + tab) and either the whole
// table, the header row, or one row.
//
// Transports are expected to:
//   - return rows in sheet order, with blank rows as empty slices
//   - trim nothing but trailing empty cells
//   - append after the last populated row of the table
//
// Transports provide no locking or versioning. Callers that mutate the same
// table concurrently must serialize externally.
package grid
