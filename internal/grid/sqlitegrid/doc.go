// Package sqlitegrid provides a SQLite-backed grid.Transport.
//
// It stands in for a hosted spreadsheet when running offline or in tests
// that need durability across processes. Each stored row is one database
// row keyed by (spreadsheet_id, tab, row_num) holding its cells as a JSON
// array of strings. Rows that become entirely blank are removed, so the
// highest stored row_num is always the last populated row.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - a single open connection, so writes are serialized
package sqlitegrid
