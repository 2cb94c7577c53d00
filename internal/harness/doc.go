// Package harness runs record-store scenarios against an in-memory grid.
//
// A scenario seeds a table, runs a sequence of store operations and checks
// each outcome, then asserts on the final grid. Identities are issued
// sequentially ("id-0001", "id-0002", ...) so runs are reproducible and the
// final grid can be compared with a golden snapshot.
//
// # Scenario Format
//
//	name: lifecycle
//	description: "Create, update and delete one record"
//	schema:
//	  - {name: name, type: string, required: true}
//	  - {name: age, type: number, required: true}
//	grid:                       # optional seed, header first
//	  - [__ID, name]
//	steps:
//	  - op: create
//	    record: {name: Ann, age: 30}
//	    expect:
//	      record: {__ID: id-0001}
//	  - op: update
//	    query: {__ID: id-0001}
//	    patch: {age: 31}
//	  - op: find
//	    query: {age: 31}
//	    expect: {count: 1}
//	  - op: delete
//	    query: {__ID: nope}
//	    expect: {error: NOT_FOUND}
//	assertions:
//	  - type: live_count
//	    count: 1
//	  - type: header
//	    columns: [__ID, name, age]
//
// A step without expect must succeed. A step may set fail to one of get,
// write or append to make the next remote call of that kind fail.
// fail_init makes the initial header read fail, leaving the store in its
// terminal failed state.
//
// # Assertion Types
//
//   - grid: the final grid equals rows exactly
//   - header: row 1 equals columns
//   - row: sheet row number row equals cells
//   - live_count: number of live records
//   - calls: remote call counts by kind, e.g. {append: 2}
//
// # Golden Snapshots
//
// RunWithGolden compares the final grid with testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
