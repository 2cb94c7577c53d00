// Package schema binds a declared schema to the columns already present in a
// table's header row.
//
// The persisted header is ground truth for column order. Binding appends any
// declared field the header lacks, never moves an existing column, and then
// writes the merged header back as a full overwrite of row 1. The result is
// an immutable Binding: field name -> column index, captured once and shared
// by value for the lifetime of a store.
//
// Schemas can be declared in Go, in a config file (see internal/config), or
// in CUE via LoadCUE.
package schema
