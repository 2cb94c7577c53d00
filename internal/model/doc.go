// Package model provides the foundation types for gridstore.
//
// This package contains type definitions and pure functions only. All other
// internal packages import model; model imports nothing internal.
//
// Key design constraints:
//   - Values are a sealed tagged union: String, Number, Bool
//   - Cells are always strings; Coerce is the single cell-to-value rule
//   - Column 0 of every row is the identity column (IdentityColumn)
//   - A row whose non-identity cells are all empty is a tombstone
//   - Schema is ordered; declaration order decides where new columns land
package model
