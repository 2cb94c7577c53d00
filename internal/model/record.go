package model

import (
	"slices"
)

// Record maps field names to typed values. A stored record also carries
// its identity token under IdentityColumn as a String.
type Record map[string]Value

// Identity returns the record's identity token, or "" if it has none.
func (r Record) Identity() string {
	if v, ok := r[IdentityColumn].(String); ok {
		return string(v)
	}
	return ""
}

// Clone returns a shallow copy. Values are immutable so this is enough.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// SortedKeys returns keys in byte order for deterministic iteration.
func (r Record) SortedKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Query maps field names, or IdentityColumn, to the value a matching row
// must hold. All entries must match. An empty Query matches every live row.
type Query map[string]Value

// ByID builds the query that selects a record by identity token.
func ByID(id string) Query {
	return Query{IdentityColumn: String(id)}
}

// Header is the ordered list of column names stored in row 1.
type Header []string

// Index returns the position of name, or -1.
func (h Header) Index(name string) int {
	return slices.Index(h, name)
}

// Row is one grid row: cell 0 is the identity token and the remaining cells
// follow the header. Rows read from a grid may be shorter than the header;
// missing trailing cells are empty.
type Row []string

// Cell returns cell i, or "" when the row is too short.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Padded returns a copy of r extended with empty cells to at least width.
func (r Row) Padded(width int) Row {
	out := make(Row, max(width, len(r)))
	copy(out, r)
	return out
}

// IsTombstone reports whether r marks a deleted record.
//
// Row format invariant: a row whose cells at positions 1..N are all empty is
// a tombstone and is invisible to every read. Delete writes a fully blank
// row (identity included) so writer and reader agree on this rule.
func (r Row) IsTombstone() bool {
	for i := 1; i < len(r); i++ {
		if r[i] != "" {
			return false
		}
	}
	return true
}

// TombstoneRow returns the blank row Delete writes over a record.
func TombstoneRow(width int) Row {
	return make(Row, width)
}
