// Package query evaluates equality queries against grid rows.
package query

import (
	"github.com/roach88/gridstore/internal/model"
	"github.com/roach88/gridstore/internal/schema"
)

// Validate rejects queries that name fields the binding does not know.
func Validate(q model.Query, b *schema.Binding) error {
	for name, v := range q {
		if _, ok := b.Column(name); !ok {
			return model.NewUnknownFieldError(name)
		}
		if v == nil {
			return &model.Error{Code: model.ErrCodeTypeMismatch, Field: name, Message: "query value is null"}
		}
	}
	return nil
}

// Matches reports whether row satisfies every entry of q. Values are
// compared as cell strings, exactly. Tombstones never match, and an empty
// query matches every other row.
func Matches(row model.Row, q model.Query, b *schema.Binding) bool {
	if row.IsTombstone() {
		return false
	}
	for name, want := range q {
		col, ok := b.Column(name)
		if !ok || want == nil {
			return false
		}
		if row.Cell(col) != want.Cell() {
			return false
		}
	}
	return true
}

// First returns the index of the first row in rows that matches q, or -1.
func First(rows []model.Row, q model.Query, b *schema.Binding) int {
	for i, row := range rows {
		if Matches(row, q, b) {
			return i
		}
	}
	return -1
}
