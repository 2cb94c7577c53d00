package schema

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/gridstore/internal/grid"
	"github.com/roach88/gridstore/internal/model"
)

// Binding is the immutable result of reconciling a schema with a header.
// It is safe for concurrent use.
type Binding struct {
	header  model.Header
	fields  model.Schema
	columns map[string]int
}

// Header returns a copy of the merged header.
func (b *Binding) Header() model.Header {
	return append(model.Header{}, b.header...)
}

// Schema returns a copy of the bound schema.
func (b *Binding) Schema() model.Schema {
	return b.fields.Clone()
}

// Field returns the declaration for name.
func (b *Binding) Field(name string) (model.Field, bool) {
	return b.fields.Lookup(name)
}

// Column returns the column index bound to a declared field.
// IdentityColumn always resolves to 0.
func (b *Binding) Column(name string) (int, bool) {
	if name == model.IdentityColumn {
		return 0, true
	}
	i, ok := b.columns[name]
	return i, ok
}

// Width is the number of columns in the merged header.
func (b *Binding) Width() int {
	return len(b.header)
}

// Merge reconciles a declared schema against an existing header without
// touching any transport. An empty existing header means a fresh table.
//
// Existing columns keep their positions. Declared fields that are missing
// are appended in declaration order. Columns present in the header but not
// declared are kept and ignored.
func Merge(existing model.Header, declared model.Schema) (*Binding, error) {
	if err := declared.Validate(); err != nil {
		return nil, err
	}

	header := make(model.Header, 0, len(existing)+len(declared))
	if len(existing) == 0 {
		header = append(header, model.IdentityColumn)
	} else {
		if model.NormalizeName(existing[0]) != model.IdentityColumn {
			return nil, fmt.Errorf("header column 1 is %q, want %q", existing[0], model.IdentityColumn)
		}
		header = append(header, model.IdentityColumn)
		header = append(header, existing[1:]...)
	}

	// First occurrence wins when a header repeats a name.
	positions := make(map[string]int, len(header))
	for i := len(header) - 1; i >= 1; i-- {
		positions[model.NormalizeName(header[i])] = i
	}

	columns := make(map[string]int, len(declared))
	for _, f := range declared {
		i, ok := positions[f.Name]
		if !ok {
			header = append(header, f.Name)
			i = len(header) - 1
		}
		columns[f.Name] = i
	}

	return &Binding{
		header:  header,
		fields:  declared.Clone(),
		columns: columns,
	}, nil
}

// Bind fetches the header of t, merges the declared schema into it, and
// persists the merged header as a full overwrite of row 1. Any failure is
// returned as an INITIALIZATION_FAILED error. A nil logger means
// slog.Default().
func Bind(ctx context.Context, tr grid.Transport, t grid.Table, declared model.Schema, logger *slog.Logger) (*Binding, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rows, err := tr.GetRange(ctx, grid.HeaderRow(t))
	if err != nil {
		return nil, model.NewInitializationError("fetch header", err)
	}
	var existing model.Header
	if len(rows) > 0 {
		existing = model.Header(rows[0])
	}

	b, err := Merge(existing, declared)
	if err != nil {
		return nil, model.NewInitializationError("merge schema", err)
	}

	if err := tr.WriteRange(ctx, grid.HeaderRow(t), [][]string{b.header}, grid.Literal); err != nil {
		return nil, model.NewInitializationError("persist header", err)
	}

	logger.Info("schema bound",
		"table", t.String(),
		"columns", len(b.header),
		"added", len(b.header)-max(len(existing), 1),
	)
	return b, nil
}
