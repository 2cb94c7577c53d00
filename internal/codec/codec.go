// Package codec converts between typed records and positional row cells.
//
// Encode is strict: required fields must be present and every present
// declared field must carry its declared kind. Decode is lenient: each cell
// is coerced by value alone (see model.Coerce) and the declared type is not
// consulted, so rows written by other tools still read back.
package codec

import (
	"github.com/roach88/gridstore/internal/model"
	"github.com/roach88/gridstore/internal/schema"
)

// Encode lays out rec as a row as wide as the bound header. Cell 0, the
// identity, is left empty for the caller to fill. Keys in rec that are not
// declared, including IdentityColumn, are not written. A record whose
// declared cells would all be empty is rejected, since that row is a
// tombstone.
func Encode(rec model.Record, b *schema.Binding) (model.Row, error) {
	row := make(model.Row, b.Width())
	for _, f := range b.Schema() {
		v, present := rec[f.Name]
		if !present || v == nil {
			if f.Required {
				return nil, model.NewMissingFieldError(f.Name)
			}
			continue
		}
		if err := model.CheckValue(f, v); err != nil {
			return nil, err
		}
		col, _ := b.Column(f.Name)
		row[col] = v.Cell()
	}
	if row.IsTombstone() {
		return nil, model.NewEmptyRecordError()
	}
	return row, nil
}

// Decode reads every declared field from row, plus the identity token from
// cell 0. Missing cells read as "". The identity is kept verbatim.
func Decode(row model.Row, b *schema.Binding) model.Record {
	fields := b.Schema()
	rec := make(model.Record, len(fields)+1)
	rec[model.IdentityColumn] = model.String(row.Cell(0))
	for _, f := range fields {
		col, _ := b.Column(f.Name)
		rec[f.Name] = model.Coerce(row.Cell(col))
	}
	return rec
}

// Patch validates patch against the binding and writes its values over a
// copy of row. IdentityColumn in the patch is ignored so an update can never
// change a record's identity. Validation completes before any cell changes.
// A patch that would blank every non-identity cell is rejected; use Delete.
func Patch(row model.Row, patch model.Record, b *schema.Binding) (model.Row, error) {
	if err := ValidatePatch(patch, b); err != nil {
		return nil, err
	}
	out := row.Padded(b.Width())
	for name, v := range patch {
		if name == model.IdentityColumn {
			continue
		}
		col, _ := b.Column(name)
		out[col] = v.Cell()
	}
	if out.IsTombstone() {
		return nil, model.NewEmptyRecordError()
	}
	return out, nil
}

// ValidatePatch checks every patch entry names a declared field and carries
// the declared kind.
func ValidatePatch(patch model.Record, b *schema.Binding) error {
	for _, name := range patch.SortedKeys() {
		if name == model.IdentityColumn {
			continue
		}
		f, ok := b.Field(name)
		if !ok {
			return model.NewUnknownFieldError(name)
		}
		if err := model.CheckValue(f, patch[name]); err != nil {
			if model.CodeOf(err) == model.ErrCodeMissingRequiredField {
				// A nil patch value is a type error, not an absent field.
				return model.NewTypeMismatchError(name, f.Type, model.KindInvalid)
			}
			return err
		}
	}
	return nil
}
