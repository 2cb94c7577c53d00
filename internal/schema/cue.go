package schema

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/gridstore/internal/model"
)

// DefaultCUEPath is the struct LoadCUE reads fields from when no path is given.
const DefaultCUEPath = "fields"

// LoadError reports a problem in a schema source with its position.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadCUE reads a schema declared as a CUE struct, e.g.:
//
//	fields: {
//		name:    string
//		age:     number
//		active?: bool
//	}
//
// Regular fields are required, optional (?) fields are not. Field order in
// the file is the declaration order.
func LoadCUE(path, structPath string) (model.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return CompileCUE(data, path, structPath)
}

// CompileCUE is LoadCUE over in-memory source.
func CompileCUE(src []byte, filename, structPath string) (model.Schema, error) {
	if structPath == "" {
		structPath = DefaultCUEPath
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	fieldsVal := v.LookupPath(cue.ParsePath(structPath))
	if !fieldsVal.Exists() {
		return nil, &LoadError{
			Field:   structPath,
			Message: "struct not found",
			Pos:     v.Pos(),
		}
	}

	iter, err := fieldsVal.Fields(cue.Optional(true))
	if err != nil {
		return nil, formatCUEError(err)
	}

	var s model.Schema
	for iter.Next() {
		kind, err := kindOf(iter.Value())
		if err != nil {
			return nil, err
		}
		s = append(s, model.Field{
			Name:     iter.Label(),
			Type:     kind,
			Required: !iter.IsOptional(),
		})
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// kindOf maps a CUE type to a field kind. int, float and number all map to
// number since cells do not distinguish them.
func kindOf(v cue.Value) (model.Kind, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return model.KindString, nil
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		return model.KindNumber, nil
	case cue.BoolKind:
		return model.KindBool, nil
	default:
		return model.KindInvalid, &LoadError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &LoadError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
