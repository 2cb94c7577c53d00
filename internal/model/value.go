package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind names the type of a Value or the declared type of a Field.
type Kind uint8

const (
	// KindInvalid is the zero Kind and never valid in a schema.
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindBool
)

// Cell literals for booleans. Only these exact strings decode to Bool.
const (
	CellTrue  = "TRUE"
	CellFalse = "FALSE"
)

// String returns the schema spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "invalid"
	}
}

// ParseKind parses a declared field type. "bool" and "boolean" are both
// accepted, as are "int" and "float" as spellings of number.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string":
		return KindString, nil
	case "number", "int", "float":
		return KindNumber, nil
	case "bool", "boolean":
		return KindBool, nil
	default:
		return KindInvalid, fmt.Errorf("unknown field type %q", s)
	}
}

// Value is a sealed interface over the three storable types.
// Only String, Number and Bool implement it.
type Value interface {
	// Kind reports which variant this is.
	Kind() Kind
	// Cell renders the value as the cell string written to the grid.
	Cell() string
	// Any returns the payload as a plain Go value (string, float64, bool).
	Any() any

	value() // Sealed
}

// String is a text value.
type String string

// Number is a numeric value. Cells hold the shortest decimal form.
type Number float64

// Bool is a boolean value, stored as TRUE or FALSE.
type Bool bool

func (String) value() {}
func (Number) value() {}
func (Bool) value()   {}

func (String) Kind() Kind { return KindString }
func (Number) Kind() Kind { return KindNumber }
func (Bool) Kind() Kind   { return KindBool }

func (s String) Cell() string { return string(s) }

func (n Number) Cell() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

func (b Bool) Cell() string {
	if b {
		return CellTrue
	}
	return CellFalse
}

func (s String) Any() any { return string(s) }
func (n Number) Any() any { return float64(n) }
func (b Bool) Any() any   { return bool(b) }

// Coerce converts a raw cell into a Value. The fallback order is fixed:
//
//  1. exactly "TRUE" or "FALSE" -> Bool
//  2. a finite decimal number -> Number (the empty string is never a number)
//  3. anything else -> String
//
// Coerce ignores any declared field type.
func Coerce(cell string) Value {
	switch cell {
	case CellTrue:
		return Bool(true)
	case CellFalse:
		return Bool(false)
	}
	if n, ok := parseDecimal(cell); ok {
		return Number(n)
	}
	return String(cell)
}

// parseDecimal accepts plain decimal and exponent forms only. Hex floats,
// underscores, Inf and NaN all stay strings so they round-trip unchanged.
func parseDecimal(cell string) (float64, bool) {
	if cell == "" {
		return 0, false
	}
	for i := 0; i < len(cell); i++ {
		c := cell[i]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			continue
		}
		return 0, false
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// FromAny converts a decoded JSON/YAML scalar into a Value.
// Integers of any width become Number.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case float64:
		return Number(val), nil
	case float32:
		return Number(val), nil
	case int:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case int32:
		return Number(val), nil
	case uint64:
		return Number(val), nil
	case nil:
		return nil, fmt.Errorf("null is not a storable value")
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// Equal reports whether two values have the same kind and payload.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.Any() == b.Any()
}

// CheckValue reports whether v may be written to field f: the kinds must
// agree and numbers must be finite.
func CheckValue(f Field, v Value) error {
	if v == nil {
		return NewMissingFieldError(f.Name)
	}
	if v.Kind() != f.Type {
		return NewTypeMismatchError(f.Name, f.Type, v.Kind())
	}
	if n, ok := v.(Number); ok && (math.IsInf(float64(n), 0) || math.IsNaN(float64(n))) {
		return &Error{Code: ErrCodeTypeMismatch, Field: f.Name, Message: "number must be finite"}
	}
	return nil
}
