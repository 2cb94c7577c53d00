package model

import (
	"fmt"
	"strings"
)

// IdentityColumn is the reserved header name of column 0. It is also the
// record key that carries the identity token and the query sentinel that
// matches against cell 0.
const IdentityColumn = "__ID"

// Field declares one named, typed column.
type Field struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Type     Kind   `json:"type" yaml:"type" toml:"type"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty" toml:"required"`
}

// Schema is an ordered list of field declarations. Order matters only for
// fields that are new to the table: they are appended to the header in
// declaration order.
type Schema []Field

// Lookup returns the field declared under name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Clone returns a copy that shares nothing with s.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	out := make(Schema, len(s))
	copy(out, s)
	return out
}

// Validate checks names and kinds. Names are compared after NormalizeName,
// so two spellings of the same column are rejected as duplicates.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return NewSchemaError("schema declares no fields")
	}
	seen := make(map[string]bool, len(s))
	for i, f := range s {
		name := NormalizeName(f.Name)
		if name == "" {
			return NewSchemaError(fmt.Sprintf("field %d has an empty name", i))
		}
		if name != f.Name {
			return NewSchemaError(fmt.Sprintf("field %q must be written in normalized form %q", f.Name, name))
		}
		if strings.EqualFold(name, IdentityColumn) {
			return NewSchemaError(fmt.Sprintf("field name %q is reserved", f.Name))
		}
		if seen[name] {
			return NewSchemaError(fmt.Sprintf("field %q declared twice", f.Name))
		}
		seen[name] = true
		switch f.Type {
		case KindString, KindNumber, KindBool:
		default:
			return NewSchemaError(fmt.Sprintf("field %q has invalid type", f.Name))
		}
	}
	return nil
}

// UnmarshalText lets config decoders read "string", "number" or "boolean".
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText writes the schema spelling of the kind.
func (k Kind) MarshalText() ([]byte, error) {
	if k == KindInvalid {
		return nil, fmt.Errorf("cannot marshal invalid kind")
	}
	return []byte(k.String()), nil
}
