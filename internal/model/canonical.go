package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName returns the canonical spelling of a column or field name:
// surrounding whitespace trimmed and Unicode NFC applied. Header cells and
// declared names are compared in this form, so a header typed by hand in a
// spreadsheet UI still binds to the declared field.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// MarshalRecord renders a record as JSON with keys in byte order and no
// HTML escaping. The output is stable, which golden files depend on.
func MarshalRecord(r Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalValue(r[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler with sorted keys.
func (r Record) MarshalJSON() ([]byte, error) {
	return MarshalRecord(r)
}

// UnmarshalJSON decodes a flat JSON object of strings, numbers and booleans.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out, err := RecordFromMap(raw)
	if err != nil {
		return err
	}
	*r = out
	return nil
}

// RecordFromMap converts decoded scalars into a Record.
func RecordFromMap(m map[string]any) (Record, error) {
	out := make(Record, len(m))
	for k, v := range m {
		val, err := FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("record key %q: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

// QueryFromMap converts decoded scalars into a Query.
func QueryFromMap(m map[string]any) (Query, error) {
	r, err := RecordFromMap(m)
	if err != nil {
		return nil, err
	}
	return Query(r), nil
}

func marshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case String:
		return marshalString(string(val))
	case Number:
		if math.IsInf(float64(val), 0) || math.IsNaN(float64(val)) {
			return nil, fmt.Errorf("non-finite number %v", float64(val))
		}
		// Cell form is the shortest round-tripping decimal, which is valid JSON.
		return []byte(val.Cell()), nil
	case Bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
