package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	// "é" as e + combining acute accent normalizes to the precomposed form.
	assert.Equal(t, "caf\u00e9", NormalizeName(" cafe\u0301 "))
	assert.Equal(t, "name", NormalizeName("name"))
}

func TestMarshalRecordSortedAndUnescaped(t *testing.T) {
	r := Record{
		"name":         String("<Ann & Bo>"),
		"age":          Number(30),
		"active":       Bool(true),
		IdentityColumn: String("id-1"),
	}
	out, err := MarshalRecord(r)
	require.NoError(t, err)
	assert.Equal(t, `{"__ID":"id-1","active":true,"age":30,"name":"<Ann & Bo>"}`, string(out))
}

func TestMarshalRecordRejectsNonFinite(t *testing.T) {
	_, err := MarshalRecord(Record{"n": Number(math.Inf(1))})
	assert.Error(t, err)
}

func TestRecordJSON(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Ann","age":30,"ok":false}`), &r))
	assert.Equal(t, Record{"name": String("Ann"), "age": Number(30), "ok": Bool(false)}, r)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ann","age":30,"ok":false}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"x":null}`), &r))
}
