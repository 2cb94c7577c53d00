package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/gridstore/internal/grid"
	"github.com/roach88/gridstore/internal/model"
	"github.com/roach88/gridstore/internal/testutil"
)

var testTable = grid.Table{SpreadsheetID: "sheet-1", Tab: "People"}

func personSchema() model.Schema {
	return model.Schema{
		{Name: "name", Type: model.KindString, Required: true},
		{Name: "age", Type: model.KindNumber, Required: true},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func connectTo(tr grid.Transport) Connector {
	return func(context.Context) (grid.Transport, error) { return tr, nil }
}

// newTestStore creates a ready store over a fresh in-memory grid with
// sequential identities id-0001, id-0002, ...
func newTestStore(t *testing.T, s model.Schema) (*Store, *grid.Memory) {
	t.Helper()
	m := grid.NewMemory()
	return newTestStoreOn(t, m, s), m
}

func newTestStoreOn(t *testing.T, m *grid.Memory, s model.Schema) *Store {
	t.Helper()
	st, err := New(context.Background(), Config{
		Table:   testTable,
		Schema:  s,
		Connect: connectTo(m),
		NewID:   testutil.NewSequentialIDs("id").Next,
		Logger:  discardLogger(),
	})
	require.NoError(t, err)
	require.NoError(t, st.Ready(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func rec(kv ...any) model.Record {
	r := make(model.Record, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		v, err := model.FromAny(kv[i+1])
		if err != nil {
			panic(err)
		}
		r[kv[i].(string)] = v
	}
	return r
}
