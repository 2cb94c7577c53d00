package grid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTable = Table{SpreadsheetID: "sheet-1", Tab: "People"}

func TestMemory_EmptyTableReadsEmpty(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	rows, err := m.GetRange(ctx, WholeTable(testTable))
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = m.GetRange(ctx, HeaderRow(testTable))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMemory_WriteHeaderThenAppend(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.WriteRange(ctx, HeaderRow(testTable), [][]string{{"__ID", "name"}}, Literal))
	require.NoError(t, m.AppendRows(ctx, WholeTable(testTable), [][]string{{"a", "Ann"}}))
	require.NoError(t, m.AppendRows(ctx, WholeTable(testTable), [][]string{{"b", "Bo"}}))

	assert.Equal(t, [][]string{
		{"__ID", "name"},
		{"a", "Ann"},
		{"b", "Bo"},
	}, m.Rows(testTable))
	assert.Equal(t, 2, m.Calls(OpAppend))
	assert.Equal(t, 1, m.Calls(OpWrite))
}

func TestMemory_BlankRowsInsideTableReadEmpty(t *testing.T) {
	m := NewMemory()
	m.Seed(testTable, [][]string{
		{"__ID", "name"},
		{"", ""},
		{"b", "Bo", ""},
		{"", ""},
	})

	rows, err := m.GetRange(context.Background(), WholeTable(testTable))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"__ID", "name"}, {}, {"b", "Bo"}}, rows)
}

func TestMemory_AppendFillsAfterLastPopulatedRow(t *testing.T) {
	m := NewMemory()
	m.Seed(testTable, [][]string{
		{"__ID", "name"},
		{"a", "Ann"},
		{"", ""},
	})

	require.NoError(t, m.AppendRows(context.Background(), WholeTable(testTable), [][]string{{"c", "Cy"}}))
	assert.Equal(t, [][]string{{"__ID", "name"}, {"a", "Ann"}, {"c", "Cy"}}, m.Rows(testTable))
}

func TestMemory_WriteRowKeepsCellsBeyondWidth(t *testing.T) {
	m := NewMemory()
	m.Seed(testTable, [][]string{{"__ID", "name", "age"}, {"a", "Ann", "30"}})

	require.NoError(t, m.WriteRange(context.Background(), SheetRow(testTable, 2), [][]string{{"a", "Anna"}}, Literal))
	assert.Equal(t, []string{"a", "Anna", "30"}, m.Rows(testTable)[1])
}

func TestMemory_InterpretedWrites(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.WriteRange(ctx, SheetRow(testTable, 1), [][]string{{"true", "1.50", "007", "x"}}, Interpreted))
	assert.Equal(t, []string{"TRUE", "1.5", "7", "x"}, m.Rows(testTable)[0])

	require.NoError(t, m.WriteRange(ctx, SheetRow(testTable, 1), [][]string{{"true", "1.50"}}, Literal))
	assert.Equal(t, []string{"true", "1.50", "7", "x"}, m.Rows(testTable)[0])
}

func TestMemory_SingleRowRangeRejectsManyRows(t *testing.T) {
	m := NewMemory()
	err := m.WriteRange(context.Background(), SheetRow(testTable, 2), [][]string{{"a"}, {"b"}}, Literal)
	assert.Error(t, err)
}

func TestMemory_FailNext(t *testing.T) {
	m := NewMemory()
	boom := errors.New("boom")
	m.FailNext(OpGet, boom)

	_, err := m.GetRange(context.Background(), WholeTable(testTable))
	assert.ErrorIs(t, err, boom)

	_, err = m.GetRange(context.Background(), WholeTable(testTable))
	assert.NoError(t, err, "failure is consumed")
	assert.Equal(t, 2, m.Calls(OpGet))
}

func TestMemory_CancelledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.GetRange(ctx, WholeTable(testTable))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.Calls(OpGet))
}

func TestMemory_RowsIsACopy(t *testing.T) {
	m := NewMemory()
	m.Seed(testTable, [][]string{{"__ID"}})
	rows := m.Rows(testTable)
	rows[0][0] = "changed"
	assert.Equal(t, "__ID", m.Rows(testTable)[0][0])
}
