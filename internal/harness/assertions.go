package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/gridstore/internal/grid"
	"github.com/roach88/gridstore/internal/model"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Grid     [][]string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFinal grid:\n")
	for i, row := range e.Grid {
		fmt.Fprintf(&buf, "  [%d] %q\n", i+1, row)
	}
	return buf.String()
}

// AssertionContext gives assertions access to the grid.
type AssertionContext struct {
	Grid  *grid.Memory
	Table grid.Table
}

func assertGrid(rows [][]string, a Assertion) error {
	want := a.Rows
	if want == nil {
		want = [][]string{}
	}
	if !rowsEqual(rows, want) {
		return &AssertionError{
			Type:     AssertGrid,
			Expected: fmt.Sprintf("%q", want),
			Actual:   fmt.Sprintf("%q", rows),
			Grid:     rows,
		}
	}
	return nil
}

func assertHeader(rows [][]string, a Assertion) error {
	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}
	if !cellsEqual(header, a.Columns) {
		return &AssertionError{
			Type:     AssertHeader,
			Expected: fmt.Sprintf("%q", a.Columns),
			Actual:   fmt.Sprintf("%q", header),
			Grid:     rows,
		}
	}
	return nil
}

func assertRow(rows [][]string, a Assertion) error {
	var got []string
	if a.Row <= len(rows) {
		got = rows[a.Row-1]
	}
	if !cellsEqual(got, a.Cells) {
		return &AssertionError{
			Type:     AssertRow,
			Expected: fmt.Sprintf("row %d = %q", a.Row, a.Cells),
			Actual:   fmt.Sprintf("%q", got),
			Grid:     rows,
		}
	}
	return nil
}

// assertLiveCount counts data rows that are not tombstones.
func assertLiveCount(rows [][]string, a Assertion) error {
	live := 0
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if !model.Row(row).IsTombstone() {
			live++
		}
	}
	if live != a.Count {
		return &AssertionError{
			Type:     AssertLiveCount,
			Expected: fmt.Sprintf("%d live records", a.Count),
			Actual:   fmt.Sprintf("%d live records", live),
			Grid:     rows,
		}
	}
	return nil
}

func assertCalls(m *grid.Memory, rows [][]string, a Assertion) error {
	ops := make([]string, 0, len(a.Calls))
	for op := range a.Calls {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	for _, op := range ops {
		if got := m.Calls(grid.Op(op)); got != a.Calls[op] {
			return &AssertionError{
				Type:     AssertCalls,
				Expected: fmt.Sprintf("%d %s calls", a.Calls[op], op),
				Actual:   fmt.Sprintf("%d %s calls", got, op),
				Grid:     rows,
			}
		}
	}
	return nil
}

// cellsEqual treats nil and empty as equal.
func cellsEqual(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func rowsEqual(a, b [][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !cellsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// EvaluateAssertions evaluates all assertions against the final grid and
// returns a message per failure.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	if len(assertions) == 0 {
		return errs
	}
	if actx == nil || actx.Grid == nil {
		return []string{"assertions require a grid"}
	}
	rows := actx.Grid.Rows(actx.Table)

	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertGrid:
			err = assertGrid(rows, a)
		case AssertHeader:
			err = assertHeader(rows, a)
		case AssertRow:
			err = assertRow(rows, a)
		case AssertLiveCount:
			err = assertLiveCount(rows, a)
		case AssertCalls:
			err = assertCalls(actx.Grid, rows, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}
