package grid

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/gridstore/internal/model"
)

// Op names a Transport method, for counting and failure injection.
type Op string

const (
	OpGet    Op = "get"
	OpWrite  Op = "write"
	OpAppend Op = "append"
)

// Memory is an in-process Transport that mimics the observable behavior of
// a spreadsheet: trailing empty cells and trailing blank rows are trimmed on
// read, blank rows inside the table read as empty, appends land after the
// last populated row, and interpreted writes normalize boolean and numeric
// literals.
//
// Thread-safety: all methods are safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	tables map[Table][][]string
	calls  map[Op]int
	fail   map[Op][]error
}

// NewMemory returns an empty grid.
func NewMemory() *Memory {
	return &Memory{
		tables: make(map[Table][][]string),
		calls:  make(map[Op]int),
		fail:   make(map[Op][]error),
	}
}

// Seed replaces the contents of t with rows, header first.
func (m *Memory) Seed(t Table, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t] = copyRows(rows)
}

// Rows returns the contents of t as a read would see them.
func (m *Memory) Rows(t Table) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return TrimRows(m.tables[t])
}

// Calls returns how many times op was invoked, failed calls included.
func (m *Memory) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// FailNext makes the next call of op return err. Calls queue up.
func (m *Memory) FailNext(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op] = append(m.fail[op], err)
}

// begin records the call and pops an injected failure. Caller holds mu.
func (m *Memory) begin(op Op) error {
	m.calls[op]++
	if q := m.fail[op]; len(q) > 0 {
		m.fail[op] = q[1:]
		return q[0]
	}
	return nil
}

// GetRange implements Transport.
func (m *Memory) GetRange(ctx context.Context, r Range) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpGet); err != nil {
		return nil, err
	}

	rows := TrimRows(m.tables[r.Table])
	switch r.Kind {
	case RangeTable:
		return rows, nil
	default:
		i := r.RowNumber() - 1
		if i >= len(rows) || len(rows[i]) == 0 {
			return [][]string{}, nil
		}
		return [][]string{rows[i]}, nil
	}
}

// WriteRange implements Transport. Cells beyond the written width keep
// their previous contents.
func (m *Memory) WriteRange(ctx context.Context, r Range, rows [][]string, mode WriteMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Kind != RangeTable && len(rows) > 1 {
		return fmt.Errorf("grid: %s addresses one row, got %d", r, len(rows))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpWrite); err != nil {
		return err
	}
	m.put(r.Table, r.RowNumber()-1, rows, mode)
	return nil
}

// AppendRows implements Transport. Rows are always interpreted.
func (m *Memory) AppendRows(ctx context.Context, r Range, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpAppend); err != nil {
		return err
	}
	m.put(r.Table, LastPopulated(m.tables[r.Table])+1, rows, Interpreted)
	return nil
}

// put writes rows starting at zero-based index start. Caller holds mu.
func (m *Memory) put(t Table, start int, rows [][]string, mode WriteMode) {
	grid := m.tables[t]
	for len(grid) < start+len(rows) {
		grid = append(grid, nil)
	}
	for i, row := range rows {
		dst := grid[start+i]
		if len(dst) < len(row) {
			dst = append(dst, make([]string, len(row)-len(dst))...)
		}
		for j, cell := range row {
			if mode == Interpreted {
				cell = Interpret(cell)
			}
			dst[j] = cell
		}
		grid[start+i] = dst
	}
	m.tables[t] = grid
}

// Interpret mimics how a spreadsheet parses typed user input: boolean
// literals in any case become TRUE/FALSE and numbers lose redundant digits.
func Interpret(cell string) string {
	switch {
	case strings.EqualFold(cell, model.CellTrue):
		return model.CellTrue
	case strings.EqualFold(cell, model.CellFalse):
		return model.CellFalse
	}
	if n, ok := model.Coerce(cell).(model.Number); ok {
		return n.Cell()
	}
	return cell
}

// LastPopulated returns the index of the last row holding a non-empty cell, or -1.
func LastPopulated(rows [][]string) int {
	for i := len(rows) - 1; i >= 0; i-- {
		for _, c := range rows[i] {
			if c != "" {
				return i
			}
		}
	}
	return -1
}

// TrimRows drops trailing blank rows and trailing empty cells, returning a copy.
func TrimRows(rows [][]string) [][]string {
	n := LastPopulated(rows) + 1
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := rows[i]
		end := len(row)
		for end > 0 && row[end-1] == "" {
			end--
		}
		out[i] = append([]string{}, row[:end]...)
	}
	return out
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string{}, r...)
	}
	return out
}
