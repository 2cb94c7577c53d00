package grid

import (
	"context"
	"fmt"
	"strings"
)

// Table locates one tab of one spreadsheet.
type Table struct {
	SpreadsheetID string `json:"spreadsheet_id" yaml:"spreadsheet_id" toml:"spreadsheet_id"`
	Tab           string `json:"tab" yaml:"tab" toml:"tab"`
}

// Validate checks both parts are present.
func (t Table) Validate() error {
	if strings.TrimSpace(t.SpreadsheetID) == "" {
		return fmt.Errorf("grid: spreadsheet id is required")
	}
	if strings.TrimSpace(t.Tab) == "" {
		return fmt.Errorf("grid: tab name is required")
	}
	return nil
}

func (t Table) String() string {
	return t.SpreadsheetID + "/" + t.Tab
}

// RangeKind selects what part of a table a Range covers.
type RangeKind uint8

const (
	// RangeTable covers every populated row, header included.
	RangeTable RangeKind = iota
	// RangeHeader covers row 1.
	RangeHeader
	// RangeRow covers a single row, addressed by sheet row number.
	RangeRow
)

// HeaderRowNumber is the sheet row that holds column names.
const HeaderRowNumber = 1

// FirstDataRow is the sheet row number of the first record.
const FirstDataRow = 2

// Range addresses part of a table.
type Range struct {
	Table Table
	Kind  RangeKind
	// Row is the 1-based sheet row number; only used by RangeRow.
	Row int
}

// WholeTable returns the range covering every row of t.
func WholeTable(t Table) Range {
	return Range{Table: t, Kind: RangeTable}
}

// HeaderRow returns the range covering row 1 of t.
func HeaderRow(t Table) Range {
	return Range{Table: t, Kind: RangeHeader, Row: HeaderRowNumber}
}

// SheetRow returns the range covering sheet row n of t.
func SheetRow(t Table, n int) Range {
	return Range{Table: t, Kind: RangeRow, Row: n}
}

// RowNumber returns the first sheet row the range touches.
func (r Range) RowNumber() int {
	switch r.Kind {
	case RangeHeader:
		return HeaderRowNumber
	case RangeRow:
		return r.Row
	default:
		return HeaderRowNumber
	}
}

// Validate checks the range is addressable.
func (r Range) Validate() error {
	if err := r.Table.Validate(); err != nil {
		return err
	}
	if r.Kind == RangeRow && r.Row < 1 {
		return fmt.Errorf("grid: row number %d out of range", r.Row)
	}
	if r.Kind > RangeRow {
		return fmt.Errorf("grid: unknown range kind %d", r.Kind)
	}
	return nil
}

// A1 renders the range in A1 notation, e.g. 'People'!1:1.
// Tab names are always quoted, with embedded quotes doubled.
func (r Range) A1() string {
	tab := "'" + strings.ReplaceAll(r.Table.Tab, "'", "''") + "'"
	switch r.Kind {
	case RangeHeader:
		return tab + "!1:1"
	case RangeRow:
		return fmt.Sprintf("%s!%d:%d", tab, r.Row, r.Row)
	default:
		return tab
	}
}

func (r Range) String() string {
	return r.Table.SpreadsheetID + ":" + r.A1()
}

// WriteMode tells the transport how to treat written cell strings.
type WriteMode uint8

const (
	// Literal stores cells exactly as given.
	Literal WriteMode = iota
	// Interpreted lets the remote parse numeric and boolean literals as it
	// would typed user input.
	Interpreted
)

func (m WriteMode) String() string {
	if m == Interpreted {
		return "interpreted"
	}
	return "literal"
}

// Transport is the remote cell grid.
//
// GetRange returns rows in sheet order; an absent or empty range yields an
// empty result, not an error. WriteRange overwrites the addressed cells.
// AppendRows writes after the last populated row of the table.
type Transport interface {
	GetRange(ctx context.Context, r Range) ([][]string, error)
	WriteRange(ctx context.Context, r Range, rows [][]string, mode WriteMode) error
	AppendRows(ctx context.Context, r Range, rows [][]string) error
}

// Closer is implemented by transports that hold resources.
type Closer interface {
	Close() error
}
