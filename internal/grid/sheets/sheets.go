package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/roach88/gridstore/internal/grid"
	"github.com/roach88/gridstore/internal/model"
)

// Scope is the OAuth scope the transport needs.
const Scope = sheetsapi.SpreadsheetsScope

const (
	majorRows    = "ROWS"
	renderFormat = "FORMATTED_VALUE"
	inputRaw     = "RAW"
	inputUser    = "USER_ENTERED"
	insertRows   = "INSERT_ROWS"
)

// Transport talks to one Sheets API service. It may address any
// spreadsheet the credentials can reach.
type Transport struct {
	svc    *sheetsapi.Service
	logger *slog.Logger
}

var _ grid.Transport = (*Transport)(nil)

// New creates a transport. Pass option.WithHTTPClient with an authorized
// client, or option.WithTokenSource.
func New(ctx context.Context, opts ...option.ClientOption) (*Transport, error) {
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &Transport{svc: svc, logger: slog.Default()}, nil
}

// WithLogger sets the logger that receives per-call debug records.
func (t *Transport) WithLogger(logger *slog.Logger) *Transport {
	if logger != nil {
		t.logger = logger
	}
	return t
}

// NewWithClient creates a transport that sends requests through client.
func NewWithClient(ctx context.Context, client *http.Client) (*Transport, error) {
	return New(ctx, option.WithHTTPClient(client))
}

// GetRange implements grid.Transport.
func (t *Transport) GetRange(ctx context.Context, r grid.Range) ([][]string, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	resp, err := t.svc.Spreadsheets.Values.Get(r.Table.SpreadsheetID, r.A1()).
		MajorDimension(majorRows).
		ValueRenderOption(renderFormat).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrap("get", r, err)
	}
	t.logger.Debug("sheets get", "range", r.String(), "rows", len(resp.Values))
	return toCells(resp.Values), nil
}

// WriteRange implements grid.Transport.
func (t *Transport) WriteRange(ctx context.Context, r grid.Range, rows [][]string, mode grid.WriteMode) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Kind != grid.RangeTable && len(rows) > 1 {
		return fmt.Errorf("sheets: %s addresses one row, got %d", r, len(rows))
	}
	vr := &sheetsapi.ValueRange{
		MajorDimension: majorRows,
		Range:          r.A1(),
		Values:         toValues(rows),
	}
	_, err := t.svc.Spreadsheets.Values.Update(r.Table.SpreadsheetID, r.A1(), vr).
		ValueInputOption(inputOption(mode)).
		Context(ctx).
		Do()
	if err != nil {
		return wrap("update", r, err)
	}
	t.logger.Debug("sheets update", "range", r.String(), "mode", mode.String())
	return nil
}

// AppendRows implements grid.Transport.
func (t *Transport) AppendRows(ctx context.Context, r grid.Range, rows [][]string) error {
	if err := r.Validate(); err != nil {
		return err
	}
	vr := &sheetsapi.ValueRange{
		MajorDimension: majorRows,
		Values:         toValues(rows),
	}
	resp, err := t.svc.Spreadsheets.Values.Append(r.Table.SpreadsheetID, r.A1(), vr).
		ValueInputOption(inputUser).
		InsertDataOption(insertRows).
		ResponseValueRenderOption(renderFormat).
		Context(ctx).
		Do()
	if err != nil {
		return wrap("append", r, err)
	}
	if resp.Updates != nil {
		t.logger.Debug("sheets append", "range", resp.Updates.UpdatedRange, "rows", resp.Updates.UpdatedRows)
	}
	return nil
}

// StatusCode returns the HTTP status of a failed API call, or 0 when err
// did not come from the service.
func StatusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

func wrap(op string, r grid.Range, err error) error {
	if code := StatusCode(err); code != 0 {
		return fmt.Errorf("sheets: %s %s: HTTP %d: %w", op, r, code, err)
	}
	return fmt.Errorf("sheets: %s %s: %w", op, r, err)
}

func inputOption(mode grid.WriteMode) string {
	if mode == grid.Interpreted {
		return inputUser
	}
	return inputRaw
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		vals := make([]interface{}, len(row))
		for j, cell := range row {
			vals[j] = cell
		}
		out[i] = vals
	}
	return out
}

func toCells(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		out[i] = cells
	}
	return out
}

// cellString renders an API value. Formatted reads return strings; the
// other cases cover unformatted responses.
func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return model.CellTrue
		}
		return model.CellFalse
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
