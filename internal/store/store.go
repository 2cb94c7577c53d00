package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/gridstore/internal/codec"
	"github.com/roach88/gridstore/internal/grid"
	"github.com/roach88/gridstore/internal/model"
	"github.com/roach88/gridstore/internal/query"
	"github.com/roach88/gridstore/internal/schema"
)

// Config is everything a Store needs at construction.
type Config struct {
	// Table locates the spreadsheet tab that holds the records.
	Table grid.Table

	// Schema declares the record fields. It is copied; later changes by
	// the caller have no effect.
	Schema model.Schema

	// Connect authenticates and returns the transport. Required.
	Connect Connector

	// NewID generates identity tokens. Defaults to random UUIDs.
	NewID func() string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Store is a record store backed by one table of a cell grid.
// Methods are safe to call concurrently; see the package docs for what
// concurrent mutation of the same record means.
type Store struct {
	table  grid.Table
	gate   *Gate
	newID  func() string
	logger *slog.Logger
}

// New validates cfg and starts the readiness gate. It does not wait for the
// gate; the first operation does. ctx bounds initialization only.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Table.Validate(); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if err := cfg.Schema.Validate(); err != nil {
		return nil, err
	}
	if cfg.Connect == nil {
		return nil, errors.New("store: connector is required")
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Store{
		table:  cfg.Table,
		gate:   StartGate(ctx, cfg.Connect, cfg.Table, cfg.Schema.Clone(), cfg.Logger),
		newID:  cfg.NewID,
		logger: cfg.Logger,
	}, nil
}

// Table returns the table this store writes to.
func (s *Store) Table() grid.Table {
	return s.table
}

// Ready waits for initialization and reports its outcome.
func (s *Store) Ready(ctx context.Context) error {
	_, _, err := s.gate.Wait(ctx)
	return err
}

// State reports the readiness gate state without blocking.
func (s *Store) State() GateState {
	return s.gate.State()
}

// Binding waits for initialization and returns the bound header.
func (s *Store) Binding(ctx context.Context) (*schema.Binding, error) {
	_, b, err := s.gate.Wait(ctx)
	return b, err
}

// Create validates rec, assigns a fresh identity and appends one row.
// It issues exactly one remote call and never reads the table. The result
// is rec plus its identity; undeclared keys in rec are returned but not
// stored. A record with no non-empty declared value is rejected before the
// append, because its row would read as a tombstone.
func (s *Store) Create(ctx context.Context, rec model.Record) (model.Record, error) {
	tr, b, err := s.gate.Wait(ctx)
	if err != nil {
		return nil, err
	}

	row, err := codec.Encode(rec, b)
	if err != nil {
		return nil, opError("create", err)
	}
	id := s.newID()
	row[0] = id

	if err := tr.AppendRows(ctx, grid.WholeTable(s.table), [][]string{row}); err != nil {
		return nil, model.NewTransportError("create", err)
	}

	out := rec.Clone()
	out[model.IdentityColumn] = model.String(id)
	s.logger.Debug("record created", "table", s.table.String(), "id", id)
	return out, nil
}

// Find returns every live record matching q in row order. The result is
// empty, not nil, when nothing matches.
func (s *Store) Find(ctx context.Context, q model.Query) ([]model.Record, error) {
	tr, b, err := s.gate.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if err := query.Validate(q, b); err != nil {
		return nil, opError("find", err)
	}

	rows, err := s.fetch(ctx, tr, "find")
	if err != nil {
		return nil, err
	}

	out := []model.Record{}
	for _, row := range rows {
		if query.Matches(row, q, b) {
			out = append(out, codec.Decode(row, b))
		}
	}
	s.logger.Debug("find", "table", s.table.String(), "rows", len(rows), "matched", len(out))
	return out, nil
}

// FindOne returns the first live record matching q in row order. The bool
// is false when nothing matches. "First" means lowest row number, which is
// not necessarily the most recently written record.
func (s *Store) FindOne(ctx context.Context, q model.Query) (model.Record, bool, error) {
	tr, b, err := s.gate.Wait(ctx)
	if err != nil {
		return nil, false, err
	}
	if err := query.Validate(q, b); err != nil {
		return nil, false, opError("findOne", err)
	}

	rows, err := s.fetch(ctx, tr, "findOne")
	if err != nil {
		return nil, false, err
	}
	i := query.First(rows, q, b)
	if i < 0 {
		return nil, false, nil
	}
	return codec.Decode(rows[i], b), true, nil
}

// Update overwrites the patched fields of the first live record matching q
// and writes that single row back in place. The identity never changes:
// an IdentityColumn key in patch is ignored. The patch is checked against
// the declared types before the table is read. The result is decoded from
// the updated row, so it reflects cell coercion rather than raw patch values,
// and includes the identity. A patch that would leave the row with no
// non-empty cell besides the identity is rejected; that is what Delete does.
func (s *Store) Update(ctx context.Context, q model.Query, patch model.Record) (model.Record, error) {
	tr, b, err := s.gate.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if err := query.Validate(q, b); err != nil {
		return nil, opError("update", err)
	}
	if err := codec.ValidatePatch(patch, b); err != nil {
		return nil, opError("update", err)
	}

	rows, err := s.fetch(ctx, tr, "update")
	if err != nil {
		return nil, err
	}
	i := query.First(rows, q, b)
	if i < 0 {
		return nil, model.NewNotFoundError("update")
	}

	updated, err := codec.Patch(rows[i], patch, b)
	if err != nil {
		return nil, opError("update", err)
	}
	n := sheetRow(i)
	if err := tr.WriteRange(ctx, grid.SheetRow(s.table, n), [][]string{updated}, grid.Interpreted); err != nil {
		return nil, model.NewTransportError("update", err)
	}

	s.logger.Info("record updated", "table", s.table.String(), "row", n, "id", updated.Cell(0))
	return codec.Decode(updated, b), nil
}

// Delete blanks every cell of the first live record matching q, identity
// included, leaving a tombstone. It is irreversible and row numbers of
// later records do not change.
func (s *Store) Delete(ctx context.Context, q model.Query) error {
	tr, b, err := s.gate.Wait(ctx)
	if err != nil {
		return err
	}
	if err := query.Validate(q, b); err != nil {
		return opError("delete", err)
	}

	rows, err := s.fetch(ctx, tr, "delete")
	if err != nil {
		return err
	}
	i := query.First(rows, q, b)
	if i < 0 {
		return model.NewNotFoundError("delete")
	}

	n := sheetRow(i)
	blank := model.TombstoneRow(max(b.Width(), len(rows[i])))
	if err := tr.WriteRange(ctx, grid.SheetRow(s.table, n), [][]string{blank}, grid.Literal); err != nil {
		return model.NewTransportError("delete", err)
	}

	s.logger.Info("record deleted", "table", s.table.String(), "row", n, "id", rows[i].Cell(0))
	return nil
}

// Close releases the transport if it holds resources. A pending gate is
// waited for, so a transport connected late is still released; cancel the
// context passed to New first to bound that wait.
func (s *Store) Close() error {
	<-s.gate.Done()
	tr, _, err := s.gate.Wait(context.Background())
	if err != nil {
		return nil
	}
	if c, ok := tr.(grid.Closer); ok {
		return c.Close()
	}
	return nil
}

// fetch reads the whole table and returns the data rows, header skipped.
// Index i of the result is sheet row i+2.
func (s *Store) fetch(ctx context.Context, tr grid.Transport, op string) ([]model.Row, error) {
	cells, err := tr.GetRange(ctx, grid.WholeTable(s.table))
	if err != nil {
		return nil, model.NewTransportError(op, err)
	}
	if len(cells) <= 1 {
		return nil, nil
	}
	rows := make([]model.Row, len(cells)-1)
	for i, c := range cells[1:] {
		rows[i] = model.Row(c)
	}
	return rows, nil
}

// sheetRow converts a data row index into a sheet row number.
func sheetRow(i int) int {
	return i + grid.FirstDataRow
}

// opError tags model errors with the operation name.
func opError(op string, err error) error {
	var me *model.Error
	if errors.As(err, &me) {
		return me.WithOp(op)
	}
	return fmt.Errorf("%s: %w", op, err)
}
