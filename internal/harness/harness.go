package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/gridstore/internal/grid"
	"github.com/roach88/gridstore/internal/model"
	"github.com/roach88/gridstore/internal/store"
	"github.com/roach88/gridstore/internal/testutil"
)

// Harness executes one scenario against a fresh in-memory grid.
type Harness struct {
	store  *store.Store
	grid   *grid.Memory
	table  grid.Table
	logger *slog.Logger
}

// Run executes a scenario and returns the result. The returned error is
// reserved for scenarios that cannot be executed at all; failed
// expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	table := scenario.table()

	m := grid.NewMemory()
	if len(scenario.Grid) > 0 {
		m.Seed(table, scenario.Grid)
	}
	if scenario.FailInit != "" {
		m.FailNext(grid.OpGet, errors.New(scenario.FailInit))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.New(ctx, store.Config{
		Table:  table,
		Schema: scenario.Schema,
		Connect: func(context.Context) (grid.Transport, error) {
			return m, nil
		},
		NewID:  testutil.NewSequentialIDs(scenario.IDPrefix).Next,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	defer st.Close()

	h := &Harness{store: st, grid: m, table: table, logger: logger}

	// Initialization failures surface through each step.
	_ = st.Ready(ctx)

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("failed to execute step %d: %w", i, err)
		}
	}

	for _, msg := range EvaluateAssertions(scenario.Assertions, &AssertionContext{Grid: m, Table: table}) {
		result.AddError(msg)
	}
	result.Grid = m.Rows(table)
	return result, nil
}

// executeStep runs one operation and checks its expect clause. It returns
// an error only when the step's inputs cannot be converted.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	if step.Fail != "" {
		h.grid.FailNext(grid.Op(step.Fail), fmt.Errorf("injected %s failure", step.Fail))
	}

	q, err := model.QueryFromMap(step.Query)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	ev := TraceEvent{Step: i, Op: step.Op}
	var (
		opErr   error
		out     model.Record
		records []model.Record
		found   bool
	)

	switch step.Op {
	case OpCreate:
		rec, err := model.RecordFromMap(step.Record)
		if err != nil {
			return fmt.Errorf("record: %w", err)
		}
		ev.Input = step.Record
		out, opErr = h.store.Create(ctx, rec)

	case OpFind:
		ev.Input = step.Query
		records, opErr = h.store.Find(ctx, q)

	case OpFindOne:
		ev.Input = step.Query
		out, found, opErr = h.store.FindOne(ctx, q)

	case OpUpdate:
		patch, err := model.RecordFromMap(step.Patch)
		if err != nil {
			return fmt.Errorf("patch: %w", err)
		}
		ev.Input = map[string]any{"query": step.Query, "patch": step.Patch}
		out, opErr = h.store.Update(ctx, q, patch)

	case OpDelete:
		ev.Input = step.Query
		opErr = h.store.Delete(ctx, q)

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	switch {
	case records != nil:
		ev.Output = records
	case out != nil:
		ev.Output = out
	}
	if opErr != nil {
		ev.Error = errorCode(opErr)
	}
	result.AddTrace(ev)

	h.logger.Debug("step executed", "step", i, "op", step.Op, "error", ev.Error)

	for _, msg := range checkExpect(i, step, opErr, out, found, records) {
		result.AddError(msg)
	}
	return nil
}

// errorCode returns the store error code, or the message for errors that
// carry none.
func errorCode(err error) string {
	if code := model.CodeOf(err); code != "" {
		return string(code)
	}
	return err.Error()
}

func checkExpect(i int, step Step, opErr error, out model.Record, found bool, records []model.Record) []string {
	prefix := fmt.Sprintf("steps[%d] %s", i, step.Op)
	e := step.Expect
	if e == nil {
		if opErr != nil {
			return []string{fmt.Sprintf("%s: unexpected error: %v", prefix, opErr)}
		}
		return nil
	}

	if e.Error != "" {
		if opErr == nil {
			return []string{fmt.Sprintf("%s: expected error %s, got success", prefix, e.Error)}
		}
		if got := errorCode(opErr); got != e.Error {
			return []string{fmt.Sprintf("%s: expected error %s, got %s", prefix, e.Error, got)}
		}
		return nil
	}
	if opErr != nil {
		return []string{fmt.Sprintf("%s: unexpected error: %v", prefix, opErr)}
	}

	var errs []string
	if e.Found != nil && *e.Found != found {
		errs = append(errs, fmt.Sprintf("%s: expected found=%t, got %t", prefix, *e.Found, found))
	}
	if e.Count != nil && *e.Count != len(records) {
		errs = append(errs, fmt.Sprintf("%s: expected %d records, got %d", prefix, *e.Count, len(records)))
	}
	if e.Record != nil {
		if msg := matchRecord(out, e.Record); msg != "" {
			errs = append(errs, fmt.Sprintf("%s: %s", prefix, msg))
		}
	}
	if e.Records != nil {
		if len(e.Records) != len(records) {
			errs = append(errs, fmt.Sprintf("%s: expected %d records, got %d", prefix, len(e.Records), len(records)))
		} else {
			for j, want := range e.Records {
				if msg := matchRecord(records[j], want); msg != "" {
					errs = append(errs, fmt.Sprintf("%s: records[%d]: %s", prefix, j, msg))
				}
			}
		}
	}
	return errs
}

// matchRecord checks that every expected key is present in actual with an
// equal value. Extra keys in actual are ignored.
func matchRecord(actual model.Record, expected map[string]any) string {
	if actual == nil {
		return "expected a record, got none"
	}
	want, err := model.RecordFromMap(expected)
	if err != nil {
		return err.Error()
	}
	for _, key := range want.SortedKeys() {
		got, ok := actual[key]
		if !ok {
			return fmt.Sprintf("field %q missing", key)
		}
		if !model.Equal(got, want[key]) {
			return fmt.Sprintf("field %q: expected %s %q, got %s %q",
				key, want[key].Kind(), want[key].Cell(), got.Kind(), got.Cell())
		}
	}
	return ""
}
