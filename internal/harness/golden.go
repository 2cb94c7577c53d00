package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is where RunWithGolden keeps snapshots, relative to the test's
// package directory.
const GoldenDir = "testdata/golden"

// Snapshot renders the final grid of a run: a comment line with the
// scenario name, then one line per sheet row holding its row number and its
// cells as a JSON array. Blank rows render as [].
func Snapshot(name string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", name)

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, row := range rows {
		if row == nil {
			row = []string{}
		}
		fmt.Fprintf(&buf, "%d ", i+1)
		if err := enc.Encode(row); err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i+1, err)
		}
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario, fails t on any failed expectation and
// compares the final grid with testdata/golden/<scenario.Name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return result, err
	}
	return result, nil
}

// AssertGolden compares an existing result's final grid with its golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snap, err := Snapshot(name, result.Grid)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snap)
	return nil
}
