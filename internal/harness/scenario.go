package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gridstore/internal/grid"
	"github.com/roach88/gridstore/internal/model"
)

// DefaultTable is used when a scenario does not name one.
var DefaultTable = grid.Table{SpreadsheetID: "scenario", Tab: "Records"}

// Scenario defines one store test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Table defaults to DefaultTable.
	Table *grid.Table `yaml:"table,omitempty"`

	// IDPrefix defaults to "id".
	IDPrefix string `yaml:"id_prefix,omitempty"`

	// Schema is the declared record schema.
	Schema model.Schema `yaml:"schema"`

	// Grid seeds the table before the store starts, header first.
	Grid [][]string `yaml:"grid,omitempty"`

	// FailInit, when set, is the error message of a failed header read.
	FailInit string `yaml:"fail_init,omitempty"`

	// Steps run in order against one store.
	Steps []Step `yaml:"steps"`

	// Assertions check the final grid.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step operations.
const (
	OpCreate  = "create"
	OpFind    = "find"
	OpFindOne = "find_one"
	OpUpdate  = "update"
	OpDelete  = "delete"
)

// Step is one store operation.
type Step struct {
	// Op is one of create, find, find_one, update, delete.
	Op string `yaml:"op"`

	// Record is the create input.
	Record map[string]any `yaml:"record,omitempty"`

	// Query selects rows for find, find_one, update and delete.
	Query map[string]any `yaml:"query,omitempty"`

	// Patch is the update input.
	Patch map[string]any `yaml:"patch,omitempty"`

	// Fail injects a failure into the next remote call of this kind:
	// get, write or append.
	Fail string `yaml:"fail,omitempty"`

	// Expect checks the outcome. Nil means the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes a step outcome. Record fields are subset matches.
type Expect struct {
	// Error is the expected error code, e.g. NOT_FOUND.
	Error string `yaml:"error,omitempty"`

	// Record is matched against the returned record of create, update
	// and find_one.
	Record map[string]any `yaml:"record,omitempty"`

	// Records is matched position by position against find results.
	Records []map[string]any `yaml:"records,omitempty"`

	// Count is the expected number of find results.
	Count *int `yaml:"count,omitempty"`

	// Found is the expected find_one outcome.
	Found *bool `yaml:"found,omitempty"`
}

// Assertion checks the final grid.
type Assertion struct {
	Type    string         `yaml:"type"`
	Rows    [][]string     `yaml:"rows,omitempty"`
	Columns []string       `yaml:"columns,omitempty"`
	Row     int            `yaml:"row,omitempty"`
	Cells   []string       `yaml:"cells,omitempty"`
	Count   int            `yaml:"count,omitempty"`
	Calls   map[string]int `yaml:"calls,omitempty"`
}

// Assertion type constants.
const (
	AssertGrid      = "grid"
	AssertHeader    = "header"
	AssertRow       = "row"
	AssertLiveCount = "live_count"
	AssertCalls     = "calls"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// table returns the configured or default table.
func (s *Scenario) table() grid.Table {
	if s.Table != nil {
		return *s.Table
	}
	return DefaultTable
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if err := s.Schema.Validate(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if err := s.table().Validate(); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step *Step) error {
	switch step.Op {
	case OpCreate:
		if step.Record == nil {
			return fmt.Errorf("steps[%d]: record is required for create", i)
		}
	case OpUpdate:
		if step.Patch == nil {
			return fmt.Errorf("steps[%d]: patch is required for update", i)
		}
	case OpFind, OpFindOne, OpDelete:
	case "":
		return fmt.Errorf("steps[%d]: op is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
	}

	switch grid.Op(step.Fail) {
	case "", grid.OpGet, grid.OpWrite, grid.OpAppend:
	default:
		return fmt.Errorf("steps[%d]: fail must be get, write or append", i)
	}

	if e := step.Expect; e != nil {
		if e.Records != nil && step.Op != OpFind {
			return fmt.Errorf("steps[%d].expect: records only applies to find", i)
		}
		if e.Count != nil && step.Op != OpFind {
			return fmt.Errorf("steps[%d].expect: count only applies to find", i)
		}
		if e.Found != nil && step.Op != OpFindOne {
			return fmt.Errorf("steps[%d].expect: found only applies to find_one", i)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertGrid:
	case AssertHeader:
		if len(a.Columns) == 0 {
			return fmt.Errorf("assertions[%d]: columns is required for header", index)
		}
	case AssertRow:
		if a.Row < 1 {
			return fmt.Errorf("assertions[%d]: row must be a sheet row number", index)
		}
	case AssertLiveCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertCalls:
		if len(a.Calls) == 0 {
			return fmt.Errorf("assertions[%d]: calls is required", index)
		}
		for op := range a.Calls {
			switch grid.Op(op) {
			case grid.OpGet, grid.OpWrite, grid.OpAppend:
			default:
				return fmt.Errorf("assertions[%d]: unknown call kind %q", index, op)
			}
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
