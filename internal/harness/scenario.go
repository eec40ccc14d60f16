package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario drives the transaction and query builders through a list of
// steps and checks what they render.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps run in order. Transaction steps and query steps may be mixed.
	Steps []Step `yaml:"steps"`

	// Expect holds the renders to compare against. Empty fields are not
	// checked.
	Expect Expect `yaml:"expect"`
}

// Step is a single builder call. Exactly one field must be set.
type Step struct {
	Attribute *AttributeStep `yaml:"attribute,omitempty"`
	Add       *FactStep      `yaml:"add,omitempty"`
	Retract   *FactStep      `yaml:"retract,omitempty"`
	AddMany   *RecordStep    `yaml:"add_many,omitempty"`

	Find     []string   `yaml:"find,omitempty"`
	In       *InStep    `yaml:"in,omitempty"`
	Where    []TermStep `yaml:"where,omitempty"`
	Arg      []ArgStep  `yaml:"arg,omitempty"`
	Limit    *int       `yaml:"limit,omitempty"`
	Offset   *int       `yaml:"offset,omitempty"`
	RawQuery *RawStep   `yaml:"raw_query,omitempty"`
}

// AttributeStep appends an attribute definition. Field names follow the
// CUE schema form.
type AttributeStep struct {
	Namespace   string `yaml:"namespace,omitempty"`
	Name        string `yaml:"name"`
	Identity    string `yaml:"identity"`
	ValueType   string `yaml:"valueType"`
	Cardinality string `yaml:"cardinality,omitempty"`
	Doc         string `yaml:"doc,omitempty"`
	Unique      string `yaml:"unique,omitempty"`
	Index       bool   `yaml:"index,omitempty"`
	Fulltext    bool   `yaml:"fulltext,omitempty"`
	IsComponent bool   `yaml:"isComponent,omitempty"`
	NoHistory   bool   `yaml:"noHistory,omitempty"`
	Install     string `yaml:"install,omitempty"`
	Partition   string `yaml:"partition,omitempty"`
}

// FactStep is an add or retract of one entity/attribute/value.
type FactStep struct {
	Entity    string `yaml:"entity"`
	Attribute string `yaml:"attribute"`
	Value     any    `yaml:"value"`
	ID        *int64 `yaml:"id,omitempty"`
}

// RecordStep accretes several facts onto one new entity.
type RecordStep struct {
	ID    *int64     `yaml:"id,omitempty"`
	Facts []FactStep `yaml:"facts"`
}

// InStep is a query :in clause with an optional collection binding.
type InStep struct {
	Spec    string   `yaml:"spec"`
	Binding []string `yaml:"binding,omitempty"`
}

// TermStep is one term of a where clause: either bind: [var, attr] or
// pos: value.
type TermStep struct {
	Bind []string `yaml:"bind,omitempty"`
	Pos  any      `yaml:"pos,omitempty"`
}

// ArgStep is one term of an argument row: either key: name or
// pair: [key, value].
type ArgStep struct {
	Key  string   `yaml:"key,omitempty"`
	Pair []string `yaml:"pair,omitempty"`
}

// RawStep replaces the built query with literal text.
type RawStep struct {
	Query string `yaml:"query"`
	Args  string `yaml:"args,omitempty"`
}

// Expect lists the expected renders.
type Expect struct {
	// Transaction is the compact transaction render.
	Transaction string `yaml:"transaction,omitempty"`

	// Query is the query render, raw text for raw queries.
	Query string `yaml:"query,omitempty"`

	// Args is the rendered argument vector.
	Args string `yaml:"args,omitempty"`

	// Error is a substring of the first builder error. When set, the
	// scenario passes only if a builder rejected an input.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "step:" vs "steps:"
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

// LoadScenarios loads every .yaml and .yml file directly under dir,
// sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if n := step.kinds(); n != 1 {
			return fmt.Errorf("step %d: exactly one operation must be set, found %d", i, n)
		}
		for j, term := range step.Where {
			if (term.Bind != nil) == (term.Pos != nil) {
				return fmt.Errorf("step %d: where term %d needs exactly one of bind or pos", i, j)
			}
		}
		for j, arg := range step.Arg {
			if (arg.Key != "") == (arg.Pair != nil) {
				return fmt.Errorf("step %d: arg term %d needs exactly one of key or pair", i, j)
			}
			if arg.Pair != nil && len(arg.Pair) != 2 {
				return fmt.Errorf("step %d: arg term %d pair must have two elements", i, j)
			}
		}
	}
	return nil
}

func (s Step) kinds() int {
	n := 0
	for _, set := range []bool{
		s.Attribute != nil, s.Add != nil, s.Retract != nil, s.AddMany != nil,
		s.Find != nil, s.In != nil, s.Where != nil, s.Arg != nil,
		s.Limit != nil, s.Offset != nil, s.RawQuery != nil,
	} {
		if set {
			n++
		}
	}
	return n
}
