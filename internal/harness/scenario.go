package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mchain/internal/ir"
)

// Scenario is one planner test case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists CUE files or directories to compile. Relative paths are
	// resolved against the scenario file's directory.
	Specs []string `yaml:"specs"`

	// Expect lists per-chain planning results.
	Expect []ChainExpect `yaml:"expect,omitempty"`

	// Assertions check properties and structural relations.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID fixes the run identifier. Defaults to testutil.DefaultRunID.
	RunID string `yaml:"run_id,omitempty"`
}

// ChainExpect is the expected planning outcome for one chain. Nil fields are
// not checked.
type ChainExpect struct {
	Chain string `yaml:"chain"`

	// Cost is the optimal FLOP count.
	Cost *int64 `yaml:"cost,omitempty"`

	// FullCost is the FLOP count of the chain evaluated as written.
	FullCost *int64 `yaml:"full_cost,omitempty"`

	// TopLevel is the cost of the chain's root multiplication as written.
	TopLevel *int64 `yaml:"top_level,omitempty"`

	// Parens is the optimal parenthesization.
	Parens string `yaml:"parens,omitempty"`

	// Error, when set, expects planning to fail with a message containing it.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks a relation over compiled chains.
type Assertion struct {
	// Type is one of property, same, transpose_of.
	Type string `yaml:"type"`

	// Chain is the subject chain.
	Chain string `yaml:"chain"`

	// Other is the second chain (same, transpose_of).
	Other string `yaml:"other,omitempty"`

	// Property is a property name such as SPD (property).
	Property string `yaml:"property,omitempty"`

	// Holds is the expected truth value.
	Holds bool `yaml:"holds"`

	// Unsupported expects the property query to be undecidable (property).
	Unsupported bool `yaml:"unsupported,omitempty"`
}

// Assertion type constants.
const (
	AssertProperty    = "property"
	AssertSame        = "same"
	AssertTransposeOf = "transpose_of"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve spec paths relative to the scenario BEFORE validation
	base := filepath.Dir(path)
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) {
			scenario.Specs[i] = filepath.Join(base, specPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file
// name.
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

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	if len(s.Expect) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("at least one expect or assertions entry is required")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for i, e := range s.Expect {
		if e.Chain == "" {
			return fmt.Errorf("expect[%d]: chain is required", i)
		}
		if e.Error != "" && (e.Cost != nil || e.Parens != "") {
			return fmt.Errorf("expect[%d]: error cannot be combined with cost or parens", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Chain == "" {
		return fmt.Errorf("assertions[%d]: chain is required", index)
	}

	switch a.Type {
	case AssertProperty:
		if a.Property == "" {
			return fmt.Errorf("assertions[%d]: property is required for property", index)
		}
		if _, err := ir.ParseProperty(a.Property); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Unsupported && a.Holds {
			return fmt.Errorf("assertions[%d]: holds and unsupported are exclusive", index)
		}
	case AssertSame, AssertTransposeOf:
		if a.Other == "" {
			return fmt.Errorf("assertions[%d]: other is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
