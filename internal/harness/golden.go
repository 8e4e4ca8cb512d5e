package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mchain/internal/ir"
)

// PlanSnapshot captures the planned chains of a scenario execution.
// Serialized with canonical JSON for deterministic comparison.
type PlanSnapshot struct {
	ScenarioName string
	Chains       []ChainOutcome
}

// toCanonicalMap converts the snapshot to plain values for canonical JSON.
// Plan IDs and seq numbers are not part of the snapshot.
func (s *PlanSnapshot) toCanonicalMap() map[string]any {
	chains := make([]any, len(s.Chains))
	for i, o := range s.Chains {
		m := map[string]any{"chain": o.Chain}
		if o.Error != "" {
			m["error"] = o.Error
			chains[i] = m
			continue
		}
		steps := make([]any, len(o.Plan.Steps))
		for j, st := range o.Plan.Steps {
			steps[j] = map[string]any{
				"expr":   st.Expr,
				"kernel": st.Kernel,
				"flops":  st.Flops,
			}
		}
		m["cost"] = o.Plan.Cost
		m["naive_cost"] = o.Plan.NaiveCost
		m["factors"] = o.Plan.Factors
		m["parens"] = o.Plan.Parens
		m["steps"] = steps
		chains[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"chains":        chains,
	}
}

// Bytes renders the snapshot as canonical JSON.
func (s *PlanSnapshot) Bytes() ([]byte, error) {
	return ir.MarshalCanonicalValue(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its plans against a golden
// file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the plans don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := PlanSnapshot{ScenarioName: scenarioName, Chains: result.Chains}
	data, err := snapshot.Bytes()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
