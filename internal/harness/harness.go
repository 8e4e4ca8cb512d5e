package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/mchain/internal/compiler"
	"github.com/roach88/mchain/internal/cost"
	"github.com/roach88/mchain/internal/planner"
	"github.com/roach88/mchain/internal/store"
	"github.com/roach88/mchain/internal/testutil"
)

// Harness is the scenario execution context.
// It plans chains with a deterministic clock and run ID.
type Harness struct {
	store   *store.Store
	planner *planner.Planner
	clock   *testutil.DeterministicClock
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Compile and bind the scenario's specs
//  2. Plan every chain through the planner
//  3. Check expect entries against the plans
//  4. Evaluate assertions against the bound expressions
//
// Compile and bind failures are returned as errors; everything after that is
// reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	prog, err := loadProgram(scenario.Specs)
	if err != nil {
		return nil, err
	}
	bound, err := compiler.Bind(prog)
	if err != nil {
		return nil, fmt.Errorf("failed to bind specs: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  testutil.NewDeterministicClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	h.planner = planner.New(st,
		planner.WithLogger(h.logger),
		planner.WithClock(h.clock),
		planner.WithRunIDGenerator(testutil.NewFixedRunGenerator(scenario.RunID)),
		planner.WithParallelism(1),
	)

	ctx := context.Background()
	report, err := h.planner.PlanProgram(ctx, scenario.Name, bound)
	if err != nil {
		return nil, fmt.Errorf("failed to plan: %w", err)
	}

	result := NewResult()
	result.Run = report.Run
	for _, e := range report.Entries {
		o := ChainOutcome{Chain: e.Chain, Plan: e.Plan, Cached: e.Cached}
		if e.Err != nil {
			o.Error = e.Err.Error()
		}
		result.Chains = append(result.Chains, o)
	}

	if err := h.checkStored(ctx, result); err != nil {
		return nil, err
	}

	h.checkExpectations(bound, scenario, result)

	for _, msg := range EvaluateAssertions(bound, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// checkStored verifies the run was recorded with one link per planned chain.
func (h *Harness) checkStored(ctx context.Context, result *Result) error {
	_, entries, err := h.store.ReadRun(ctx, result.Run.ID)
	if err != nil {
		return fmt.Errorf("failed to read run back: %w", err)
	}
	planned := 0
	for _, o := range result.Chains {
		if o.Plan != nil {
			planned++
		}
	}
	if len(entries) != planned {
		return fmt.Errorf("store has %d run links, planner produced %d plans", len(entries), planned)
	}
	return nil
}

// checkExpectations compares each expect entry with the chain outcomes.
// Failed chains with no matching expect.error are failures too.
func (h *Harness) checkExpectations(bound *compiler.Bound, scenario *Scenario, result *Result) {
	expected := make(map[string]bool, len(scenario.Expect))

	for _, exp := range scenario.Expect {
		expected[exp.Chain] = true

		out, ok := result.Outcome(exp.Chain)
		if !ok {
			result.AddError(fmt.Sprintf("expect: unknown chain %q", exp.Chain))
			continue
		}

		if exp.Error != "" {
			switch {
			case out.Error == "":
				result.AddError(fmt.Sprintf("chain %s: expected error containing %q, got plan", exp.Chain, exp.Error))
			case !strings.Contains(out.Error, exp.Error):
				result.AddError(fmt.Sprintf("chain %s: expected error containing %q, got %q", exp.Chain, exp.Error, out.Error))
			}
			continue
		}
		if out.Error != "" {
			result.AddError(fmt.Sprintf("chain %s: unexpected error: %s", exp.Chain, out.Error))
			continue
		}

		if exp.Cost != nil && out.Plan.Cost != *exp.Cost {
			result.AddError(fmt.Sprintf("chain %s: cost = %d, want %d", exp.Chain, out.Plan.Cost, *exp.Cost))
		}
		if exp.Parens != "" && out.Plan.Parens != exp.Parens {
			result.AddError(fmt.Sprintf("chain %s: parens = %s, want %s", exp.Chain, out.Plan.Parens, exp.Parens))
		}

		c, _ := bound.Chain(exp.Chain)
		if exp.FullCost != nil {
			got, err := cost.Full(c.Expr)
			switch {
			case err != nil:
				result.AddError(fmt.Sprintf("chain %s: full cost: %v", exp.Chain, err))
			case got != *exp.FullCost:
				result.AddError(fmt.Sprintf("chain %s: full cost = %d, want %d", exp.Chain, got, *exp.FullCost))
			}
		}
		if exp.TopLevel != nil {
			got, err := cost.TopLevel(c.Expr)
			switch {
			case err != nil:
				result.AddError(fmt.Sprintf("chain %s: top-level cost: %v", exp.Chain, err))
			case got != *exp.TopLevel:
				result.AddError(fmt.Sprintf("chain %s: top-level cost = %d, want %d", exp.Chain, got, *exp.TopLevel))
			}
		}
	}

	for _, out := range result.Chains {
		if out.Error != "" && !expected[out.Chain] {
			result.AddError(fmt.Sprintf("chain %s: unexpected error: %s", out.Chain, out.Error))
		}
	}
}

// loadProgram compiles each spec path (file or directory) and merges the
// programs. Operand and chain names must be unique across specs.
func loadProgram(paths []string) (*compiler.Program, error) {
	merged := &compiler.Program{}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat spec: %w", err)
		}

		var p *compiler.Program
		if info.IsDir() {
			p, err = compiler.CompileDir(path)
		} else {
			p, err = compiler.CompileFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s: %w", path, err)
		}

		for _, o := range p.Operands {
			if _, dup := merged.Operand(o.Name); dup {
				return nil, fmt.Errorf("%s: operand %q already declared", path, o.Name)
			}
			merged.Operands = append(merged.Operands, o)
		}
		for _, c := range p.Chains {
			if _, dup := merged.Chain(c.Name); dup {
				return nil, fmt.Errorf("%s: chain %q already declared", path, c.Name)
			}
			merged.Chains = append(merged.Chains, c)
		}
	}
	return merged, nil
}
