package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/mchain/internal/compiler"
	"github.com/roach88/mchain/internal/ir"
	"github.com/roach88/mchain/internal/planner"
	"github.com/roach88/mchain/internal/store"
)

// OptimizeOptions holds flags for the optimize command.
type OptimizeOptions struct {
	*RootOptions
	Chain       string // plan only this chain
	Database    string // plan store; empty plans in memory only
	Parallelism int    // 0 uses the planner default
	MaxFactors  int    // 0 uses the planner default

	// RunIDs overrides the run ID generator (for testing).
	RunIDs planner.RunIDGenerator
}

// ChainResult is the outcome for one chain.
type ChainResult struct {
	Chain  string   `json:"chain"`
	Cached bool     `json:"cached"`
	Plan   *ir.Plan `json:"plan,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// OptimizeResult is the outcome of one optimize invocation.
type OptimizeResult struct {
	RunID  string        `json:"run_id"`
	Source string        `json:"source"`
	Chains []ChainResult `json:"chains"`
}

// NewOptimizeCommand creates the optimize command.
func NewOptimizeCommand(rootOpts *RootOptions) *cobra.Command {
	return newOptimizeCommand(&OptimizeOptions{RootOptions: rootOpts})
}

func newOptimizeCommand(opts *OptimizeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize <specs>",
		Short: "Find the cheapest evaluation order of each chain",
		Long: `Plan every chain declared in the CUE specs at <specs> (a directory
or a single file).

For each chain the optimizer reports the minimal FLOP count, the naive
left-to-right count, the optimal parenthesization and the kernel used for
each multiplication. With --db, plans are cached by expression hash and the
run is recorded for history.

Exit codes:
  0 - Every chain was planned
  1 - One or more chains failed to plan
  2 - Command error (bad specs, store error, unknown chain)

Examples:
  mchain optimize ./specs
  mchain optimize ./specs --chain gram
  mchain optimize ./specs --db ./plans.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Chain, "chain", "", "plan only the named chain")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite plan store")
	cmd.Flags().IntVar(&opts.Parallelism, "parallelism", 0, "concurrent chain optimizations (default GOMAXPROCS)")
	cmd.Flags().IntVar(&opts.MaxFactors, "max-factors", 0, "reject chains with more factors (default 512)")

	return cmd
}

func runOptimize(opts *OptimizeOptions, specsPath string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	bound, _, err := BindSpecs(specsPath)
	if err != nil {
		code, msg := loadErrorCode(err)
		return formatter.fail(ExitCommandError, code, msg)
	}

	if opts.Chain != "" {
		c, ok := bound.Chain(opts.Chain)
		if !ok {
			return formatter.fail(ExitCommandError, ErrCodeUnknownChain, fmt.Sprintf("no chain named %q in %s", opts.Chain, specsPath))
		}
		bound = &compiler.Bound{Operands: bound.Operands, Chains: []compiler.Chain{c}}
	}

	plannerOpts := []planner.Option{planner.WithLogger(logger)}
	if opts.Parallelism > 0 {
		plannerOpts = append(plannerOpts, planner.WithParallelism(opts.Parallelism))
	}
	if opts.MaxFactors > 0 {
		plannerOpts = append(plannerOpts, planner.WithMaxFactors(opts.MaxFactors))
	}
	if opts.RunIDs != nil {
		plannerOpts = append(plannerOpts, planner.WithRunIDGenerator(opts.RunIDs))
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("open store: %v", err))
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing store", "error", closeErr)
			}
		}()

		lastSeq, err := st.GetLastSeq(ctx)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("read last seq: %v", err))
		}
		logger.Debug("resuming clock", "seq", lastSeq)
		plannerOpts = append(plannerOpts, planner.WithClock(planner.NewClockAt(lastSeq)))
	}

	p := planner.New(st, plannerOpts...)
	report, err := p.PlanProgram(ctx, specsPath, bound)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, err.Error())
	}

	result := OptimizeResult{
		RunID:  report.Run.ID,
		Source: report.Run.Source,
		Chains: make([]ChainResult, len(report.Entries)),
	}
	for i, e := range report.Entries {
		cr := ChainResult{Chain: e.Chain, Cached: e.Cached, Plan: e.Plan}
		if e.Err != nil {
			cr.Error = e.Err.Error()
		}
		result.Chains[i] = cr
	}

	failed := report.Failed()
	if formatter.Format == "json" {
		if len(failed) > 0 {
			if err := formatter.Failure(ErrCodePlanFailed, fmt.Sprintf("%d chain(s) failed to plan", len(failed)), result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		writePlansText(formatter.Writer, result)
	}

	if len(failed) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d chain(s) failed to plan", ErrCodePlanFailed, len(failed)))
	}
	return nil
}

func writePlansText(w io.Writer, result OptimizeResult) {
	for _, c := range result.Chains {
		if c.Error != "" {
			fmt.Fprintf(w, "✗ %s\n  %s\n\n", c.Chain, c.Error)
			continue
		}
		plan := c.Plan
		suffix := ""
		if c.Cached {
			suffix = " (cached)"
		}
		fmt.Fprintf(w, "✓ %s%s\n", c.Chain, suffix)
		fmt.Fprintf(w, "  order:   %s\n", plan.Parens)
		fmt.Fprintf(w, "  cost:    %d flops (naive %d)\n", plan.Cost, plan.NaiveCost)
		for i, s := range plan.Steps {
			fmt.Fprintf(w, "  %d. %-4s %dx%dx%d  %d  %s\n", i+1, s.Kernel, s.Rows, s.Inner, s.Cols, s.Flops, s.Expr)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "run %s\n", result.RunID)
}
