package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mchain/internal/ir"
	"github.com/roach88/mchain/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
}

// RunDetail is one recorded run with the plans it used.
type RunDetail struct {
	Run     ir.Run         `json:"run"`
	Entries []HistoryEntry `json:"entries"`
}

// HistoryEntry is one chain of a recorded run.
type HistoryEntry struct {
	ir.RunEntry
	Plan *ir.Plan `json:"plan,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs or show one run",
		Long: `Read the plan store written by optimize --db.

Without arguments, lists every run in seq order. With a run ID, shows each
chain of that run, whether its plan was cached and the plan itself.

Example:
  mchain history --db ./plans.db
  mchain history --db ./plans.db 01920000-0000-7000-8000-000000000000`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runHistory(opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite plan store (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	// store.Open creates missing files; history only reads existing stores.
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database))
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("open store: %v", err))
	}
	defer st.Close()

	if runID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStoreFailed, err.Error())
		}
		if formatter.Format == "json" {
			return formatter.Success(runs)
		}
		writeRunsText(formatter.Writer, runs)
		return nil
	}

	run, entries, err := st.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return formatter.fail(ExitCommandError, ErrCodeRunNotFound, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, err.Error())
	}

	detail := RunDetail{Run: run, Entries: make([]HistoryEntry, len(entries))}
	for i, e := range entries {
		plan, err := st.ReadPlan(ctx, e.PlanID)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("read plan %s: %v", e.PlanID, err))
		}
		detail.Entries[i] = HistoryEntry{RunEntry: e, Plan: &plan}
	}

	if formatter.Format == "json" {
		return formatter.Success(detail)
	}
	writeRunText(formatter.Writer, detail)
	return nil
}

func writeRunsText(w io.Writer, runs []ir.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%6d  %s  %s\n", r.Seq, r.ID, r.Source)
	}
}

func writeRunText(w io.Writer, d RunDetail) {
	fmt.Fprintf(w, "run %s (seq %d)\n", d.Run.ID, d.Run.Seq)
	fmt.Fprintf(w, "source: %s\n\n", d.Run.Source)
	for _, e := range d.Entries {
		tag := "planned"
		if e.Cached {
			tag = "cached"
		}
		fmt.Fprintf(w, "  %-16s %-8s %12d  %s\n", e.Chain, tag, e.Plan.Cost, e.Plan.Parens)
	}
}
