package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/mchain/internal/ir"
)

// ReadPlan retrieves a plan by content hash.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadPlan(ctx context.Context, id string) (ir.Plan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, expr, factors, cost, naive_cost, parens, splits, steps, seq
		FROM plans
		WHERE id = ?
	`, id)

	return scanPlan(row)
}

// ReadRun retrieves a run and its chain entries in seq order.
// Returns sql.ErrNoRows if the run does not exist.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, []ir.RunEntry, error) {
	var run ir.Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, seq FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Source, &run.Seq)
	if err != nil {
		return ir.Run{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, chain, plan_id, cached, seq
		FROM run_plans
		WHERE run_id = ?
		ORDER BY seq ASC, chain COLLATE BINARY ASC
	`, id)
	if err != nil {
		return ir.Run{}, nil, fmt.Errorf("query run plans: %w", err)
	}
	defer rows.Close()

	entries := []ir.RunEntry{}
	for rows.Next() {
		var e ir.RunEntry
		var cached int
		if err := rows.Scan(&e.RunID, &e.Chain, &e.PlanID, &cached, &e.Seq); err != nil {
			return ir.Run{}, nil, fmt.Errorf("scan run plan: %w", err)
		}
		e.Cached = cached != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return ir.Run{}, nil, fmt.Errorf("iterate run plans: %w", err)
	}

	return run, entries, nil
}

// ListRuns returns every run in seq order.
// Returns an empty slice (not nil) if the store has no runs.
func (s *Store) ListRuns(ctx context.Context) ([]ir.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, seq
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		var r ir.Run
		if err := rows.Scan(&r.ID, &r.Source, &r.Seq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ListPlans returns every stored plan in seq order.
func (s *Store) ListPlans(ctx context.Context) ([]ir.Plan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, expr, factors, cost, naive_cost, parens, splits, steps, seq
		FROM plans
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	plans := []ir.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return plans, nil
}

// GetLastSeq returns the highest seq number used in the store.
// Used to resume the logical clock from the correct position.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var maxSeq int64
	for _, table := range []string{"runs", "plans", "run_plans"} {
		var seq int64
		err := s.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COALESCE(MAX(seq), 0) FROM %s", table),
		).Scan(&seq)
		if err != nil {
			return 0, fmt.Errorf("get last seq from %s: %w", table, err)
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanPlan reads one plans row. sql.ErrNoRows is returned unwrapped so
// callers can compare against it directly.
func scanPlan(row scanner) (ir.Plan, error) {
	var p ir.Plan
	var splitsJSON, stepsJSON string
	err := row.Scan(
		&p.ID,
		&p.Expr,
		&p.Factors,
		&p.Cost,
		&p.NaiveCost,
		&p.Parens,
		&splitsJSON,
		&stepsJSON,
		&p.Seq,
	)
	if err == sql.ErrNoRows {
		return ir.Plan{}, err
	}
	if err != nil {
		return ir.Plan{}, fmt.Errorf("scan plan: %w", err)
	}

	p.Splits, err = unmarshalSplits(splitsJSON)
	if err != nil {
		return ir.Plan{}, err
	}
	p.Steps, err = unmarshalSteps(stepsJSON)
	if err != nil {
		return ir.Plan{}, err
	}
	return p, nil
}
