package store

import (
	"context"
	"fmt"

	"github.com/roach88/mchain/internal/ir"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteRun(ctx context.Context, run ir.Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source, seq)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Source, run.Seq)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WritePlan inserts a plan keyed by its content hash and reports whether a
// new row was written. A plan already present is left untouched, so the
// first writer's seq wins.
//
// Splits and steps are serialized to canonical JSON for stable storage.
func (s *Store) WritePlan(ctx context.Context, plan ir.Plan) (inserted bool, err error) {
	splitsJSON, err := marshalSplits(plan.Splits)
	if err != nil {
		return false, fmt.Errorf("write plan: %w", err)
	}
	stepsJSON, err := marshalSteps(plan.Steps)
	if err != nil {
		return false, fmt.Errorf("write plan: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO plans
		(id, expr, factors, cost, naive_cost, parens, splits, steps, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		plan.ID,
		plan.Expr,
		plan.Factors,
		plan.Cost,
		plan.NaiveCost,
		plan.Parens,
		splitsJSON,
		stepsJSON,
		plan.Seq,
	)
	if err != nil {
		return false, fmt.Errorf("write plan: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write plan: rows affected: %w", err)
	}
	return n > 0, nil
}

// LinkPlan records that a named chain of a run is served by a plan.
// Note: The run and the plan must exist (foreign key constraints).
// A chain is linked at most once per run; later links are ignored.
func (s *Store) LinkPlan(ctx context.Context, entry ir.RunEntry) error {
	cached := 0
	if entry.Cached {
		cached = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_plans (run_id, chain, plan_id, cached, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, chain) DO NOTHING
	`, entry.RunID, entry.Chain, entry.PlanID, cached, entry.Seq)
	if err != nil {
		return fmt.Errorf("link plan: %w", err)
	}
	return nil
}
