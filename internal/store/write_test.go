package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mchain/internal/ir"
)

func TestWriteRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := ir.Run{ID: "run-1", Source: "specs/", Seq: 1}
	require.NoError(t, s.WriteRun(ctx, run))

	got, entries, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, got)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, ir.Run{ID: "run-1", Source: "a", Seq: 1}))
	require.NoError(t, s.WriteRun(ctx, ir.Run{ID: "run-1", Source: "b", Seq: 2}))

	got, _, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Source, "first write wins")
	assert.Equal(t, int64(1), got.Seq)
}

func TestWritePlan_ReportsInsertion(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inserted, err := s.WritePlan(ctx, testPlan("p1", 1))
	require.NoError(t, err)
	assert.True(t, inserted)

	dup := testPlan("p1", 9)
	dup.Cost = 1
	inserted, err = s.WritePlan(ctx, dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := s.ReadPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(15125), got.Cost)
	assert.Equal(t, int64(1), got.Seq)
}

func TestWritePlan_EmptyStepsAndSplits(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	plan := ir.Plan{ID: "single", Expr: "{}", Factors: 1, Parens: "A", Seq: 1}
	_, err := s.WritePlan(ctx, plan)
	require.NoError(t, err)

	got, err := s.ReadPlan(ctx, "single")
	require.NoError(t, err)
	assert.Empty(t, got.Steps)
	assert.Empty(t, got.Splits)
}

func TestLinkPlan(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, ir.Run{ID: "run-1", Source: "x", Seq: 1}))
	_, err := s.WritePlan(ctx, testPlan("p1", 2))
	require.NoError(t, err)

	require.NoError(t, s.LinkPlan(ctx, ir.RunEntry{RunID: "run-1", Chain: "c", PlanID: "p1", Seq: 3}))
	// Relinking the same chain is ignored.
	require.NoError(t, s.LinkPlan(ctx, ir.RunEntry{RunID: "run-1", Chain: "c", PlanID: "p1", Cached: true, Seq: 4}))

	_, entries, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ir.RunEntry{RunID: "run-1", Chain: "c", PlanID: "p1", Cached: false, Seq: 3}, entries[0])
}

func TestLinkPlan_MissingPlan(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, ir.Run{ID: "run-1", Source: "x", Seq: 1}))
	err := s.LinkPlan(ctx, ir.RunEntry{RunID: "run-1", Chain: "c", PlanID: "missing", Seq: 2})
	assert.Error(t, err)
}
