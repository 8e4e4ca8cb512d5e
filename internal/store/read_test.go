package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mchain/internal/ir"
)

func TestReadPlan_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := testPlan("p1", 1)
	_, err := s.WritePlan(ctx, want)
	require.NoError(t, err)

	got, err := s.ReadPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadPlan_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadPlan(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, _, err := s.ReadRun(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestReadRun_EntriesInSeqOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, ir.Run{ID: "run-1", Source: "x", Seq: 1}))
	_, err := s.WritePlan(ctx, testPlan("p1", 2))
	require.NoError(t, err)

	// Written out of order on purpose.
	require.NoError(t, s.LinkPlan(ctx, ir.RunEntry{RunID: "run-1", Chain: "z", PlanID: "p1", Seq: 5}))
	require.NoError(t, s.LinkPlan(ctx, ir.RunEntry{RunID: "run-1", Chain: "b", PlanID: "p1", Seq: 3}))
	require.NoError(t, s.LinkPlan(ctx, ir.RunEntry{RunID: "run-1", Chain: "a", PlanID: "p1", Cached: true, Seq: 3}))

	_, entries, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].Chain)
	assert.True(t, entries[0].Cached)
	assert.Equal(t, "b", entries[1].Chain)
	assert.Equal(t, "z", entries[2].Chain)
}

func TestListRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	require.NoError(t, s.WriteRun(ctx, ir.Run{ID: "b", Source: "x", Seq: 2}))
	require.NoError(t, s.WriteRun(ctx, ir.Run{ID: "a", Source: "x", Seq: 2}))
	require.NoError(t, s.WriteRun(ctx, ir.Run{ID: "c", Source: "x", Seq: 1}))

	runs, err = s.ListRuns(ctx)
	require.NoError(t, err)
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestListPlans(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.WritePlan(ctx, testPlan("p2", 4))
	require.NoError(t, err)
	_, err = s.WritePlan(ctx, testPlan("p1", 2))
	require.NoError(t, err)

	plans, err := s.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "p1", plans[0].ID)
	assert.Equal(t, "p2", plans[1].ID)
}

func TestGetLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.GetLastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.WriteRun(ctx, ir.Run{ID: "run-1", Source: "x", Seq: 1}))
	_, err = s.WritePlan(ctx, testPlan("p1", 7))
	require.NoError(t, err)
	require.NoError(t, s.LinkPlan(ctx, ir.RunEntry{RunID: "run-1", Chain: "c", PlanID: "p1", Seq: 4}))

	seq, err = s.GetLastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
}
