package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/mchain/internal/ir"
)

// createTestStore opens a fresh store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testPlan returns the CLRS 6-matrix plan with the given id and seq.
func testPlan(id string, seq int64) ir.Plan {
	return ir.Plan{
		ID:        id,
		Expr:      `{"kind":"nmul"}`,
		Factors:   6,
		Cost:      15125,
		NaiveCost: 40500,
		Parens:    "((A1 (A2 A3)) ((A4 A5) A6))",
		Splits: [][]int{
			{0, 1, 1, 3, 3, 3},
			{0, 0, 2, 3, 3, 3},
		},
		Steps: []ir.PlanStep{
			{Expr: "A2 * A3", Kernel: "GEMM", Rows: 35, Inner: 15, Cols: 5, Flops: 5250},
			{Expr: "A1 * (A2 * A3)", Kernel: "GEMM", Rows: 30, Inner: 35, Cols: 5, Flops: 10500},
		},
		Seq: seq,
	}
}
