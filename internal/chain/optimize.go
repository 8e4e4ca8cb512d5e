package chain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/roach88/mchain/internal/cost"
	"github.com/roach88/mchain/internal/ir"
)

// Result is the outcome of one optimization run.
type Result struct {
	factors []ir.Expr
	m       [][]int64
	s       [][]int
	best    [][]ir.Expr
}

// OptimizeFactors runs the dynamic program over the given factors.
func OptimizeFactors(fs []ir.Expr) (*Result, error) {
	if err := ValidateFactors(fs); err != nil {
		return nil, err
	}
	n := len(fs)
	r := &Result{
		factors: append([]ir.Expr(nil), fs...),
		m:       make([][]int64, n+1),
		s:       make([][]int, n+1),
		best:    make([][]ir.Expr, n+1),
	}
	for i := range n + 1 {
		r.m[i] = make([]int64, n+1)
		r.s[i] = make([]int, n+1)
		r.best[i] = make([]ir.Expr, n+1)
	}
	for i := 1; i <= n; i++ {
		r.best[i][i] = fs[i-1]
	}

	// over[i][j] marks sub-chains whose every split overflows int64. They
	// price as math.MaxInt64 and never win against a representable split.
	over := make([][]bool, n+1)
	for i := range over {
		over[i] = make([]bool, n+1)
	}
	var overflow error

	for l := 2; l <= n; l++ {
		for i := 1; i <= n-l+1; i++ {
			j := i + l - 1
			found := false
			for k := i; k < j; k++ {
				cand, err := ir.NewBinary(r.best[i][k], r.best[k+1][j])
				if err != nil {
					return nil, err
				}
				c, err := splitCost(r, over, cand, i, k, j)
				var oe *cost.OverflowError
				if errors.As(err, &oe) {
					if r.best[i][j] == nil {
						r.best[i][j], r.s[i][j] = cand, k
					}
					overflow = fmt.Errorf("chain [%d..%d] split %d: %w", i, j, k, err)
					continue
				}
				if err != nil {
					return nil, fmt.Errorf("chain [%d..%d] split %d: %w", i, j, k, err)
				}
				if !found || c < r.m[i][j] {
					found = true
					r.m[i][j] = c
					r.s[i][j] = k
					r.best[i][j] = cand
				}
			}
			if !found {
				over[i][j] = true
				r.m[i][j] = math.MaxInt64
			}
		}
	}
	if over[1][n] {
		return nil, overflow
	}
	return r, nil
}

// splitCost prices joining best[i][k] and best[k+1][j] at the top.
func splitCost(r *Result, over [][]bool, cand ir.Expr, i, k, j int) (int64, error) {
	if over[i][k] || over[k+1][j] {
		return 0, &cost.OverflowError{Op: fmt.Sprintf("sub-chain of [%d..%d]", i, j)}
	}
	top, err := cost.TopLevel(cand)
	if err != nil {
		return 0, err
	}
	c, err := cost.Add(r.m[i][k], r.m[k+1][j])
	if err != nil {
		return 0, err
	}
	return cost.Add(c, top)
}

// Optimize collects the factors of e and optimizes them.
func Optimize(e ir.Expr) (*Result, error) {
	fs, err := Factors(e)
	if err != nil {
		return nil, err
	}
	return OptimizeFactors(fs)
}

// N returns the number of factors.
func (r *Result) N() int { return len(r.factors) }

// Factors returns a copy of the factor list.
func (r *Result) Factors() []ir.Expr { return append([]ir.Expr(nil), r.factors...) }

// Cost returns the minimal cost M[1][n].
func (r *Result) Cost() int64 { return r.m[1][r.N()] }

// CostAt returns M[i][j], or math.MaxInt64 when every split of i..j overflows.
func (r *Result) CostAt(i, j int) int64 { return r.m[i][j] }

// CostTable returns a copy of M.
func (r *Result) CostTable() [][]int64 {
	out := make([][]int64, len(r.m))
	for i, row := range r.m {
		out[i] = append([]int64(nil), row...)
	}
	return out
}

// Split returns a copy of the (n+1)×(n+1) split table S.
func (r *Result) Split() [][]int {
	out := make([][]int, len(r.s))
	for i, row := range r.s {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// Expr returns the materialized optimal tree. With one factor it is that
// factor.
func (r *Result) Expr() ir.Expr { return r.best[1][r.N()] }

// Parenthesize renders the optimal order, for example
// ((A1 (A2 A3)) ((A4 A5) A6)).
func (r *Result) Parenthesize() string {
	var sb strings.Builder
	r.paren(&sb, 1, r.N())
	return sb.String()
}

func (r *Result) paren(sb *strings.Builder, i, j int) {
	if i == j {
		sb.WriteString(ir.Format(r.factors[i-1]))
		return
	}
	k := r.s[i][j]
	sb.WriteByte('(')
	r.paren(sb, i, k)
	sb.WriteByte(' ')
	r.paren(sb, k+1, j)
	sb.WriteByte(')')
}

// Breakdown lists the multiplications of the optimal tree in evaluation
// order.
func (r *Result) Breakdown() ([]cost.Step, error) {
	return cost.Breakdown(r.Expr())
}

// OptimalCost returns the minimal cost of multiplying out e's chain.
func OptimalCost(e ir.Expr) (int64, error) {
	r, err := Optimize(e)
	if err != nil {
		return 0, err
	}
	return r.Cost(), nil
}

// OptimalSplit returns the split table for e's chain.
func OptimalSplit(e ir.Expr) ([][]int, error) {
	r, err := Optimize(e)
	if err != nil {
		return nil, err
	}
	return r.Split(), nil
}

// NaiveCost prices the left-to-right evaluation of fs.
func NaiveCost(fs []ir.Expr) (int64, error) {
	if err := ValidateFactors(fs); err != nil {
		return 0, err
	}
	e, err := ir.Fold(fs...)
	if err != nil {
		return 0, err
	}
	return cost.Full(e)
}
