package props

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/roach88/mchain/internal/ir"
)

const tol = 1e-9

// concrete builds a random matrix that satisfies o's declared properties.
func concrete(rng *rand.Rand, o *ir.Operand) *mat.Dense {
	r, c := o.Shape().Rows(), o.Shape().Cols()
	m := mat.NewDense(r, c, nil)
	for i := range r {
		for j := range c {
			m.Set(i, j, rng.Float64()*2-1)
		}
	}
	switch {
	case o.Has(ir.SPD):
		var g mat.Dense
		g.Mul(m.T(), m)
		for i := range r {
			g.Set(i, i, g.At(i, i)+float64(r))
		}
		return &g
	case o.Has(ir.Symmetric):
		var s mat.Dense
		s.Add(m, m.T())
		return &s
	}
	for i := range r {
		for j := range c {
			if (o.Has(ir.UpperTriangular) && i > j) || (o.Has(ir.LowerTriangular) && i < j) {
				m.Set(i, j, 0)
			}
		}
		if i < c && o.Has(ir.FullRank) {
			// Keep the diagonal away from zero so triangular factors stay invertible.
			m.Set(i, i, 1+math.Abs(m.At(i, i)))
		}
	}
	return m
}

func eval(t *testing.T, e ir.Expr, env map[*ir.Operand]*mat.Dense) *mat.Dense {
	t.Helper()
	switch n := e.(type) {
	case *ir.Operand:
		return env[n]
	case *ir.Unary:
		x := eval(t, n.Child(), env)
		if n.IsTranspose() {
			return mat.DenseCopyOf(x.T())
		}
		var inv mat.Dense
		require.NoError(t, inv.Inverse(x))
		return &inv
	case *ir.Binary:
		var p mat.Dense
		p.Mul(eval(t, n.Left(), env), eval(t, n.Right(), env))
		return &p
	case *ir.Nary:
		acc := eval(t, n.Child(0), env)
		for i := 1; i < n.Len(); i++ {
			var p mat.Dense
			p.Mul(acc, eval(t, n.Child(i), env))
			acc = &p
		}
		return acc
	}
	t.Fatalf("unexpected node %T", e)
	return nil
}

func holdsNumerically(m *mat.Dense, p ir.Property) bool {
	r, c := m.Dims()
	switch p {
	case ir.UpperTriangular, ir.LowerTriangular:
		for i := range r {
			for j := range c {
				below := i > j
				if p == ir.LowerTriangular {
					below = i < j
				}
				if below && math.Abs(m.At(i, j)) > tol {
					return false
				}
			}
		}
		return true
	case ir.Square:
		return r == c
	case ir.Symmetric:
		return r == c && mat.EqualApprox(m, m.T(), tol)
	case ir.FullRank:
		var svd mat.SVD
		if !svd.Factorize(m, mat.SVDNone) {
			return false
		}
		vals := svd.Values(nil)
		return vals[len(vals)-1] > tol*vals[0]
	case ir.SPD:
		if !holdsNumerically(m, ir.Symmetric) {
			return false
		}
		sym := mat.NewSymDense(r, nil)
		for i := range r {
			for j := i; j < r; j++ {
				sym.SetSym(i, j, m.At(i, j))
			}
		}
		var chol mat.Cholesky
		return chol.Factorize(sym)
	}
	return false
}

// TestInferenceIsSound evaluates each expression on random matrices that
// satisfy the declared properties and checks that every property reported
// True actually holds.
func TestInferenceIsSound(t *testing.T) {
	u := ir.Op("U", 4, 4, ir.UpperTriangular, ir.FullRank)
	l := ir.Op("L", 4, 4, ir.LowerTriangular, ir.FullRank)
	s := ir.Op("S", 4, 4, ir.SPD)
	y := ir.Op("Y", 4, 4, ir.Symmetric)
	g := ir.Op("G", 4, 4, ir.FullRank)
	f := ir.Op("F", 4, 3, ir.FullRank)

	exprs := []ir.Expr{
		u, l, s, y, g, f,
		ir.Trans(u),
		ir.Trans(l),
		ir.Trans(s),
		ir.Trans(y),
		ir.Inv(g),
		ir.Inv(u),
		ir.Trans(ir.Inv(l)),
		ir.Mul(u, u),
		ir.MulN(u, u, u),
		ir.Mul(l, ir.Trans(u)),
		ir.Mul(ir.Trans(g), g),
		ir.Mul(g, ir.Trans(g)),
		ir.MulN(ir.Trans(g), g),
		ir.Mul(ir.Trans(f), f),
		ir.Trans(ir.Mul(ir.Trans(g), g)),
		ir.Mul(ir.Trans(ir.Trans(u)), u),
		ir.Mul(s, y),
	}

	rng := rand.New(rand.NewPCG(7, 11))
	for trial := range 5 {
		env := map[*ir.Operand]*mat.Dense{}
		for _, o := range []*ir.Operand{u, l, s, y, g, f} {
			env[o] = concrete(rng, o)
		}
		for _, e := range exprs {
			r, err := Infer(e)
			require.NoError(t, err)
			m := eval(t, e, env)
			for _, p := range r.Holds().List() {
				assert.True(t, holdsNumerically(m, p),
					"trial %d: %s reported %s but it does not hold", trial, ir.Format(e), p)
			}
		}
	}
}
