package props

import (
	"fmt"

	"github.com/roach88/mchain/internal/ir"
)

// IsUpperTriangular reports whether e is known to be upper triangular.
func IsUpperTriangular(e ir.Expr) (bool, error) {
	return triangular(e, PredUpperTriangular, ir.UpperTriangular)
}

// IsLowerTriangular reports whether e is known to be lower triangular.
func IsLowerTriangular(e ir.Expr) (bool, error) {
	return triangular(e, PredLowerTriangular, ir.LowerTriangular)
}

// triangular implements both triangularity predicates; a transpose flips
// upper and lower, and a product is triangular when every factor is.
func triangular(e ir.Expr, p Predicate, want ir.Property) (bool, error) {
	switch n := e.(type) {
	case *ir.Operand:
		return n.Has(want), nil
	case *ir.Unary:
		if !n.IsTranspose() {
			return false, unsupported(p, e)
		}
		if want == ir.UpperTriangular {
			return IsLowerTriangular(n.Child())
		}
		return IsUpperTriangular(n.Child())
	case *ir.Binary:
		return allFactors(p, want, n.Left(), n.Right())
	case *ir.Nary:
		return allFactors(p, want, n.Children()...)
	default:
		return false, nilQuery(p)
	}
}

// allFactors evaluates left to right and stops at the first false factor.
func allFactors(p Predicate, want ir.Property, factors ...ir.Expr) (bool, error) {
	for _, f := range factors {
		ok, err := triangular(f, p, want)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// IsSquare reports whether e is declared square. Squareness of a product
// is not derived.
func IsSquare(e ir.Expr) (bool, error) {
	switch n := e.(type) {
	case *ir.Operand:
		return n.Has(ir.Square), nil
	case *ir.Unary:
		if !n.IsTranspose() {
			return false, unsupported(PredSquare, e)
		}
		return IsSquare(n.Child())
	case *ir.Binary, *ir.Nary:
		return false, unsupported(PredSquare, e)
	default:
		return false, nilQuery(PredSquare)
	}
}

// IsSymmetric reports whether e is known to be symmetric. A product is
// symmetric exactly when it is SPD by the Gram rule.
func IsSymmetric(e ir.Expr) (bool, error) {
	switch n := e.(type) {
	case *ir.Operand:
		return n.Has(ir.Symmetric), nil
	case *ir.Unary:
		if !n.IsTranspose() {
			return false, unsupported(PredSymmetric, e)
		}
		x := n.Child()
		sym, err := IsSymmetric(x)
		if err != nil || sym {
			return sym, err
		}
		// SPD is only defined on operands and products; for a unary child
		// SPD implies symmetric, so the disjunct adds nothing.
		if _, ok := x.(*ir.Unary); ok {
			return false, nil
		}
		return IsSPD(x)
	case *ir.Binary, *ir.Nary:
		return IsSPD(e)
	default:
		return false, nilQuery(PredSymmetric)
	}
}

// IsFullRank reports whether e is known to have full rank. Products are
// never reported full rank.
func IsFullRank(e ir.Expr) (bool, error) {
	switch n := e.(type) {
	case *ir.Operand:
		return n.Has(ir.FullRank), nil
	case *ir.Unary:
		return IsFullRank(n.Child())
	case *ir.Binary, *ir.Nary:
		return false, nil
	default:
		return false, nilQuery(PredFullRank)
	}
}

// IsSPD reports whether e is known to be symmetric positive definite. The
// only derived case is the Gram product X^T * X (or X * X^T) with X of
// full rank, where the two factors are transposes of each other by node
// identity.
func IsSPD(e ir.Expr) (bool, error) {
	switch n := e.(type) {
	case *ir.Operand:
		return n.Has(ir.SPD), nil
	case *ir.Unary:
		return false, unsupported(PredSPD, e)
	case *ir.Binary:
		return gram(n.Left(), n.Right())
	case *ir.Nary:
		if n.Len() != 2 {
			return false, nil
		}
		return gram(n.Child(0), n.Child(1))
	default:
		return false, nilQuery(PredSPD)
	}
}

func gram(l, r ir.Expr) (bool, error) {
	fr, err := IsFullRank(l)
	if err != nil || !fr {
		return false, err
	}
	return ir.IsTransposeOf(l, r), nil
}

func nilQuery(p Predicate) error {
	return fmt.Errorf("%s: nil expression: %w", p, ir.ErrPrecondition)
}
