package chain

import (
	"errors"
	"fmt"

	"github.com/roach88/mchain/internal/ir"
)

// ErrUnsupportedFactor is returned by Factors for an inverse applied to a
// product, which cannot be split into chain factors.
var ErrUnsupportedFactor = errors.New("unsupported chain factor")

// ShapeError reports an invalid factor list: empty, nil, or adjacent
// factors that are not conformable.
type ShapeError struct {
	Index   int // index of the right-hand factor of the bad pair, or -1
	Left    ir.Shape
	Right   ir.Shape
	Message string
}

func (e *ShapeError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("chain: factors %d and %d are not conformable: %s * %s", e.Index-1, e.Index, e.Left, e.Right)
	}
	return "chain: " + e.Message
}

// Is makes errors.Is(err, ir.ErrPrecondition) hold.
func (e *ShapeError) Is(target error) bool {
	return target == ir.ErrPrecondition
}

// Factors flattens the products of e into an ordered factor list, left to
// right. A factor is an operand or a chain of unary nodes ending at an
// operand. A transpose over a product is distributed first (see
// ir.NormalForm); an inverse over a product is rejected.
func Factors(e ir.Expr) ([]ir.Expr, error) {
	var out []ir.Expr
	if err := collect(e, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func collect(e ir.Expr, out *[]ir.Expr) error {
	switch n := e.(type) {
	case *ir.Operand:
		*out = append(*out, n)
		return nil
	case *ir.Unary:
		if leafChain(n) {
			*out = append(*out, n)
			return nil
		}
		nf := ir.NormalForm(n)
		if !ir.IsProduct(nf) {
			return fmt.Errorf("%s: %w", ir.Format(n), ErrUnsupportedFactor)
		}
		return collect(nf, out)
	case *ir.Binary:
		if err := collect(n.Left(), out); err != nil {
			return err
		}
		return collect(n.Right(), out)
	case *ir.Nary:
		for _, c := range n.Children() {
			if err := collect(c, out); err != nil {
				return err
			}
		}
		return nil
	default:
		return &ShapeError{Index: -1, Message: "nil factor"}
	}
}

// leafChain reports whether u is a run of unary nodes over an operand.
func leafChain(u *ir.Unary) bool {
	var e ir.Expr = u
	for {
		switch n := e.(type) {
		case *ir.Unary:
			e = n.Child()
		case *ir.Operand:
			return true
		default:
			return false
		}
	}
}

// ValidateFactors checks that fs is a non-empty list of non-nil,
// pairwise-conformable factors.
func ValidateFactors(fs []ir.Expr) error {
	if len(fs) == 0 {
		return &ShapeError{Index: -1, Message: "at least one factor is required"}
	}
	for i, f := range fs {
		if f == nil {
			return &ShapeError{Index: -1, Message: fmt.Sprintf("factor %d is nil", i)}
		}
		if i == 0 {
			continue
		}
		l, r := ir.ShapeOf(fs[i-1]), ir.ShapeOf(f)
		if !l.Conformable(r) {
			return &ShapeError{Index: i, Left: l, Right: r}
		}
	}
	return nil
}
