package cost

import (
	"fmt"

	"github.com/roach88/mchain/internal/ir"
)

// Step is one multiplication in evaluation order.
type Step struct {
	Expr   ir.Expr
	Kernel Kernel
	Rows   int // rows of the left factor
	Inner  int // shared dimension
	Cols   int // cols of the right factor
	Flops  int64
}

// Breakdown lists the multiplications of e in post-order, which is the
// order they would be evaluated. A Nary contributes the multiplications of
// its left fold.
func Breakdown(e ir.Expr) ([]Step, error) {
	var steps []Step
	if err := walk(e, &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func walk(e ir.Expr, steps *[]Step) error {
	switch n := e.(type) {
	case *ir.Operand:
		return nil
	case *ir.Unary:
		return walk(n.Child(), steps)
	case *ir.Binary:
		if err := walk(n.Left(), steps); err != nil {
			return err
		}
		if err := walk(n.Right(), steps); err != nil {
			return err
		}
		return appendStep(steps, n, n.Left(), n.Right())
	case *ir.Nary:
		cs := n.Children()
		for _, c := range cs {
			if err := walk(c, steps); err != nil {
				return err
			}
		}
		acc := cs[0]
		for i := 1; i < len(cs); i++ {
			var node ir.Expr = n
			if i < len(cs)-1 {
				b, err := ir.NewBinary(acc, cs[i])
				if err != nil {
					return err
				}
				node = b
			}
			if err := appendStep(steps, node, acc, cs[i]); err != nil {
				return err
			}
			acc = node
		}
		return nil
	default:
		return fmt.Errorf("cost breakdown: %w", ir.ErrPrecondition)
	}
}

func appendStep(steps *[]Step, node, left, right ir.Expr) error {
	k, flops, err := Multiply(left, right)
	if err != nil {
		return fmt.Errorf("%s: %w", ir.Format(node), err)
	}
	ls, rs := ir.ShapeOf(left), ir.ShapeOf(right)
	*steps = append(*steps, Step{
		Expr:   node,
		Kernel: k,
		Rows:   ls.Rows(),
		Inner:  ls.Cols(),
		Cols:   rs.Cols(),
		Flops:  flops,
	})
	return nil
}
