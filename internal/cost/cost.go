// Package cost prices matrix multiplications.
//
// A dense m×k by k×n product costs 2·m·k·n floating-point operations (one
// multiply and one add per inner-product term). When the left factor is
// lower triangular the product runs as TRMM, and when it is symmetric as
// SYMM; both halve the dense cost. Only the left factor is consulted.
package cost

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/roach88/mchain/internal/ir"
	"github.com/roach88/mchain/internal/props"
)

// FlopsPerMulAdd is the operation count of one inner-product term.
const FlopsPerMulAdd = 2

// ErrNotProduct is returned when a cost is requested for a node that is not
// a multiplication.
var ErrNotProduct = errors.New("expression is not a product")

// Kernel is the BLAS routine selected for a multiplication.
type Kernel string

const (
	GEMM Kernel = "GEMM" // general dense
	TRMM Kernel = "TRMM" // triangular left factor
	SYMM Kernel = "SYMM" // symmetric left factor
)

// Discounted reports whether the kernel halves the dense cost.
func (k Kernel) Discounted() bool { return k == TRMM || k == SYMM }

// OverflowError reports a flop count that does not fit in an int64.
type OverflowError struct {
	Op string
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("flop count overflows int64: %s", e.Op)
}

// Is makes errors.Is(err, ir.ErrPrecondition) hold.
func (e *OverflowError) Is(target error) bool {
	return target == ir.ErrPrecondition
}

// Dense returns the GEMM cost of an m×k by k×n product.
func Dense(m, k, n int) (int64, error) {
	v := uint64(FlopsPerMulAdd)
	for _, d := range [3]int{m, k, n} {
		hi, lo := bits.Mul64(v, uint64(d))
		if d < 0 || hi != 0 || lo > math.MaxInt64 {
			return 0, &OverflowError{Op: fmt.Sprintf("%d·%d·%d·%d", FlopsPerMulAdd, m, k, n)}
		}
		v = lo
	}
	return int64(v), nil
}

// Add sums two non-negative flop counts.
func Add(a, b int64) (int64, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if a < 0 || b < 0 || carry != 0 || sum > math.MaxInt64 {
		return 0, &OverflowError{Op: fmt.Sprintf("%d + %d", a, b)}
	}
	return int64(sum), nil
}

// SelectKernel picks the kernel for a product whose left factor is left.
// Lower triangularity wins over symmetry.
func SelectKernel(left ir.Expr) (Kernel, error) {
	lower, err := props.IsLowerTriangular(left)
	if err != nil {
		return "", fmt.Errorf("select kernel: %w", err)
	}
	if lower {
		return TRMM, nil
	}
	sym, err := props.IsSymmetric(left)
	if err != nil {
		return "", fmt.Errorf("select kernel: %w", err)
	}
	if sym {
		return SYMM, nil
	}
	return GEMM, nil
}

// Multiply prices left * right.
func Multiply(left, right ir.Expr) (Kernel, int64, error) {
	k, err := SelectKernel(left)
	if err != nil {
		return "", 0, err
	}
	ls, rs := ir.ShapeOf(left), ir.ShapeOf(right)
	flops, err := Dense(ls.Rows(), ls.Cols(), rs.Cols())
	if err != nil {
		return "", 0, err
	}
	if k.Discounted() {
		flops /= 2
	}
	return k, flops, nil
}

// TopLevel returns the cost of the outermost multiplication of e. A Nary is
// priced as the left fold of its children, so its outermost multiplication
// is the last one. Non-products return ErrNotProduct.
func TopLevel(e ir.Expr) (int64, error) {
	switch n := e.(type) {
	case *ir.Binary:
		_, c, err := Multiply(n.Left(), n.Right())
		return c, err
	case *ir.Nary:
		cs := n.Children()
		left, err := ir.Fold(cs[:len(cs)-1]...)
		if err != nil {
			return 0, err
		}
		_, c, err := Multiply(left, cs[len(cs)-1])
		return c, err
	default:
		return 0, fmt.Errorf("top-level cost of %s: %w", kindOf(e), ErrNotProduct)
	}
}

// Full returns the cost of every multiplication in e. Operands cost nothing
// and unary nodes pass their child's cost through.
func Full(e ir.Expr) (int64, error) {
	steps, err := Breakdown(e)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, s := range steps {
		if total, err = Add(total, s.Flops); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func kindOf(e ir.Expr) string {
	if e == nil {
		return "nil"
	}
	return e.Kind().String()
}
