package props

import (
	"errors"
	"fmt"

	"github.com/roach88/mchain/internal/ir"
)

// ErrUnsupportedQuery is matched by every *UnsupportedQueryError via errors.Is.
var ErrUnsupportedQuery = errors.New("unsupported property query")

// Predicate names a property query.
type Predicate string

const (
	PredUpperTriangular Predicate = "isUpperTriangular"
	PredLowerTriangular Predicate = "isLowerTriangular"
	PredSquare          Predicate = "isSquare"
	PredSymmetric       Predicate = "isSymmetric"
	PredFullRank        Predicate = "isFullRank"
	PredSPD             Predicate = "isSPD"
)

// UnsupportedQueryError reports a predicate asked of a node variant (or
// unary operator) for which no rule is defined.
type UnsupportedQueryError struct {
	Predicate Predicate
	Kind      ir.Kind
	Op        string // unary operator or "mul"; empty for operands
}

func (e *UnsupportedQueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: not defined for %s node (%s)", e.Predicate, e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: not defined for %s node", e.Predicate, e.Kind)
}

// Is makes errors.Is(err, ErrUnsupportedQuery) hold.
func (e *UnsupportedQueryError) Is(target error) bool {
	return target == ErrUnsupportedQuery
}

// IsUnsupported reports whether err is, or wraps, an UnsupportedQueryError.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedQuery)
}

func unsupported(p Predicate, e ir.Expr) error {
	err := &UnsupportedQueryError{Predicate: p}
	switch n := e.(type) {
	case *ir.Unary:
		err.Kind = ir.KindUnary
		err.Op = n.Op().String()
	case *ir.Binary:
		err.Kind = ir.KindBinary
		err.Op = n.Op().String()
	case *ir.Nary:
		err.Kind = ir.KindNary
		err.Op = n.Op().String()
	case *ir.Operand:
		err.Kind = ir.KindOperand
	}
	return err
}
