package ir

import (
	"errors"
	"fmt"
)

// ErrPrecondition is matched by every *PreconditionError via errors.Is.
var ErrPrecondition = errors.New("precondition violation")

// PreconditionError reports a constructor called with invalid input: a nil
// child, an empty product, a non-positive dimension, non-conformable
// factors or the inverse of a non-square expression. These are programming errors; the New* constructors return them
// and the short-form constructors (Op, Trans, Inv, Mul, MulN) panic with them.
type PreconditionError struct {
	Op      string // constructor: "operand", "transpose", "invert", "mul", "nmul"
	Kind    Kind   // node kind being built
	Message string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Op, e.Kind, e.Message)
}

// Is makes errors.Is(err, ErrPrecondition) hold.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// NewOperand creates a leaf with the given name, shape and declared
// properties. The property set is closed under PropertySet.Closure.
func NewOperand(name string, shape Shape, props ...Property) (*Operand, error) {
	if !shape.Valid() {
		return nil, &PreconditionError{
			Op:      "operand",
			Kind:    KindOperand,
			Message: fmt.Sprintf("operand %q: dimensions must be positive, got %s", name, shape),
		}
	}
	return &Operand{
		name:  name,
		shape: shape,
		props: NewPropertySet(props...).Closure(),
	}, nil
}

// Op is like NewOperand but panics on error.
// Use only in tests or when inputs are known to be valid.
func Op(name string, rows, cols int, props ...Property) *Operand {
	o, err := NewOperand(name, Shape{rows, cols}, props...)
	if err != nil {
		panic(err)
	}
	return o
}

// NewUnary wraps child with a transpose or inverse. Only square
// expressions can be inverted.
func NewUnary(op UnaryKind, child Expr) (*Unary, error) {
	if isNil(child) {
		return nil, &PreconditionError{Op: op.String(), Kind: KindUnary, Message: "child expr must be non-nil"}
	}
	if op != OpTranspose && op != OpInvert {
		return nil, &PreconditionError{Op: op.String(), Kind: KindUnary, Message: "unknown unary operator"}
	}
	if s := ShapeOf(child); op == OpInvert && !s.IsSquare() {
		return nil, &PreconditionError{Op: op.String(), Kind: KindUnary, Message: fmt.Sprintf("cannot invert non-square %s", s)}
	}
	return &Unary{child: child, op: op}, nil
}

// Trans returns the transpose of e. Panics if e is nil.
func Trans(e Expr) Expr {
	u, err := NewUnary(OpTranspose, e)
	if err != nil {
		panic(err)
	}
	return u
}

// Inv returns the inverse of e. Panics if e is nil.
func Inv(e Expr) Expr {
	u, err := NewUnary(OpInvert, e)
	if err != nil {
		panic(err)
	}
	return u
}

// NewBinary multiplies left by right. The factors must be conformable.
func NewBinary(left, right Expr) (*Binary, error) {
	if isNil(left) || isNil(right) {
		return nil, &PreconditionError{Op: "mul", Kind: KindBinary, Message: "left and right expr must be non-nil"}
	}
	ls, rs := ShapeOf(left), ShapeOf(right)
	if !ls.Conformable(rs) {
		return nil, &PreconditionError{
			Op:      "mul",
			Kind:    KindBinary,
			Message: fmt.Sprintf("non-conformable factors %s and %s", ls, rs),
		}
	}
	return &Binary{left: left, right: right, op: OpMul}, nil
}

// NewNary builds a flattened product of at least two conformable factors.
// The slice is copied.
func NewNary(children []Expr) (*Nary, error) {
	if len(children) < 2 {
		return nil, &PreconditionError{
			Op:      "nmul",
			Kind:    KindNary,
			Message: fmt.Sprintf("n-ary product needs at least two factors, got %d", len(children)),
		}
	}
	for i, c := range children {
		if isNil(c) {
			return nil, &PreconditionError{Op: "nmul", Kind: KindNary, Message: fmt.Sprintf("factor %d is nil", i)}
		}
		if i == 0 {
			continue
		}
		ls, rs := ShapeOf(children[i-1]), ShapeOf(c)
		if !ls.Conformable(rs) {
			return nil, &PreconditionError{
				Op:      "nmul",
				Kind:    KindNary,
				Message: fmt.Sprintf("non-conformable factors %d and %d: %s and %s", i-1, i, ls, rs),
			}
		}
	}
	cs := make([]Expr, len(children))
	copy(cs, children)
	return &Nary{children: cs, op: OpMul}, nil
}

// Fold multiplies the factors left to right into nested Binary nodes.
// A single factor is returned unchanged.
func Fold(factors ...Expr) (Expr, error) {
	if len(factors) == 0 {
		return nil, &PreconditionError{Op: "mul", Kind: KindBinary, Message: "one or more factors required"}
	}
	if isNil(factors[0]) {
		return nil, &PreconditionError{Op: "mul", Kind: KindBinary, Message: "factor 0 is nil"}
	}
	result := factors[0]
	for _, f := range factors[1:] {
		b, err := NewBinary(result, f)
		if err != nil {
			return nil, err
		}
		result = b
	}
	return result, nil
}

// Mul is the variadic product. With one argument it returns that argument;
// otherwise it builds the left-associated fold ((e1 * e2) * e3) ... .
// Panics on a precondition violation.
func Mul(factors ...Expr) Expr {
	e, err := Fold(factors...)
	if err != nil {
		panic(err)
	}
	return e
}

// MulN is like Mul but builds a single flattened Nary node.
func MulN(factors ...Expr) Expr {
	if len(factors) == 1 {
		if isNil(factors[0]) {
			panic(&PreconditionError{Op: "nmul", Kind: KindNary, Message: "factor 0 is nil"})
		}
		return factors[0]
	}
	n, err := NewNary(factors)
	if err != nil {
		panic(err)
	}
	return n
}
