package ir

import "fmt"

// Shape is the (rows, cols) pair of a matrix. Vectors use a dimension of 1.
type Shape [2]int

// Rows returns the leading dimension.
func (s Shape) Rows() int { return s[0] }

// Cols returns the trailing dimension.
func (s Shape) Cols() int { return s[1] }

// Valid reports whether both dimensions are positive.
func (s Shape) Valid() bool { return s[0] > 0 && s[1] > 0 }

// IsSquare reports whether rows equal cols.
func (s Shape) IsSquare() bool { return s[0] == s[1] }

// Transposed returns (cols, rows).
func (s Shape) Transposed() Shape { return Shape{s[1], s[0]} }

func (s Shape) String() string { return fmt.Sprintf("%dx%d", s[0], s[1]) }

// Conformable reports whether a product of a left factor with shape s and a
// right factor with shape r is defined.
func (s Shape) Conformable(r Shape) bool { return s[1] == r[0] }

// ShapeOf returns the result shape of e. A transpose swaps its child's
// dimensions, an inverse keeps them, and a product spans the rows of its
// first factor and the columns of its last factor.
func ShapeOf(e Expr) Shape {
	switch n := e.(type) {
	case *Operand:
		return n.shape
	case *Unary:
		child := ShapeOf(n.child)
		if n.op == OpTranspose {
			return child.Transposed()
		}
		return child
	case *Binary:
		return Shape{ShapeOf(n.left).Rows(), ShapeOf(n.right).Cols()}
	case *Nary:
		return Shape{ShapeOf(n.children[0]).Rows(), ShapeOf(n.children[len(n.children)-1]).Cols()}
	default:
		panic(fmt.Sprintf("ir.ShapeOf: unexpected node %T", e))
	}
}
