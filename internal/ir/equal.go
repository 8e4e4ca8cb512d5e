package ir

// IsSame reports whether a and b denote the same tree.
//
// Operands compare by identity, unary nodes by operator and child, products
// by their ordered children. Two nil expressions are the same. When the
// trees differ syntactically, their normal forms are compared instead, so
// (A*B)^T is the same as B^T * A^T.
func IsSame(a, b Expr) bool {
	if sameSyntax(a, b) {
		return true
	}
	if isNil(a) || isNil(b) {
		return false
	}
	return sameSyntax(NormalForm(a), NormalForm(b))
}

func sameSyntax(a, b Expr) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	switch x := a.(type) {
	case *Operand:
		y, ok := b.(*Operand)
		return ok && x == y
	case *Unary:
		y, ok := b.(*Unary)
		return ok && x.op == y.op && sameSyntax(x.child, y.child)
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.op == y.op && sameSyntax(x.left, y.left) && sameSyntax(x.right, y.right)
	case *Nary:
		y, ok := b.(*Nary)
		if !ok || x.op != y.op || len(x.children) != len(y.children) {
			return false
		}
		for i := range x.children {
			if !sameSyntax(x.children[i], y.children[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsTransposeOf reports whether one of a, b is a transpose node whose child
// is the other node itself. This is a syntactic relation: A^T is the
// transpose of A, but not of a different operand that happens to share A's
// name and shape.
func IsTransposeOf(a, b Expr) bool {
	if isNil(a) || isNil(b) {
		return false
	}
	if c := transposeChild(a); c != nil && c == b {
		return true
	}
	if c := transposeChild(b); c != nil && c == a {
		return true
	}
	return false
}

func transposeChild(e Expr) Expr {
	if u, ok := e.(*Unary); ok && u.op == OpTranspose {
		return u.child
	}
	return nil
}
