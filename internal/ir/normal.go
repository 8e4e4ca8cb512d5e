package ir

// NormalForm rewrites e so that transposes never wrap a product:
//
//	(c0 * c1 * ... * cn)^T  =>  cn^T * ... * c1^T * c0^T
//
// The rule is applied recursively, so a transpose distributed onto a factor
// that is itself a product keeps distributing. Binary products stay Binary
// (with the factors swapped) and Nary products stay Nary (reversed).
// Operands are their own normal form. Nodes whose subtree is already normal
// are returned as-is, so NormalForm preserves sharing. Double transposes are
// left in place.
func NormalForm(e Expr) Expr {
	switch n := e.(type) {
	case *Operand:
		return n
	case *Unary:
		child := NormalForm(n.child)
		if n.op == OpTranspose {
			switch c := child.(type) {
			case *Binary:
				return &Binary{
					left:  NormalForm(&Unary{child: c.right, op: OpTranspose}),
					right: NormalForm(&Unary{child: c.left, op: OpTranspose}),
					op:    c.op,
				}
			case *Nary:
				k := len(c.children)
				rev := make([]Expr, k)
				for i, f := range c.children {
					rev[k-1-i] = NormalForm(&Unary{child: f, op: OpTranspose})
				}
				return &Nary{children: rev, op: c.op}
			}
		}
		if child == n.child {
			return n
		}
		return &Unary{child: child, op: n.op}
	case *Binary:
		l, r := NormalForm(n.left), NormalForm(n.right)
		if l == n.left && r == n.right {
			return n
		}
		return &Binary{left: l, right: r, op: n.op}
	case *Nary:
		var cs []Expr
		for i, c := range n.children {
			nc := NormalForm(c)
			if nc != c && cs == nil {
				cs = make([]Expr, len(n.children))
				copy(cs, n.children[:i])
			}
			if cs != nil {
				cs[i] = nc
			}
		}
		if cs == nil {
			return n
		}
		return &Nary{children: cs, op: n.op}
	default:
		return e
	}
}
