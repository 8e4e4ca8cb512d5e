package ir

// Kind identifies the variant of an Expr node.
type Kind int

const (
	KindOperand Kind = iota
	KindUnary
	KindBinary
	KindNary
)

// String returns the lowercase variant name.
func (k Kind) String() string {
	switch k {
	case KindOperand:
		return "operand"
	case KindUnary:
		return "unary"
	case KindBinary:
		return "binary"
	case KindNary:
		return "nary"
	default:
		return "unknown"
	}
}

// Expr is a sealed interface over the four node variants.
// Only *Operand, *Unary, *Binary and *Nary implement it.
type Expr interface {
	Kind() Kind
	expr() // Sealed
}

// UnaryKind selects the unary operator.
type UnaryKind int

const (
	OpTranspose UnaryKind = iota
	OpInvert
)

func (k UnaryKind) String() string {
	switch k {
	case OpTranspose:
		return "transpose"
	case OpInvert:
		return "invert"
	default:
		return "unknown"
	}
}

// BinaryKind selects the product operator. Multiplication is the only one.
type BinaryKind int

const (
	OpMul BinaryKind = iota
)

func (k BinaryKind) String() string {
	if k == OpMul {
		return "mul"
	}
	return "unknown"
}

// Operand is a leaf matrix or vector with a fixed shape.
type Operand struct {
	name  string
	shape Shape
	props PropertySet
}

func (*Operand) Kind() Kind { return KindOperand }
func (*Operand) expr() {}

// Name returns the operand's name. Names are labels only; they play no part
// in identity.
func (o *Operand) Name() string { return o.name }

// Shape returns the operand's (rows, cols).
func (o *Operand) Shape() Shape { return o.shape }

// Properties returns the declared property set, closed under the
// definitional implications (see PropertySet.Closure).
func (o *Operand) Properties() PropertySet { return o.props }

// Has reports whether p was declared on the operand.
func (o *Operand) Has(p Property) bool { return o.props.Has(p) }

// Unary wraps a single child with a transpose or inverse.
type Unary struct {
	child Expr
	op    UnaryKind
}

func (*Unary) Kind() Kind { return KindUnary }
func (*Unary) expr() {}

// Child returns the wrapped expression.
func (u *Unary) Child() Expr { return u.child }

// Op returns the unary operator.
func (u *Unary) Op() UnaryKind { return u.op }

// IsTranspose reports whether u is a transpose.
func (u *Unary) IsTranspose() bool { return u.op == OpTranspose }

// IsInverse reports whether u is an inverse.
func (u *Unary) IsInverse() bool { return u.op == OpInvert }

// Binary is the product of exactly two conformable factors.
type Binary struct {
	left  Expr
	right Expr
	op    BinaryKind
}

func (*Binary) Kind() Kind { return KindBinary }
func (*Binary) expr() {}

func (b *Binary) Left() Expr { return b.left }
func (b *Binary) Right() Expr { return b.right }
func (b *Binary) Op() BinaryKind { return b.op }

// Nary is a flattened product of two or more factors. It denotes the same
// value as the left fold of Binary nodes over its children.
type Nary struct {
	children []Expr
	op       BinaryKind
}

func (*Nary) Kind() Kind { return KindNary }
func (*Nary) expr() {}

// Len returns the number of factors.
func (n *Nary) Len() int { return len(n.children) }

// Child returns the i-th factor.
func (n *Nary) Child(i int) Expr { return n.children[i] }

// Children returns a copy of the factor list.
func (n *Nary) Children() []Expr {
	out := make([]Expr, len(n.children))
	copy(out, n.children)
	return out
}

func (n *Nary) Op() BinaryKind { return n.op }

// IsProduct reports whether e is a Binary or Nary multiplication.
func IsProduct(e Expr) bool {
	switch e.(type) {
	case *Binary, *Nary:
		return true
	default:
		return false
	}
}

// isNil reports whether e is nil, including typed nil pointers.
func isNil(e Expr) bool {
	switch n := e.(type) {
	case nil:
		return true
	case *Operand:
		return n == nil
	case *Unary:
		return n == nil
	case *Binary:
		return n == nil
	case *Nary:
		return n == nil
	default:
		return false
	}
}
