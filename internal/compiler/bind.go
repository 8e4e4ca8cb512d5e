package compiler

import (
	"fmt"

	"github.com/roach88/mchain/internal/ir"
)

// Bound is a validated program resolved into expression trees. Every
// reference to an operand name resolves to the same *ir.Operand, so A^T and
// A in one chain are recognised as transposes of each other.
type Bound struct {
	Operands []*ir.Operand // declaration order
	Chains   []Chain       // declaration order
}

// Chain is a named expression tree.
type Chain struct {
	Name string
	Expr ir.Expr
}

// Operand returns the operand named name.
func (b *Bound) Operand(name string) (*ir.Operand, bool) {
	for _, o := range b.Operands {
		if o.Name() == name {
			return o, true
		}
	}
	return nil, false
}

// Chain returns the chain named name.
func (b *Bound) Chain(name string) (Chain, bool) {
	for _, c := range b.Chains {
		if c.Name == name {
			return c, true
		}
	}
	return Chain{}, false
}

// Bind validates p and builds its expression trees. Validation problems are
// returned together as ValidationErrors.
func Bind(p *Program) (*Bound, error) {
	if errs := Validate(p); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	b := &Bound{}
	byName := make(map[string]*ir.Operand, len(p.Operands))
	for _, decl := range p.Operands {
		props := make([]ir.Property, 0, len(decl.Properties))
		for _, name := range decl.Properties {
			prop, err := ir.ParseProperty(name)
			if err != nil {
				return nil, err
			}
			props = append(props, prop)
		}
		o, err := ir.NewOperand(decl.Name, ir.Shape{decl.Shape[0], decl.Shape[1]}, props...)
		if err != nil {
			return nil, err
		}
		byName[decl.Name] = o
		b.Operands = append(b.Operands, o)
	}

	for _, c := range p.Chains {
		e, err := build(c.Root, byName)
		if err != nil {
			return nil, fmt.Errorf("chain %s: %w", c.Name, err)
		}
		b.Chains = append(b.Chains, Chain{Name: c.Name, Expr: e})
	}
	return b, nil
}

func build(n *Node, ops map[string]*ir.Operand) (ir.Expr, error) {
	switch n.Op {
	case NodeRef:
		o, ok := ops[n.Ref]
		if !ok {
			return nil, fmt.Errorf("unknown operand %q", n.Ref)
		}
		return o, nil
	case NodeTrans, NodeInv:
		child, err := build(n.Args[0], ops)
		if err != nil {
			return nil, err
		}
		op := ir.OpTranspose
		if n.Op == NodeInv {
			op = ir.OpInvert
		}
		u, err := ir.NewUnary(op, child)
		if err != nil {
			return nil, err
		}
		return u, nil
	case NodeMul, NodeNMul:
		factors := make([]ir.Expr, len(n.Args))
		for i, a := range n.Args {
			f, err := build(a, ops)
			if err != nil {
				return nil, err
			}
			factors[i] = f
		}
		if n.Op == NodeMul || len(factors) == 1 {
			return ir.Fold(factors...)
		}
		nary, err := ir.NewNary(factors)
		if err != nil {
			return nil, err
		}
		return nary, nil
	default:
		return nil, fmt.Errorf("unknown operator %q", n.Op)
	}
}
