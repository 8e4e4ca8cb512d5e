package compiler

import (
	"cuelang.org/go/cue/token"
)

// Program is a parsed chain spec: operand declarations and named chain
// expressions, both in declaration order. A Program is syntactically well
// formed but not yet checked; see Validate and Bind.
type Program struct {
	Operands []OperandDecl
	Chains   []ChainDecl
}

// OperandDecl declares one named matrix.
type OperandDecl struct {
	Name       string
	Shape      []int
	Properties []string
	Pos        token.Pos
}

// ChainDecl names one chain expression.
type ChainDecl struct {
	Name string
	Root *Node
	Pos  token.Pos
}

// NodeOp is the operator of an expression node.
type NodeOp string

const (
	NodeRef   NodeOp = "ref"   // "A"
	NodeTrans NodeOp = "trans" // {trans: X}
	NodeInv   NodeOp = "inv"   // {inv: X}
	NodeMul   NodeOp = "mul"   // {mul: [X, ...]}, left fold
	NodeNMul  NodeOp = "nmul"  // {nmul: [X, ...]}, flattened
)

// Node is an unresolved chain expression.
type Node struct {
	Op   NodeOp
	Ref  string  // operand name, for NodeRef
	Args []*Node // one child for trans and inv
	Pos  token.Pos
}

// Operand returns the declaration named name.
func (p *Program) Operand(name string) (OperandDecl, bool) {
	for _, o := range p.Operands {
		if o.Name == name {
			return o, true
		}
	}
	return OperandDecl{}, false
}

// Chain returns the chain named name.
func (p *Program) Chain(name string) (ChainDecl, bool) {
	for _, c := range p.Chains {
		if c.Name == name {
			return c, true
		}
	}
	return ChainDecl{}, false
}
