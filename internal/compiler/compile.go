package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// CompileString parses CUE source text into a Program.
// Uses CUE SDK's Go API directly (not CLI subprocess).
func CompileString(src string) (*Program, error) {
	ctx := cuecontext.New()
	return CompileValue(ctx.CompileString(src, cue.Filename("<string>")))
}

// CompileFile parses a single .cue file into a Program.
func CompileFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	ctx := cuecontext.New()
	return CompileValue(ctx.CompileBytes(data, cue.Filename(path)))
}

// CompileDir loads every .cue file of the package in dir and parses the
// unified value.
func CompileDir(dir string) (*Program, error) {
	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, &CompileError{Field: "load", Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}
	return CompileValue(ctx.BuildInstance(inst))
}

// CompileValue parses a CUE value of the form
//
//	operand: {A: {shape: [20, 20], properties: ["FULL_RANK"]}}
//	chain: {gram: {mul: [{trans: "A"}, "A", "B"]}}
//
// into a Program. Only syntax is checked here; references, shapes and
// property names are left to Validate.
func CompileValue(v cue.Value) (*Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &Program{}

	operandsVal := v.LookupPath(cue.ParsePath("operand"))
	if operandsVal.Exists() {
		iter, err := operandsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			decl, err := parseOperand(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			p.Operands = append(p.Operands, decl)
		}
	}

	chainsVal := v.LookupPath(cue.ParsePath("chain"))
	if !chainsVal.Exists() {
		return nil, &CompileError{
			Field:   "chain",
			Message: "at least one chain is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := chainsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		root, err := parseNode(iter.Value(), "chain."+name)
		if err != nil {
			return nil, err
		}
		p.Chains = append(p.Chains, ChainDecl{Name: name, Root: root, Pos: iter.Value().Pos()})
	}
	if len(p.Chains) == 0 {
		return nil, &CompileError{
			Field:   "chain",
			Message: "at least one chain is required",
			Pos:     chainsVal.Pos(),
		}
	}

	return p, nil
}

// parseOperand extracts one operand declaration.
func parseOperand(name string, v cue.Value) (OperandDecl, error) {
	field := "operand." + name
	decl := OperandDecl{Name: name, Pos: v.Pos()}

	shapeVal := v.LookupPath(cue.ParsePath("shape"))
	if !shapeVal.Exists() {
		return decl, &CompileError{Field: field + ".shape", Message: "shape is required", Pos: v.Pos()}
	}
	iter, err := shapeVal.List()
	if err != nil {
		return decl, &CompileError{Field: field + ".shape", Message: "shape must be a list of ints", Pos: shapeVal.Pos()}
	}
	for iter.Next() {
		dim, err := parseInt(iter.Value(), field+".shape")
		if err != nil {
			return decl, err
		}
		decl.Shape = append(decl.Shape, dim)
	}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if propsVal.Exists() {
		iter, err := propsVal.List()
		if err != nil {
			return decl, &CompileError{Field: field + ".properties", Message: "properties must be a list of strings", Pos: propsVal.Pos()}
		}
		for iter.Next() {
			s, err := iter.Value().String()
			if err != nil {
				return decl, &CompileError{Field: field + ".properties", Message: "property must be a string", Pos: iter.Value().Pos()}
			}
			decl.Properties = append(decl.Properties, s)
		}
	}

	return decl, nil
}

// parseInt reads a concrete integer. Floats are rejected.
func parseInt(v cue.Value, field string) (int, error) {
	switch v.IncompleteKind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return 0, formatCUEError(err)
		}
		return int(n), nil
	case cue.FloatKind, cue.NumberKind:
		return 0, &CompileError{
			Field:   field,
			Message: "float dimensions are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return 0, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("dimension must be an int, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// parseNode converts a chain expression: a string names an operand, and a
// single-key struct applies trans, inv, mul or nmul.
func parseNode(v cue.Value, field string) (*Node, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		ref, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &Node{Op: NodeRef, Ref: ref, Pos: v.Pos()}, nil
	case cue.StructKind:
		return parseOpNode(v, field)
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("expression must be an operand name or a single-key struct, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func parseOpNode(v cue.Value, field string) (*Node, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var node *Node
	for iter.Next() {
		if node != nil {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("expression struct must have exactly one key, found %q after %q", iter.Label(), node.Op),
				Pos:     iter.Value().Pos(),
			}
		}
		op := NodeOp(iter.Label())
		arg := iter.Value()
		node = &Node{Op: op, Pos: v.Pos()}
		switch op {
		case NodeTrans, NodeInv:
			child, err := parseNode(arg, field+"."+string(op))
			if err != nil {
				return nil, err
			}
			node.Args = []*Node{child}
		case NodeMul, NodeNMul:
			list, err := arg.List()
			if err != nil {
				return nil, &CompileError{
					Field:   field + "." + string(op),
					Message: "factors must be a list",
					Pos:     arg.Pos(),
				}
			}
			for i := 0; list.Next(); i++ {
				child, err := parseNode(list.Value(), fmt.Sprintf("%s.%s[%d]", field, op, i))
				if err != nil {
					return nil, err
				}
				node.Args = append(node.Args, child)
			}
		default:
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("unknown operator %q, must be trans, inv, mul or nmul", op),
				Pos:     arg.Pos(),
			}
		}
	}
	if node == nil {
		return nil, &CompileError{Field: field, Message: "empty expression struct", Pos: v.Pos()}
	}
	return node, nil
}
