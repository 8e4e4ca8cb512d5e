package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/mchain/internal/ir"
)

// Validation error codes (E200-E299)
const (
	// Operand errors (E201-E209)
	ErrShapeNot2D        = "E201" // shape must have exactly two dimensions
	ErrShapeNonPositive  = "E202" // dimensions must be positive
	ErrUnknownProperty   = "E203" // property name not recognised
	ErrPropertyNotSquare = "E204" // structural property on a non-square shape

	// Chain errors (E210-E219)
	ErrUnknownOperand   = "E210" // reference to an undeclared operand
	ErrNonConformable   = "E211" // adjacent factors do not conform
	ErrEmptyProduct     = "E212" // mul or nmul with no factors
	ErrBadUnaryArgs     = "E213" // trans or inv without exactly one argument
	ErrInverseNotSquare = "E214" // inverse of a non-square expression
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is returned by Bind when Validate reports problems.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// squareOnly are the properties that only make sense on square matrices.
var squareOnly = []ir.Property{ir.UpperTriangular, ir.LowerTriangular, ir.Square, ir.Symmetric, ir.SPD}

// Validate checks a parsed program.
// Returns all errors found (does not fail-fast).
func Validate(p *Program) []ValidationError {
	var errs []ValidationError

	shapes := make(map[string]ir.Shape, len(p.Operands))
	for _, o := range p.Operands {
		field := "operand." + o.Name
		valid := true

		// E201: exactly two dimensions
		if len(o.Shape) != 2 {
			errs = append(errs, ValidationError{
				Field:   field + ".shape",
				Message: fmt.Sprintf("shape must have exactly 2 dimensions, got %d", len(o.Shape)),
				Code:    ErrShapeNot2D,
				Line:    line(o.Pos),
			})
			valid = false
		} else if o.Shape[0] <= 0 || o.Shape[1] <= 0 {
			// E202: positive dimensions
			errs = append(errs, ValidationError{
				Field:   field + ".shape",
				Message: fmt.Sprintf("dimensions must be positive, got %v", o.Shape),
				Code:    ErrShapeNonPositive,
				Line:    line(o.Pos),
			})
			valid = false
		}

		for i, name := range o.Properties {
			prop, err := ir.ParseProperty(name)
			if err != nil {
				// E203: unknown property
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.properties[%d]", field, i),
					Message: fmt.Sprintf("unknown property %q", name),
					Code:    ErrUnknownProperty,
					Line:    line(o.Pos),
				})
				continue
			}
			// E204: structural property on a non-square shape
			if valid && o.Shape[0] != o.Shape[1] && isSquareOnly(prop) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.properties[%d]", field, i),
					Message: fmt.Sprintf("%s requires a square shape, got %dx%d", prop, o.Shape[0], o.Shape[1]),
					Code:    ErrPropertyNotSquare,
					Line:    line(o.Pos),
				})
			}
		}

		if valid {
			shapes[o.Name] = ir.Shape{o.Shape[0], o.Shape[1]}
		}
	}

	declared := make(map[string]bool, len(p.Operands))
	for _, o := range p.Operands {
		declared[o.Name] = true
	}
	for _, c := range p.Chains {
		v := &chainValidator{shapes: shapes, declared: declared}
		v.shape(c.Root, "chain."+c.Name)
		errs = append(errs, v.errs...)
	}

	return errs
}

func isSquareOnly(p ir.Property) bool {
	for _, s := range squareOnly {
		if s == p {
			return true
		}
	}
	return false
}

func line(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

type chainValidator struct {
	shapes   map[string]ir.Shape
	declared map[string]bool
	errs     []ValidationError
}

// shape returns the result shape of n, or false if it cannot be derived.
// Errors are recorded only at the node that causes them.
func (v *chainValidator) shape(n *Node, field string) (ir.Shape, bool) {
	switch n.Op {
	case NodeRef:
		if !v.declared[n.Ref] {
			// E210: unknown operand
			v.add(field, fmt.Sprintf("unknown operand %q", n.Ref), ErrUnknownOperand, n.Pos)
			return ir.Shape{}, false
		}
		s, ok := v.shapes[n.Ref]
		return s, ok
	case NodeTrans, NodeInv:
		if len(n.Args) != 1 {
			// E213
			v.add(field, fmt.Sprintf("%s takes exactly one argument", n.Op), ErrBadUnaryArgs, n.Pos)
			return ir.Shape{}, false
		}
		s, ok := v.shape(n.Args[0], field+"."+string(n.Op))
		if !ok {
			return s, false
		}
		if n.Op == NodeTrans {
			return s.Transposed(), true
		}
		if !s.IsSquare() {
			// E214
			v.add(field, fmt.Sprintf("inverse of a non-square %s expression", s), ErrInverseNotSquare, n.Pos)
			return ir.Shape{}, false
		}
		return s, true
	case NodeMul, NodeNMul:
		if len(n.Args) == 0 {
			// E212
			v.add(field, fmt.Sprintf("%s needs at least one factor", n.Op), ErrEmptyProduct, n.Pos)
			return ir.Shape{}, false
		}
		var acc ir.Shape
		ok := true
		for i, a := range n.Args {
			s, aok := v.shape(a, fmt.Sprintf("%s.%s[%d]", field, n.Op, i))
			if !aok {
				ok = false
				continue
			}
			if i == 0 {
				acc = s
				continue
			}
			if ok && !acc.Conformable(s) {
				// E211
				v.add(fmt.Sprintf("%s.%s[%d]", field, n.Op, i),
					fmt.Sprintf("non-conformable factors %s and %s", acc, s), ErrNonConformable, a.Pos)
				ok = false
				continue
			}
			acc = ir.Shape{acc.Rows(), s.Cols()}
		}
		return acc, ok
	default:
		return ir.Shape{}, false
	}
}

func (v *chainValidator) add(field, msg, code string, pos token.Pos) {
	v.errs = append(v.errs, ValidationError{Field: field, Message: msg, Code: code, Line: line(pos)})
}
