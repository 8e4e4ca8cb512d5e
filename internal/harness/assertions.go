package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/mchain/internal/compiler"
	"github.com/roach88/mchain/internal/ir"
	"github.com/roach88/mchain/internal/props"
)

// AssertionError is returned when an assertion fails.
// It includes the rendered expressions to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Exprs    []string // Rendered subject expressions
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	for _, x := range e.Exprs {
		fmt.Fprintf(&buf, "  Expr: %s\n", x)
	}

	return buf.String()
}

// EvaluateAssertions runs all assertions against the bound program and
// returns one message per failure. Assertions are evaluated in order.
func EvaluateAssertions(bound *compiler.Bound, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(bound, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i+1, a.Type, err))
		}
	}
	return errs
}

func evaluate(bound *compiler.Bound, a Assertion) error {
	subject, ok := bound.Chain(a.Chain)
	if !ok {
		return fmt.Errorf("unknown chain %q", a.Chain)
	}

	switch a.Type {
	case AssertProperty:
		return assertProperty(subject, a)
	case AssertSame, AssertTransposeOf:
		other, ok := bound.Chain(a.Other)
		if !ok {
			return fmt.Errorf("unknown chain %q", a.Other)
		}
		return assertRelation(subject, other, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertProperty checks one predicate on a chain's expression.
func assertProperty(c compiler.Chain, a Assertion) error {
	p, err := ir.ParseProperty(a.Property)
	if err != nil {
		return err
	}

	got, err := props.Check(c.Expr, p)
	if props.IsUnsupported(err) {
		if a.Unsupported {
			return nil
		}
		return &AssertionError{
			Type:     AssertProperty,
			Expected: fmt.Sprintf("%s(%s) = %t", p, c.Name, a.Holds),
			Actual:   err.Error(),
			Exprs:    []string{ir.Format(c.Expr)},
		}
	}
	if err != nil {
		return err
	}

	if a.Unsupported {
		return &AssertionError{
			Type:     AssertProperty,
			Expected: fmt.Sprintf("%s(%s) unsupported", p, c.Name),
			Actual:   fmt.Sprintf("%t", got),
			Exprs:    []string{ir.Format(c.Expr)},
		}
	}
	if got != a.Holds {
		return &AssertionError{
			Type:     AssertProperty,
			Expected: fmt.Sprintf("%s(%s) = %t", p, c.Name, a.Holds),
			Actual:   fmt.Sprintf("%t", got),
			Exprs:    []string{ir.Format(c.Expr)},
		}
	}
	return nil
}

// assertRelation checks same or transpose_of between two chains.
func assertRelation(c, other compiler.Chain, a Assertion) error {
	var got bool
	if a.Type == AssertSame {
		got = ir.IsSame(c.Expr, other.Expr)
	} else {
		got = ir.IsTransposeOf(c.Expr, other.Expr)
	}

	if got != a.Holds {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s(%s, %s) = %t", a.Type, c.Name, other.Name, a.Holds),
			Actual:   fmt.Sprintf("%t", got),
			Exprs:    []string{ir.Format(c.Expr), ir.Format(other.Expr)},
		}
	}
	return nil
}
