package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValidProgram(t *testing.T) {
	p, err := CompileString(gramSpec)
	require.NoError(t, err)
	assert.Empty(t, Validate(p))
}

func TestValidateOperands(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		codes []string
	}{
		{
			"three dimensions",
			`operand: A: {shape: [2, 2, 2]}
			chain: c: "A"`,
			[]string{ErrShapeNot2D},
		},
		{
			"one dimension",
			`operand: A: {shape: [2]}
			chain: c: "A"`,
			[]string{ErrShapeNot2D},
		},
		{
			"zero dimension",
			`operand: A: {shape: [0, 2]}
			chain: c: "A"`,
			[]string{ErrShapeNonPositive},
		},
		{
			"unknown property",
			`operand: A: {shape: [2, 2], properties: ["DIAGONAL"]}
			chain: c: "A"`,
			[]string{ErrUnknownProperty},
		},
		{
			"lower triangular on a rectangle",
			`operand: A: {shape: [2, 3], properties: ["LOWER_TRIANGULAR", "FULL_RANK"]}
			chain: c: "A"`,
			[]string{ErrPropertyNotSquare},
		},
		{
			"spd on a rectangle",
			`operand: A: {shape: [3, 2], properties: ["SPD"]}
			chain: c: "A"`,
			[]string{ErrPropertyNotSquare},
		},
		{
			"property names are case-insensitive",
			`operand: A: {shape: [3, 3], properties: ["symmetric"]}
			chain: c: "A"`,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CompileString(tt.src)
			require.NoError(t, err)
			errs := Validate(p)
			if tt.codes == nil {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.codes, codes(errs))
		})
	}
}

func TestValidateChains(t *testing.T) {
	const operands = `
operand: {
	A: {shape: [20, 20]}
	B: {shape: [20, 15]}
	R: {shape: [15, 20]}
}
`
	tests := []struct {
		name  string
		chain string
		codes []string
		field string
	}{
		{"unknown operand", `chain: c: {mul: ["A", "Z"]}`, []string{ErrUnknownOperand}, "chain.c.mul[1]"},
		{"non-conformable", `chain: c: {mul: ["B", "B"]}`, []string{ErrNonConformable}, "chain.c.mul[1]"},
		{"transpose fixes conformability", `chain: c: {mul: ["B", {trans: "B"}]}`, nil, ""},
		{"nmul non-conformable", `chain: c: {nmul: ["A", "B", "A"]}`, []string{ErrNonConformable}, "chain.c.nmul[2]"},
		{"empty mul", `chain: c: {mul: []}`, []string{ErrEmptyProduct}, "chain.c"},
		{"inverse of a rectangle", `chain: c: {inv: "B"}`, []string{ErrInverseNotSquare}, "chain.c"},
		{"inverse of a square product", `chain: c: {inv: {mul: ["B", "R"]}}`, nil, ""},
		{"nested error reported once", `chain: c: {mul: [{trans: "Z"}, "A"]}`, []string{ErrUnknownOperand}, "chain.c.mul[0].trans"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CompileString(operands + tt.chain)
			require.NoError(t, err)
			errs := Validate(p)
			if tt.codes == nil {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.codes, codes(errs))
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	p, err := CompileString(`
operand: {
	A: {shape: [2, 3], properties: ["UPPER_TRIANGULAR", "BANDED"]}
	B: {shape: [0, 1]}
}
chain: {
	one: {mul: ["A", "A"]}
	two: {mul: ["A", "Q"]}
}
`)
	require.NoError(t, err)

	errs := Validate(p)
	assert.Equal(t, []string{
		ErrPropertyNotSquare,
		ErrUnknownProperty,
		ErrShapeNonPositive,
		ErrNonConformable,
		ErrUnknownOperand,
	}, codes(errs))
	for _, e := range errs {
		assert.Positive(t, e.Line, e.Error())
	}
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "chain.c", Message: "bad", Code: ErrEmptyProduct}
	assert.Equal(t, "[E212] chain.c: bad", e.Error())

	e.Line = 4
	assert.Equal(t, "[E212] line 4: chain.c: bad", e.Error())

	es := ValidationErrors{e, {Field: "x", Message: "y", Code: ErrUnknownOperand}}
	assert.Equal(t, "[E212] line 4: chain.c: bad; [E210] x: y", es.Error())
}
