package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mchain/internal/compiler"
	"github.com/roach88/mchain/internal/testutil"
)

func TestLoadSpecsDirectory(t *testing.T) {
	dir := testutil.WriteSpecDir(t, map[string]string{
		"gram.cue": testutil.GramSpec,
		"clrs.cue": testutil.CLRSSpec,
	})

	res, err := LoadSpecs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "clrs.cue"), filepath.Join(dir, "gram.cue")}, res.Files)
	assert.Len(t, res.Program.Operands, 8)
	assert.Len(t, res.Program.Chains, 3)
}

func TestLoadSpecsErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		code string
	}{
		{"missing", func(t *testing.T) string { return "/nonexistent/specs" }, ErrCodeNotFound},
		{"empty dir", func(t *testing.T) string { return t.TempDir() }, ErrCodeNoFiles},
		{"no chains", func(t *testing.T) string {
			return testutil.WriteFile(t, t.TempDir(), "ops.cue", "operand: {A: {shape: [2, 2]}}\n")
		}, ErrCodeCompileFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSpecs(tt.path(t))
			require.Error(t, err)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}

func TestBindSpecs(t *testing.T) {
	bound, res, err := BindSpecs(gramSpecDir(t))
	require.NoError(t, err)
	require.NotNil(t, res)

	gram, ok := bound.Chain("gram")
	require.True(t, ok)
	a, ok := bound.Operand("A")
	require.True(t, ok)
	assert.Equal(t, "20x20", a.Shape().String())
	assert.NotNil(t, gram.Expr)
}

func TestBindSpecsValidationError(t *testing.T) {
	dir := testutil.WriteSpecDir(t, map[string]string{"bad.cue": invalidSpec})

	_, res, err := BindSpecs(dir)
	require.Error(t, err)
	assert.NotNil(t, res, "the parsed program is still returned")

	code, msg := loadErrorCode(err)
	assert.Equal(t, compiler.ErrShapeNonPositive, code)
	assert.Contains(t, msg, "E210")
}

func TestConvertCompileError(t *testing.T) {
	ce := &compiler.CompileError{Field: "operand.A.shape", Message: "shape is required"}
	got := convertCompileError(fmt.Errorf("wrapped: %w", ce), "specs")
	assert.Equal(t, ErrCodeCompileFailed, got.Code)
	assert.Equal(t, "operand.A.shape: shape is required", got.Message)

	got = convertCompileError(errors.New("boom"), "specs")
	assert.Equal(t, "specs: boom", got.Message)
}

func TestLoadErrorCodeFallback(t *testing.T) {
	code, msg := loadErrorCode(errors.New("boom"))
	assert.Equal(t, ErrCodeGeneric, code)
	assert.Equal(t, "boom", msg)
}
