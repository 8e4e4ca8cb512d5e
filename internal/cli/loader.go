package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"

	"github.com/roach88/mchain/internal/compiler"
)

// LoadResult contains the parsed program of a specs path.
type LoadResult struct {
	Program *compiler.Program
	Files   []string // CUE files that were read
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants, unified across all CLI commands.
// Spec validation codes (E2xx) come from the compiler package.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeCompileFailed = "E004" // CUE load or parse failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBindFailed    = "E006" // Specs parsed but could not be resolved
	ErrCodeStoreFailed   = "E007" // Plan store could not be opened or written
	ErrCodeUnknownChain  = "E008" // --chain or argument names no chain
	ErrCodePlanFailed    = "E009" // One or more chains failed to plan
	ErrCodeRunNotFound   = "E010" // history: no such run
	ErrCodeTestFailed    = "E_TEST_FAILED"
)

// LoadSpecs parses the CUE specs at path. A directory is loaded as one CUE
// package; a file is compiled on its own. Only syntax is checked.
func LoadSpecs(path string) (*LoadResult, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs path not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs path: %v", err)}
	}

	if !info.IsDir() {
		prog, err := compiler.CompileFile(path)
		if err != nil {
			return nil, convertCompileError(err, path)
		}
		return &LoadResult{Program: prog, Files: []string{path}}, nil
	}

	files, err := FindCUEFiles(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
	}

	prog, err := compiler.CompileDir(path)
	if err != nil {
		return nil, convertCompileError(err, path)
	}
	return &LoadResult{Program: prog, Files: files}, nil
}

// BindSpecs loads the specs at path and resolves them into expression trees.
// Validation problems are reported as a LoadError carrying the first
// problem's E2xx code.
func BindSpecs(path string) (*compiler.Bound, *LoadResult, error) {
	res, err := LoadSpecs(path)
	if err != nil {
		return nil, nil, err
	}
	bound, err := compiler.Bind(res.Program)
	if err != nil {
		var verrs compiler.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, res, &LoadError{Code: verrs[0].Code, Message: verrs.Error()}
		}
		return nil, res, &LoadError{Code: ErrCodeBindFailed, Message: err.Error()}
	}
	return bound, res, nil
}

// FindCUEFiles returns the .cue files directly inside dir, sorted by name.
// Subdirectories are separate CUE packages and are not included.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeCompileFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeCompileFailed,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// loadErrorCode returns the code of a LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
