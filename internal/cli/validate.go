package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mchain/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Operands int                        `json:"operands"`
	Chains   int                        `json:"chains"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs>",
		Short: "Validate chain specs without planning",
		Long: `Validate CUE chain specs without running the optimizer.

Checks operand shapes and properties, operand references, conformability of
every product and that inverses are applied to square expressions. All
problems are reported, not only the first.

Exit codes:
  0 - Specs are valid
  1 - Validation errors found
  2 - Command error (path not found, CUE syntax error)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, err := LoadSpecs(specsPath)
	if err != nil {
		code, msg := loadErrorCode(err)
		return formatter.fail(ExitCommandError, code, msg)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", len(loadResult.Files), specsPath)

	prog := loadResult.Program
	result := ValidationResult{
		Operands: len(prog.Operands),
		Chains:   len(prog.Chains),
		Errors:   compiler.Validate(prog),
	}
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ All specs valid (%d operands, %d chains)\n", result.Operands, result.Chains)
	return nil
}

func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		if err := formatter.Failure(errs[0].Code, errs[0].Message, result); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		if e.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", e.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
	}
	return exitErr
}
