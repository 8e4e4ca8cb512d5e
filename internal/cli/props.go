package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/mchain/internal/chain"
	"github.com/roach88/mchain/internal/ir"
	"github.com/roach88/mchain/internal/props"
)

// ExprProps is the property report for one expression.
type ExprProps struct {
	Expr       string       `json:"expr"`
	Shape      string       `json:"shape"`
	Properties props.Report `json:"properties"`
}

// PropsResult holds the property reports of a chain and its factors.
type PropsResult struct {
	Chain   string      `json:"chain"`
	Root    ExprProps   `json:"root"`
	Factors []ExprProps `json:"factors,omitempty"`
}

// NewPropsCommand creates the props command.
func NewPropsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "props <specs> <chain>",
		Short: "Show inferred properties of a chain",
		Long: `Evaluate the six property predicates on a chain and on each of its
factors.

Each predicate answers true, false or unsupported. Unsupported means the
property engine has no rule for that node kind; it is never guessed.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProps(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runProps(opts *RootOptions, specsPath, chainName string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	bound, _, err := BindSpecs(specsPath)
	if err != nil {
		code, msg := loadErrorCode(err)
		return formatter.fail(ExitCommandError, code, msg)
	}
	c, ok := bound.Chain(chainName)
	if !ok {
		return formatter.fail(ExitCommandError, ErrCodeUnknownChain, fmt.Sprintf("no chain named %q in %s", chainName, specsPath))
	}

	root, err := exprProps(c.Expr)
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeGeneric, err.Error())
	}
	result := PropsResult{Chain: c.Name, Root: root}

	if ir.IsProduct(c.Expr) {
		factors, err := chain.Factors(c.Expr)
		if err != nil {
			formatter.VerboseLog("factors of %s unavailable: %v", c.Name, err)
		}
		for _, f := range factors {
			fp, err := exprProps(f)
			if err != nil {
				return formatter.fail(ExitFailure, ErrCodeGeneric, err.Error())
			}
			result.Factors = append(result.Factors, fp)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	writePropsText(formatter.Writer, result)
	return nil
}

func exprProps(e ir.Expr) (ExprProps, error) {
	r, err := props.Infer(e)
	if err != nil {
		return ExprProps{}, err
	}
	return ExprProps{Expr: ir.Format(e), Shape: ir.ShapeOf(e).String(), Properties: r}, nil
}

func writePropsText(w io.Writer, result PropsResult) {
	fmt.Fprintf(w, "%s = %s  [%s]\n", result.Chain, result.Root.Expr, result.Root.Shape)
	writeReport(w, "  ", result.Root.Properties)
	for _, f := range result.Factors {
		fmt.Fprintf(w, "\n  factor %s  [%s]\n", f.Expr, f.Shape)
		writeReport(w, "    ", f.Properties)
	}
}

func writeReport(w io.Writer, indent string, r props.Report) {
	for _, p := range ir.AllProperties {
		fmt.Fprintf(w, "%s%-17s %s\n", indent, p, r.Get(p))
	}
}
