package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"

	"github.com/roach88/mchain/internal/testutil"
)

// execute runs cmd with args and returns what it wrote to stdout and
// stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// gramSpecDir writes testutil.GramSpec into a fresh directory.
func gramSpecDir(t *testing.T) string {
	t.Helper()
	return testutil.WriteSpecDir(t, map[string]string{"chains.cue": testutil.GramSpec})
}

// failingSpec has one chain that plans and one whose left factor is an
// inverse, which the kernel selection cannot classify.
const failingSpec = `
package chains

operand: {
	A: {shape: [4, 4], properties: ["FULL_RANK"]}
	B: {shape: [4, 2]}
}
chain: {
	good: {mul: ["A", "B"]}
	bad: {mul: [{inv: "A"}, "B"]}
}
`
