package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mchain/internal/testutil"
)

const scenariosDir = "../../testdata/scenarios"

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, _, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandUpdateNeedsGolden(t *testing.T) {
	_, _, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir(), "--update")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, _, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, _, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), t.TempDir())
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandDemoScenarios(t *testing.T) {
	out, _, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), scenariosDir)
	require.NoError(t, err)

	for _, name := range []string{"clrs_chain", "dense_pair", "gram_product", "lower_triangular", "upper_triangular"} {
		assert.Contains(t, out, "✓ "+name)
	}
	assert.Contains(t, out, "Test Summary: 5 passed, 0 failed, 5 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandDemoScenariosJSON(t *testing.T) {
	out, _, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), scenariosDir, "--filter", "gram*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "gram_product", resp.Data.Scenarios[0].Name)
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "chains.cue", testutil.GramSpec)
	testutil.WriteFile(t, dir, "wrong_cost.yaml", `name: wrong_cost
description: "expects the wrong cost"
specs:
  - chains.cue
expect:
  - chain: flat
    cost: 1
`)
	testutil.WriteFile(t, dir, "broken.yaml", "name: broken\nunknown_field: 1\n")

	out, _, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
	assert.Contains(t, out, "✗ wrong_cost")
	assert.Contains(t, out, "Test Summary: 0 passed, 2 failed, 2 total")
}

func TestTestCommandGolden(t *testing.T) {
	golden := t.TempDir()

	// Writing snapshots passes and creates one file per scenario.
	_, _, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}),
		scenariosDir, "--filter", "clrs_chain", "--golden", golden, "--update")
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(golden, "clrs_chain.golden"))
	require.NoError(t, err)
	expected, err := os.ReadFile("../harness/testdata/golden/clrs_chain.golden")
	require.NoError(t, err)
	assert.Equal(t, string(expected), string(written))

	// Comparing against the fresh snapshot passes.
	_, _, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}),
		scenariosDir, "--filter", "clrs_chain", "--golden", golden)
	require.NoError(t, err)
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	golden := t.TempDir()
	testutil.WriteFile(t, golden, "dense_pair.golden", `{"chains":[],"scenario_name":"dense_pair"}`)

	out, _, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}),
		scenariosDir, "--filter", "dense_pair", "--golden", golden)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "plans do not match")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "test2.yml", "")
	testutil.WriteFile(t, dir, "test1.yaml", "")
	testutil.WriteFile(t, dir, "ignore.txt", "")
	testutil.WriteFile(t, dir, "sub/nested.yaml", "")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "test1.yaml"),
		filepath.Join(dir, "test2.yml"),
	}, files)
}

func TestFindScenarioFilesWithFilter(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "gram-product.yaml", "")
	testutil.WriteFile(t, dir, "gram-inner.yaml", "")
	testutil.WriteFile(t, dir, "clrs.yaml", "")

	files, err := findScenarioFiles(dir, "gram-*")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}
