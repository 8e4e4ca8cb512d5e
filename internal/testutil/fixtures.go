package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to dir/name, creating parent directories, and
// returns the full path. The test fails on any I/O error.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// GramSpec declares a full-rank 20x20 A and a 20x15 B. Its gram chain,
// A^T * A * B, costs 22000 both optimally and left to right.
const GramSpec = `
package chains

operand: {
	A: {shape: [20, 20], properties: ["FULL_RANK"]}
	B: {shape: [20, 15]}
}
chain: {
	gram: {mul: [{trans: "A"}, "A", "B"]}
	flat: {nmul: ["A", "B"]}
}
`

// CLRSSpec is the six-matrix textbook chain. Its optimal cost is 30250.
const CLRSSpec = `
package chains

operand: {
	A1: {shape: [30, 35]}
	A2: {shape: [35, 15]}
	A3: {shape: [15, 5]}
	A4: {shape: [5, 10]}
	A5: {shape: [10, 20]}
	A6: {shape: [20, 25]}
}
chain: {
	clrs: {mul: ["A1", "A2", "A3", "A4", "A5", "A6"]}
}
`

// WriteSpecDir writes each spec as its own .cue file in a fresh temp
// directory and returns the directory. Specs loaded as a directory need a
// shared package clause.
func WriteSpecDir(t testing.TB, specs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range specs {
		WriteFile(t, dir, name, content)
	}
	return dir
}
