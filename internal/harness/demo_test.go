package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDemoScenarios runs every scenario under testdata/scenarios at the
// project root. They cover the reference chains: the six-matrix textbook
// chain, dense and triangular pairs, the gram product and triangular
// propagation through transposes.
func TestDemoScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("../../testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 5)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}
