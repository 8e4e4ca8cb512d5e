package testutil

// DefaultRunID is used by FixedRunGenerator when no id is given.
const DefaultRunID = "test-run-default"

// FixedRunGenerator returns the same run ID on every call. Unlike
// planner.FixedGenerator it never runs out, which suits harness runs that
// plan one program per scenario.
//
// Thread-safety: FixedRunGenerator is stateless and safe for concurrent use.
type FixedRunGenerator struct {
	id string
}

// NewFixedRunGenerator creates a generator for id, or DefaultRunID when id
// is empty.
func NewFixedRunGenerator(id string) *FixedRunGenerator {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunGenerator{id: id}
}

// Generate returns the fixed run ID.
func (g *FixedRunGenerator) Generate() string {
	return g.id
}
