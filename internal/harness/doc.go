// Package harness runs YAML scenarios against the chain planner.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: gram_product
//	description: "A^T A is priced as SYMM once it is formed"
//	specs:
//	  - gram.cue
//	expect:
//	  - chain: gram
//	    cost: 22000
//	    full_cost: 22000
//	    top_level: 6000
//	    parens: "((A^T A) B)"
//	  - chain: inverse_left
//	    error: "not defined"
//	assertions:
//	  - type: property
//	    chain: gram_inner
//	    property: SPD
//	    holds: true
//	  - type: transpose_of
//	    chain: at
//	    other: a
//	    holds: true
//
// Spec paths are resolved relative to the scenario file. Every chain of the
// compiled program is planned; a chain that fails without a matching
// expect.error fails the scenario.
//
// # Assertion Types
//
//   - property: a predicate of the chain's expression holds, does not hold,
//     or is unsupported (unsupported: true)
//   - same: the two chains are structurally the same expression
//   - transpose_of: one chain is syntactically the transpose of the other
//
// # Deterministic Testing
//
// Each scenario runs against a fresh in-memory store with a fixed run ID and
// a deterministic clock, so snapshots are byte-identical across runs.
package harness
