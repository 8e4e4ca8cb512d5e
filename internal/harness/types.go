package harness

import "github.com/roach88/mchain/internal/ir"

// ChainOutcome is what the planner produced for one chain.
type ChainOutcome struct {
	Chain  string   `json:"chain"`
	Plan   *ir.Plan `json:"plan,omitempty"`
	Cached bool     `json:"cached"`
	Error  string   `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect entries and assertions match.
	Pass bool `json:"pass"`

	// Run is the run record written to the store.
	Run ir.Run `json:"run"`

	// Chains holds one outcome per chain in declaration order.
	// Used for golden comparison.
	Chains []ChainOutcome `json:"chains"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Chains: []ChainOutcome{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Outcome returns the outcome for the named chain.
func (r *Result) Outcome(chain string) (ChainOutcome, bool) {
	for _, o := range r.Chains {
		if o.Chain == chain {
			return o, true
		}
	}
	return ChainOutcome{}, false
}
