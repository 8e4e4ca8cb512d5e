package ir

// NOTE: These are record types shared by the planner, store and CLI. They
// carry rendered strings rather than live trees so they can be persisted
// and compared without re-running the optimizer.

// Plan is the optimized evaluation order for one chain.
type Plan struct {
	ID        string     `json:"id"`         // ExprHash of the input chain
	Expr      string     `json:"expr"`       // canonical JSON of the input chain
	Factors   int        `json:"factors"`    // number of chain factors
	Cost      int64      `json:"cost"`       // optimal FLOP count
	NaiveCost int64      `json:"naive_cost"` // left-to-right FLOP count, saturated at MaxInt64
	Parens    string     `json:"parens"`     // optimal parenthesization
	Splits    [][]int    `json:"splits"`     // 1-indexed split table
	Steps     []PlanStep `json:"steps"`      // multiplications in evaluation order
	Seq       int64      `json:"seq"`        // logical clock
}

// PlanStep is one multiplication of an optimal plan.
type PlanStep struct {
	Expr   string `json:"expr"`   // rendered sub-product
	Kernel string `json:"kernel"` // GEMM, TRMM or SYMM
	Rows   int    `json:"rows"`
	Inner  int    `json:"inner"`
	Cols   int    `json:"cols"`
	Flops  int64  `json:"flops"`
}

// Run records one planner invocation over a set of chains.
type Run struct {
	ID     string `json:"id"`     // UUIDv7
	Source string `json:"source"` // specs directory or file
	Seq    int64  `json:"seq"`
}

// RunEntry links a named chain of a run to the plan that serves it.
type RunEntry struct {
	RunID  string `json:"run_id"`
	Chain  string `json:"chain"`
	PlanID string `json:"plan_id"`
	Cached bool   `json:"cached"` // plan was found in the store, not recomputed
	Seq    int64  `json:"seq"`
}
