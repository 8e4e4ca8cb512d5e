package planner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"github.com/roach88/mchain/internal/chain"
	"github.com/roach88/mchain/internal/compiler"
	"github.com/roach88/mchain/internal/cost"
	"github.com/roach88/mchain/internal/ir"
	"github.com/roach88/mchain/internal/store"
)

// DefaultMaxFactors is the default limit on factors per chain.
const DefaultMaxFactors = 512

// Planner optimizes chains and records the results in a plan store.
//
// Thread-safety model:
//   - PlanExpr and PlanProgram may be called from any goroutine; store
//     writes are serialized by the store's single connection.
//   - Within one PlanProgram call, optimization runs on worker goroutines
//     and every store write happens on the calling goroutine.
type Planner struct {
	store       *store.Store
	clock       Sequencer
	runIDs      RunIDGenerator
	logger      *slog.Logger
	parallelism int
	maxFactors  int
}

// Sequencer issues strictly increasing sequence numbers.
// Implemented by Clock and by testutil.DeterministicClock.
type Sequencer interface {
	Next() int64
	Current() int64
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithParallelism bounds the number of chains optimized at once.
// Values below 1 are treated as 1. Default: GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(p *Planner) {
		p.parallelism = max(n, 1)
	}
}

// WithClock sets the logical clock. Use NewClockAt(store.GetLastSeq())
// to continue numbering in an existing store.
func WithClock(c Sequencer) Option {
	return func(p *Planner) {
		p.clock = c
	}
}

// WithRunIDGenerator sets the run ID source. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(p *Planner) {
		p.runIDs = g
	}
}

// WithMaxFactors sets the factor limit per chain.
//
// Default: 512 (DefaultMaxFactors)
func WithMaxFactors(n int) Option {
	return func(p *Planner) {
		p.maxFactors = n
	}
}

// New creates a Planner backed by s. s may be nil, in which case nothing is
// cached or persisted.
func New(s *store.Store, opts ...Option) *Planner {
	p := &Planner{
		store:       s,
		clock:       NewClock(),
		runIDs:      UUIDv7Generator{},
		logger:      slog.Default(),
		parallelism: runtime.GOMAXPROCS(0),
		maxFactors:  DefaultMaxFactors,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Clock returns the planner's logical clock.
func (p *Planner) Clock() Sequencer {
	return p.clock
}

// Entry is the outcome for one chain of a run.
type Entry struct {
	Chain  string
	Plan   *ir.Plan // nil when Err is set
	Cached bool     // plan came from the store or an identical earlier chain
	Err    error
}

// Report is the outcome of one PlanProgram call.
type Report struct {
	Run     ir.Run
	Entries []Entry // declaration order
}

// Failed returns the entries whose chain could not be planned.
func (r *Report) Failed() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Err != nil {
			out = append(out, e)
		}
	}
	return out
}

// Entry returns the entry for the named chain.
func (r *Report) Entry(name string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Chain == name {
			return e, true
		}
	}
	return Entry{}, false
}

// PlanExpr plans a single expression. The returned bool reports whether the
// plan was served from the store.
func (p *Planner) PlanExpr(ctx context.Context, name string, e ir.Expr) (*ir.Plan, bool, error) {
	id, err := ir.ExprHash(e)
	if err != nil {
		return nil, false, fmt.Errorf("plan %s: %w", name, err)
	}

	cached, err := p.lookup(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if cached != nil {
		p.logger.Debug("plan cache hit", "chain", name, "plan_id", id)
		return cached, true, nil
	}

	plan, err := p.optimize(name, id, e)
	if err != nil {
		return nil, false, err
	}
	stored, inserted, err := p.persist(ctx, plan)
	if err != nil {
		return nil, false, err
	}
	return stored, !inserted, nil
}

// PlanProgram plans every chain of b and records a run. source names the
// input (a directory or file) for history.
//
// Chains that fail to optimize are reported in their Entry and do not abort
// the run. The returned error is reserved for store failures and
// cancellation.
func (p *Planner) PlanProgram(ctx context.Context, source string, b *compiler.Bound) (*Report, error) {
	run := ir.Run{
		ID:     p.runIDs.Generate(),
		Source: source,
		Seq:    p.clock.Next(),
	}
	if p.store != nil {
		if err := p.store.WriteRun(ctx, run); err != nil {
			return nil, err
		}
	}
	p.logger.Info("run started", "run_id", run.ID, "source", source, "chains", len(b.Chains))

	report := &Report{Run: run, Entries: make([]Entry, len(b.Chains))}

	// Resolve ids and cache hits; collect distinct misses in first-seen order.
	type job struct {
		id   string
		name string
		expr ir.Expr
		plan *ir.Plan
		err  error
	}
	var jobs []*job
	byID := make(map[string]*job)
	ids := make([]string, len(b.Chains))
	hits := make(map[string]*ir.Plan)

	for i, c := range b.Chains {
		report.Entries[i].Chain = c.Name
		id, err := ir.ExprHash(c.Expr)
		if err != nil {
			report.Entries[i].Err = err
			continue
		}
		ids[i] = id
		if _, seen := byID[id]; seen {
			continue
		}
		if _, seen := hits[id]; seen {
			continue
		}
		cached, err := p.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			hits[id] = cached
			continue
		}
		j := &job{id: id, name: c.Name, expr: c.Expr}
		byID[id] = j
		jobs = append(jobs, j)
	}

	p.optimizeAll(ctx, len(jobs), func(i int) {
		j := jobs[i]
		j.plan, j.err = p.optimize(j.name, j.id, j.expr)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Single writer, declaration order.
	written := make(map[string]bool)
	for i, c := range b.Chains {
		entry := &report.Entries[i]
		if entry.Err != nil {
			p.logger.Warn("chain failed", "chain", c.Name, "error", entry.Err)
			continue
		}
		id := ids[i]

		switch {
		case hits[id] != nil:
			entry.Plan, entry.Cached = hits[id], true
		case written[id]:
			entry.Plan, entry.Cached = byID[id].plan, true
		case byID[id].err != nil:
			entry.Err = byID[id].err
			p.logger.Warn("chain failed", "chain", c.Name, "error", entry.Err)
			continue
		default:
			stored, inserted, err := p.persist(ctx, byID[id].plan)
			if err != nil {
				return nil, err
			}
			byID[id].plan = stored
			written[id] = true
			entry.Plan, entry.Cached = stored, !inserted
		}

		if p.store != nil {
			link := ir.RunEntry{
				RunID:  run.ID,
				Chain:  c.Name,
				PlanID: id,
				Cached: entry.Cached,
				Seq:    p.clock.Next(),
			}
			if err := p.store.LinkPlan(ctx, link); err != nil {
				return nil, err
			}
		}
		p.logger.Debug("chain planned",
			"chain", c.Name,
			"plan_id", id,
			"cost", entry.Plan.Cost,
			"cached", entry.Cached,
		)
	}

	p.logger.Info("run complete",
		"run_id", run.ID,
		"chains", len(report.Entries),
		"failed", len(report.Failed()),
	)
	return report, nil
}

// optimizeAll calls fn for 0..n-1 on at most p.parallelism goroutines.
// No new work starts once ctx is done.
func (p *Planner) optimizeAll(ctx context.Context, n int, fn func(i int)) {
	sem := make(chan struct{}, p.parallelism)
	var wg sync.WaitGroup
	for i := range n {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}()
	}
	wg.Wait()
}

// lookup returns the stored plan for id, or nil on a miss.
func (p *Planner) lookup(ctx context.Context, id string) (*ir.Plan, error) {
	if p.store == nil {
		return nil, nil
	}
	plan, err := p.store.ReadPlan(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("plan lookup: %w", err)
	}
	return &plan, nil
}

// optimize runs the chain optimizer and renders a plan. Seq is left at zero;
// persist assigns it.
func (p *Planner) optimize(name, id string, e ir.Expr) (*ir.Plan, error) {
	fs, err := chain.Factors(e)
	if err != nil {
		return nil, err
	}
	if p.maxFactors > 0 && len(fs) > p.maxFactors {
		return nil, &FactorLimitError{Chain: name, Factors: len(fs), Limit: p.maxFactors}
	}

	res, err := chain.OptimizeFactors(fs)
	if err != nil {
		return nil, err
	}
	naive, err := chain.NaiveCost(fs)
	var oe *cost.OverflowError
	if errors.As(err, &oe) {
		p.logger.Warn("naive cost saturated", "chain", name, "error", err)
		naive, err = math.MaxInt64, nil
	}
	if err != nil {
		return nil, err
	}
	steps, err := res.Breakdown()
	if err != nil {
		return nil, err
	}
	expr, err := ir.MarshalCanonical(e)
	if err != nil {
		return nil, err
	}

	return &ir.Plan{
		ID:        id,
		Expr:      string(expr),
		Factors:   res.N(),
		Cost:      res.Cost(),
		NaiveCost: naive,
		Parens:    res.Parenthesize(),
		Splits:    res.Split(),
		Steps:     planSteps(steps),
	}, nil
}

// persist stamps plan and writes it. When another writer stored the same
// plan first, the stored copy is returned and inserted is false.
func (p *Planner) persist(ctx context.Context, plan *ir.Plan) (*ir.Plan, bool, error) {
	plan.Seq = p.clock.Next()
	if p.store == nil {
		return plan, true, nil
	}

	inserted, err := p.store.WritePlan(ctx, *plan)
	if err != nil {
		return nil, false, err
	}
	if inserted {
		p.logger.Info("plan written", "plan_id", plan.ID, "cost", plan.Cost, "seq", plan.Seq)
		return plan, true, nil
	}

	existing, err := p.store.ReadPlan(ctx, plan.ID)
	if err != nil {
		return nil, false, fmt.Errorf("read back plan %s: %w", plan.ID, err)
	}
	return &existing, false, nil
}

func planSteps(steps []cost.Step) []ir.PlanStep {
	out := make([]ir.PlanStep, len(steps))
	for i, s := range steps {
		out[i] = ir.PlanStep{
			Expr:   ir.Format(s.Expr),
			Kernel: string(s.Kernel),
			Rows:   s.Rows,
			Inner:  s.Inner,
			Cols:   s.Cols,
			Flops:  s.Flops,
		}
	}
	return out
}
