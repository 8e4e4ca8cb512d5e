// Package planner turns bound chain programs into persisted plans.
//
// A run compiles to a list of named chains. For each chain the planner looks
// up the content hash in the plan store, optimizes the misses (in parallel,
// bounded by WithParallelism) and then writes plans and run links from a
// single goroutine in declaration order. Sequence numbers come from a
// logical Clock so the store is ordered without wall-clock time.
//
// The store is optional. A planner built with a nil store still optimizes
// and stamps plans, but nothing is cached or recorded.
package planner
