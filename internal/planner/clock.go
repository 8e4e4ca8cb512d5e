package planner

import "sync/atomic"

// Clock is a monotonic logical clock for ordering store records.
//
// Every run, plan and run link is stamped with a strictly increasing seq
// from this clock, so store order never depends on wall-clock time.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// The planner only calls Next from its writer loop.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to resume after the last seq found in an existing store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
