package engine

import "sync/atomic"

// Clock is the monotonic logical clock for event ordering.
//
// Every event log entry is stamped with a strictly increasing seq from
// this clock. Wall-clock time is never used, so replay and save/load
// reproduce the same order.
//
// Clock is safe for concurrent use, although the engine only calls Next
// from the goroutine driving it.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming at a specific sequence number.
// Used by Restore to continue after the last logged entry.
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
