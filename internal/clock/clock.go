// Package clock provides the monotonic logical counter used for ids.
//
// Property-cache records and store listeners are identified by integers
// drawn from a Clock. Ids are never reused: a retired record's id stays
// retired for the lifetime of the clock.
package clock

import "sync/atomic"

// Source hands out strictly increasing ids.
// Implemented by Clock (production) and testutil.DeterministicClock (tests).
type Source interface {
	Next() int64
}

// Clock is a monotonic logical clock.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// New creates a new clock starting at 0. The first Next returns 1.
func New() *Clock {
	return &Clock{}
}

// NewAt creates a clock starting at a specific sequence number.
func NewAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next id and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last id handed out without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
