package testutil

import (
	"sync"

	"github.com/roach88/lispui/internal/clock"
)

var _ clock.Source = (*DeterministicClock)(nil)

// DeterministicClock is a rewindable id source for stores and property
// caches under test. Two runs that start from the same point hand out
// the same record and listener ids, which keeps data-props values in
// golden files stable.
type DeterministicClock struct {
	mu    sync.Mutex
	start int64
	last  int64
}

// NewDeterministicClock returns a clock whose first id is 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// NewDeterministicClockAt returns a clock whose first id is start+1,
// for tests that need ids not to collide with an existing cache.
func NewDeterministicClockAt(start int64) *DeterministicClock {
	return &DeterministicClock{start: start, last: start}
}

func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last++
	return c.last
}

// Current is the last id handed out, or the starting point.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Reset rewinds to the starting point.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = c.start
}
