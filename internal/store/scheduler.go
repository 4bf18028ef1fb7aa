package store

import (
	"sync"
	"time"
)

// Scheduler runs a flush at the next scheduling tick.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// Schedule calls f(fn).
func (f SchedulerFunc) Schedule(fn func()) {
	f(fn)
}

// DefaultFrameInterval approximates one display frame.
const DefaultFrameInterval = 16 * time.Millisecond

// Frame runs scheduled work on a timer, one interval after it was
// scheduled. Work runs on the timer's goroutine.
type Frame struct {
	Interval time.Duration
}

// Schedule arms a timer for fn.
func (f Frame) Schedule(fn func()) {
	d := f.Interval
	if d <= 0 {
		d = DefaultFrameInterval
	}
	time.AfterFunc(d, fn)
}

// Manual queues scheduled work until Flush is called. Tests and the
// scenario harness use it to control ticks.
type Manual struct {
	mu      sync.Mutex
	pending []func()
}

// Schedule queues fn.
func (m *Manual) Schedule(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, fn)
}

// Pending returns the number of queued ticks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Flush runs queued work until none is left, including work scheduled
// while flushing. It returns the number of functions run.
func (m *Manual) Flush() int {
	ran := 0
	for {
		m.mu.Lock()
		batch := m.pending
		m.pending = nil
		m.mu.Unlock()

		if len(batch) == 0 {
			return ran
		}
		for _, fn := range batch {
			fn()
			ran++
		}
	}
}
