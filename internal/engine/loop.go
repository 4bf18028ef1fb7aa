package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/lispui/internal/store"
)

// Loop is the single-writer task loop.
//
// Thread-safety model:
//   - Submit(), Schedule(): safe from any goroutine
//   - Run(), Drain(): must be called from exactly one goroutine, and
//     not at the same time
type Loop struct {
	queue  *taskQueue
	logger *slog.Logger
}

var _ store.Scheduler = (*Loop)(nil)

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopLogger sets the loop's logger (default slog.Default()).
func WithLoopLogger(l *slog.Logger) LoopOption {
	return func(lp *Loop) {
		lp.logger = l
	}
}

// NewLoop creates an idle loop.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		queue:  newTaskQueue(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Submit enqueues a task. Returns false if the loop has been stopped.
func (l *Loop) Submit(t Task) bool {
	return l.queue.Enqueue(t)
}

// Schedule enqueues fn as a task. It implements store.Scheduler.
func (l *Loop) Schedule(fn func()) {
	l.Submit(Task{Name: "flush", Fn: func() error {
		fn()
		return nil
	}})
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int {
	return l.queue.Len()
}

// Run processes tasks until ctx is cancelled or Stop is called.
//
// ERROR HANDLING: a failing task is logged and the loop continues.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("loop starting")

	for {
		if t, ok := l.queue.TryDequeue(); ok {
			l.run(t)
			continue
		}

		select {
		case <-ctx.Done():
			l.logger.Info("loop stopping: context cancelled")
			l.queue.Close()
			return ctx.Err()

		case <-l.queue.Wait():
			// The signal channel closes when the queue is closed,
			// which makes this case fire immediately.
			if l.queue.Len() == 0 && l.closed() {
				l.logger.Info("loop stopping: queue closed")
				return nil
			}
		}
	}
}

// Drain runs queued tasks on the calling goroutine until the queue is
// empty, including tasks enqueued meanwhile. It returns the number of
// tasks run. Drain is how one-shot callers (tests, the CLI) tick a
// loop that is not running.
func (l *Loop) Drain() int {
	n := 0
	for {
		t, ok := l.queue.TryDequeue()
		if !ok {
			return n
		}
		l.run(t)
		n++
	}
}

// Stop closes the queue; Run returns once it is empty.
func (l *Loop) Stop() {
	l.queue.Close()
}

func (l *Loop) closed() bool {
	l.queue.mu.Lock()
	defer l.queue.mu.Unlock()
	return l.queue.closed
}

func (l *Loop) run(t Task) {
	if err := t.Fn(); err != nil {
		l.logger.Error("task failed", "task", t.Name, "error", err)
	}
}
