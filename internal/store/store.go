package store

import (
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/lispui/internal/clock"
)

// Listener receives the state after a batch and the state before it.
type Listener func(next, prev State)

// Store is a batched publish/subscribe state container.
//
// Thread-safety: all methods may be called from any goroutine.
// Listeners run on whichever goroutine the Scheduler flushes on and
// never under the store's lock.
type Store struct {
	mu        sync.Mutex
	state     State
	base      State // state before the first update of the pending batch
	pending   bool
	listeners map[int64]Listener

	clock     clock.Source
	scheduler Scheduler
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithScheduler sets the flush scheduler (default Frame{}).
func WithScheduler(s Scheduler) Option {
	return func(st *Store) {
		st.scheduler = s
	}
}

// WithClock sets the source of listener ids.
func WithClock(c clock.Source) Option {
	return func(st *Store) {
		st.clock = c
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(st *Store) {
		st.logger = l
	}
}

// New creates a Store holding a copy of initial.
func New(initial State, opts ...Option) *Store {
	s := &Store{
		state:     initial.Clone(),
		listeners: make(map[int64]Listener),
		clock:     clock.New(),
		scheduler: Frame{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update shallow-merges changes into a new state and schedules a
// notification if none is pending. An empty update still replaces the
// state and notifies.
func (s *Store) Update(changes State) {
	s.UpdateFunc(func(State) State { return changes })
}

// UpdateFunc merges the result of fn(current) into a new state.
// fn runs under the store's lock and must not call back into the store.
func (s *Store) UpdateFunc(fn func(State) State) {
	s.mu.Lock()
	changes := fn(s.state)
	if !s.pending {
		s.pending = true
		s.base = s.state
		defer s.scheduler.Schedule(s.flush)
	}
	s.state = s.state.Merge(changes)
	s.mu.Unlock()
}

// Listen registers l and returns a function that unregisters it.
// Calling the returned function more than once is harmless.
func (s *Store) Listen(l Listener) (unsubscribe func()) {
	id := s.clock.Next()

	s.mu.Lock()
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Pending reports whether a notification is scheduled.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// flush delivers one batch.
func (s *Store) flush() {
	s.mu.Lock()
	if !s.pending {
		s.mu.Unlock()
		return
	}
	next, prev := s.state, s.base
	s.pending = false
	s.base = nil
	ids := slices.Sorted(maps.Keys(s.listeners))
	s.mu.Unlock()

	s.logger.Debug("store notify", "listeners", len(ids))

	for _, id := range ids {
		// A listener earlier in this pass may have unsubscribed this one.
		s.mu.Lock()
		l, ok := s.listeners[id]
		s.mu.Unlock()
		if ok {
			l(next, prev)
		}
	}
}
