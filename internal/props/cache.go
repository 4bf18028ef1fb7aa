package props

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/lispui/internal/clock"
	"github.com/roach88/lispui/internal/ir"
	"github.com/roach88/lispui/internal/store"
)

// StateReader supplies the state simple directives read from.
// *store.Store implements it.
type StateReader interface {
	State() store.State
}

// Static is a fixed StateReader.
type Static store.State

// State returns s.
func (s Static) State() store.State {
	return store.State(s)
}

// Dispatcher receives events from bound handlers.
// *store.Actions implements it.
type Dispatcher interface {
	Dispatch(ev ir.Event, args ...any)
}

// Handler is the cached value of an event directive. Handlers are
// plain values, so an unchanged event directive compares equal across
// resolutions and keeps its id.
type Handler struct {
	Event string
	Args  []string
}

// Record is a resolved attribute map and its id.
type Record struct {
	ID         int64
	Attributes map[string]any
}

// Cache is the fragment-keyed attribute store for one mounted template.
//
// Fragments are keyed by exact source text, so every element written
// with identical directives shares one record.
type Cache struct {
	mu     sync.Mutex
	byID   map[int64]map[string]any
	byFrag map[string]int64

	state       StateReader
	dispatcher  Dispatcher
	clock       clock.Source
	contextName string
	logger      *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock sets the id source.
func WithClock(c clock.Source) Option {
	return func(pc *Cache) {
		pc.clock = c
	}
}

// WithDispatcher sets where event handlers dispatch to.
func WithDispatcher(d Dispatcher) Option {
	return func(pc *Cache) {
		pc.dispatcher = d
	}
}

// WithContextName lets state names carry the template's context
// prefix, e.g. ":value ctx.count".
func WithContextName(name string) Option {
	return func(pc *Cache) {
		if name != "" {
			pc.contextName = name
		}
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(pc *Cache) {
		pc.logger = l
	}
}

// New creates an empty cache reading state from state.
func New(state StateReader, opts ...Option) *Cache {
	c := &Cache{
		byID:        make(map[int64]map[string]any),
		byFrag:      make(map[string]int64),
		state:       state,
		clock:       clock.New(),
		contextName: ir.DefaultContextName,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the record id for a fragment.
//
// The fragment's previous id is kept when the newly resolved attribute
// map equals the previous one: same keys, same values. Otherwise the
// previous record is deleted and a fresh id allocated.
func (c *Cache) Resolve(frag string) int64 {
	next := c.attributes(frag)

	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.byFrag[frag]; ok {
		if cur, ok := c.byID[id]; ok && ir.Equal(cur, next) {
			return id
		}
		delete(c.byID, id)
	}

	id := c.clock.Next()
	c.byID[id] = next
	c.byFrag[frag] = id
	return id
}

// Get returns the record stored under id, or nil.
func (c *Cache) Get(id int64) *Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	attrs, ok := c.byID[id]
	if !ok {
		return nil
	}
	return &Record{ID: id, Attributes: attrs}
}

// Len returns the number of live records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byID)
}

// attributes resolves every directive of frag.
func (c *Cache) attributes(frag string) map[string]any {
	attrs := make(map[string]any)
	for _, d := range ParseFragment(frag) {
		switch d.Sigil {
		case ir.SigilAttr:
			switch len(d.Args) {
			case 0:
			case 1:
				attrs[d.Name] = c.argValue(d.Args[0])
			default:
				vals := make([]any, len(d.Args))
				for i, arg := range d.Args {
					vals[i] = c.argValue(arg)
				}
				attrs[d.Name] = vals
			}
		case ir.SigilEvent:
			attrs["on"+d.Name] = Handler{Event: d.Name, Args: d.Args}
		}
	}
	return attrs
}

// argValue is the quoted literal, a number, or a state lookup.
func (c *Cache) argValue(arg string) any {
	if isQuoted(arg) {
		return unquote(arg)
	}
	if n, ok := ir.ParseNumber(arg); ok {
		return n
	}
	return c.lookup(arg)
}

func (c *Cache) lookup(name string) any {
	if c.state == nil {
		return nil
	}
	if name == c.contextName {
		return c.state.State()
	}
	name = strings.TrimPrefix(name, c.contextName+".")
	return ir.Get(map[string]any(c.state.State()), name)
}

// Invoke resolves h's arguments against current state and dispatches.
func (c *Cache) Invoke(h Handler, ev ir.Event) {
	args := make([]any, len(h.Args))
	for i, arg := range h.Args {
		args[i] = c.argValue(arg)
	}
	if c.dispatcher == nil {
		c.logger.Warn("no dispatcher for event", "event", ev.Type)
		return
	}
	c.dispatcher.Dispatch(ev, args...)
}
