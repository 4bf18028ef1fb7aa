package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/roach88/lispui/internal/clock"
	"github.com/roach88/lispui/internal/compiler"
	"github.com/roach88/lispui/internal/ir"
	"github.com/roach88/lispui/internal/patch"
	"github.com/roach88/lispui/internal/props"
	"github.com/roach88/lispui/internal/render"
	"github.com/roach88/lispui/internal/store"
)

// Mount binds one compiled template to a store and a live document.
//
// A Mount owns its property cache: caches are never shared between
// mounts. Renders for one mount must not run concurrently; the store's
// scheduler serializes them.
type Mount struct {
	id      string
	tmpl    *compiler.Template
	store   *store.Store
	cache   *props.Cache
	view    *stateView
	doc     *patch.Document
	logger  *slog.Logger
	stopped func()

	mu      sync.Mutex
	prev    *html.Node // last rendered snapshot
	renders int
	lastErr error
}

type mountConfig struct {
	ids         IDGenerator
	logger      *slog.Logger
	scope       compiler.Scope
	contextName string
	pretty      compiler.Pretty
	propsClock  clock.Source
}

// MountOption configures NewMount.
type MountOption func(*mountConfig)

// WithIDGenerator sets the mount id source (default UUIDv7Generator).
func WithIDGenerator(g IDGenerator) MountOption {
	return func(c *mountConfig) {
		c.ids = g
	}
}

// WithLogger sets the mount's logger (default slog.Default()).
func WithLogger(l *slog.Logger) MountOption {
	return func(c *mountConfig) {
		c.logger = l
	}
}

// WithScope sets the template's custom functions and macros.
func WithScope(s compiler.Scope) MountOption {
	return func(c *mountConfig) {
		c.scope = s
	}
}

// WithContextName sets the template's context binding name.
func WithContextName(name string) MountOption {
	return func(c *mountConfig) {
		c.contextName = name
	}
}

// WithPretty enables indented markup.
func WithPretty(p compiler.Pretty) MountOption {
	return func(c *mountConfig) {
		c.pretty = p
	}
}

// WithPropsClock sets the property cache's id source.
func WithPropsClock(src clock.Source) MountOption {
	return func(c *mountConfig) {
		c.propsClock = src
	}
}

// NewMount compiles src against a fresh property cache. Event handlers
// dispatch to actions, which may be nil.
//
// The mount renders nothing until Start.
func NewMount(src string, st *store.Store, actions *store.Actions, opts ...MountOption) (*Mount, error) {
	cfg := mountConfig{
		ids:         UUIDv7Generator{},
		logger:      slog.Default(),
		contextName: ir.DefaultContextName,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	cacheOpts := []props.Option{
		props.WithContextName(cfg.contextName),
		props.WithLogger(cfg.logger),
	}
	if actions != nil {
		cacheOpts = append(cacheOpts, props.WithDispatcher(actions))
	}
	if cfg.propsClock != nil {
		cacheOpts = append(cacheOpts, props.WithClock(cfg.propsClock))
	}
	view := &stateView{live: st}
	cache := props.New(view, cacheOpts...)

	tmpl, err := compiler.Compile(src, render.NewHTML(cache), cfg.scope,
		compiler.WithContextName(cfg.contextName),
		compiler.WithPretty(cfg.pretty),
	)
	if err != nil {
		return nil, fmt.Errorf("compile template: %w", err)
	}

	id := cfg.ids.Generate()
	return &Mount{
		id:     id,
		tmpl:   tmpl,
		store:  st,
		cache:  cache,
		view:   view,
		doc:    patch.NewDocument(nil),
		logger: cfg.logger.With("mount", id),
		prev:   patch.NewContainer(),
	}, nil
}

// Start subscribes to the store and requests the first render, which
// runs at the store's next flush.
func (m *Mount) Start() {
	m.stopped = m.store.Listen(func(next, _ store.State) {
		if err := m.Render(next); err != nil {
			// log and continue: the live document keeps its last good state
			m.logger.Error("render failed", "error", err)
		}
	})
	m.store.Update(nil)
}

// Stop unsubscribes from the store. Pending batches are not rendered.
func (m *Mount) Stop() {
	if m.stopped != nil {
		m.stopped()
	}
}

// Render executes the template against state and patches the live
// document with the difference from the previous render.
func (m *Mount) Render(state store.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.view.pin(state)
	markup, err := m.markup(state)
	m.view.unpin()
	if err != nil {
		m.lastErr = err
		return err
	}
	snapshot, err := patch.ParseFragment(markup)
	if err != nil {
		m.lastErr = err
		return fmt.Errorf("parse markup: %w", err)
	}

	changes := patch.Diff(m.prev, snapshot)
	if err := patch.Apply(m.doc, changes, m.cache.Hooks(m.doc)); err != nil {
		m.lastErr = err
		return err
	}

	m.prev = snapshot
	m.renders++
	m.lastErr = nil
	m.logger.Debug("rendered", "changes", len(changes), "records", m.cache.Len(), "render", m.renders)
	return nil
}

// markup renders every top-level form. Sibling forms are concatenated.
func (m *Mount) markup(state store.State) (string, error) {
	values, err := m.tmpl.ExecuteAll(map[string]any(state))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, v := range values {
		switch val := v.(type) {
		case render.Markup:
			b.WriteString(string(val))
		case nil:
		default:
			b.WriteString(html.EscapeString(ir.FormatValue(val)))
		}
	}
	return b.String(), nil
}

// Fire delivers ev to the index-th <tag> element of the live document.
func (m *Mount) Fire(tag string, index int, ev ir.Event) error {
	m.mu.Lock()
	node := m.doc.Find(tag, index)
	m.mu.Unlock()

	if node == nil {
		return &NodeNotFoundError{Tag: tag, Index: index}
	}
	if !m.doc.Fire(node, ev) {
		return fmt.Errorf("<%s>[%d] %s: %w", tag, index, ev.Type, ErrNoListener)
	}
	return nil
}

// HTML renders the live document.
func (m *Mount) HTML() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.HTML()
}

// ID returns the mount id.
func (m *Mount) ID() string { return m.id }

// Renders returns the number of completed renders.
func (m *Mount) Renders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renders
}

// Err returns the error of the last render, if it failed.
func (m *Mount) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Source returns the template's generated call-expression text.
func (m *Mount) Source() string { return m.tmpl.Source() }

// Store returns the mount's store.
func (m *Mount) Store() *store.Store { return m.store }

// Cache returns the mount's property cache.
func (m *Mount) Cache() *props.Cache { return m.cache }

// stateView is the cache's state source. While a render runs it is
// pinned to the render's state, so directives and text agree even if
// the store has moved on; otherwise it reads the store.
type stateView struct {
	mu     sync.Mutex
	live   *store.Store
	pinned store.State
	active bool
}

func (v *stateView) State() store.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active {
		return v.pinned
	}
	return v.live.State()
}

func (v *stateView) pin(st store.State) {
	v.mu.Lock()
	v.pinned, v.active = st, true
	v.mu.Unlock()
}

func (v *stateView) unpin() {
	v.mu.Lock()
	v.pinned, v.active = nil, false
	v.mu.Unlock()
}
