package patch

import (
	"sync"

	"golang.org/x/net/html"

	"github.com/roach88/lispui/internal/ir"
)

// Listener handles an event fired on a live node.
type Listener func(ev ir.Event)

// Document is a live tree plus the event listeners bound to its nodes.
//
// Listeners live outside the tree: they are not attributes and never
// show up in rendered HTML.
type Document struct {
	Root *html.Node

	mu        sync.Mutex
	listeners map[*html.Node]map[string]Listener
}

// NewDocument wraps root. A nil root gets an empty container.
func NewDocument(root *html.Node) *Document {
	if root == nil {
		root = NewContainer()
	}
	return &Document{
		Root:      root,
		listeners: make(map[*html.Node]map[string]Listener),
	}
}

// Bind registers fn for event type on n, replacing any previous one.
func (d *Document) Bind(n *html.Node, event string, fn Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	byType := d.listeners[n]
	if byType == nil {
		byType = make(map[string]Listener)
		d.listeners[n] = byType
	}
	byType[event] = fn
}

// Unbind removes every listener bound to n.
func (d *Document) Unbind(n *html.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.listeners, n)
}

// Listeners returns the event types bound on n.
func (d *Document) Listeners(n *html.Node) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return ir.SortedKeys(d.listeners[n])
}

// Fire delivers ev to the listener bound on n for ev.Type.
// It reports whether a listener ran.
func (d *Document) Fire(n *html.Node, ev ir.Event) bool {
	d.mu.Lock()
	fn := d.listeners[n][ev.Type]
	d.mu.Unlock()

	if fn == nil {
		return false
	}
	fn(ev)
	return true
}

// Find returns the index-th element (pre-order, zero based) with the
// given tag, or nil.
func (d *Document) Find(tag string, index int) *html.Node {
	var found *html.Node
	seen := 0
	_ = Walk(d.Root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n != d.Root && n.Type == html.ElementNode && n.Data == tag {
			if seen == index {
				found = n
				return false
			}
			seen++
		}
		return true
	})
	return found
}

// HTML renders the live tree's content.
func (d *Document) HTML() (string, error) {
	return RenderChildren(d.Root)
}

// forget drops the listeners of n and its descendants.
func (d *Document) forget(n *html.Node) {
	_ = Walk(n, func(c *html.Node) bool {
		d.Unbind(c)
		return true
	})
}
