package props

import (
	"strconv"

	"golang.org/x/net/html"

	"github.com/roach88/lispui/internal/ir"
	"github.com/roach88/lispui/internal/patch"
	"github.com/roach88/lispui/internal/render"
)

// Hooks connects a Cache to patch.Apply for one live document.
type Hooks struct {
	cache *Cache
	doc   *patch.Document
}

var _ patch.Hooks = Hooks{}

// Hooks returns the patch hooks for doc.
func (c *Cache) Hooks(doc *patch.Document) Hooks {
	return Hooks{cache: c, doc: doc}
}

// PreApply vetoes removal of the tracking attribute, and any change to
// an attribute the node's record defines: the cache owns those.
func (h Hooks) PreApply(info patch.Info) bool {
	ch := info.Change
	if !ch.Action.IsAttribute() {
		return true
	}
	if ch.Name == render.TrackingAttribute {
		return ch.Action != patch.RemoveAttribute
	}
	if rec := h.cache.recordFor(info.Node); rec != nil {
		if _, owned := rec.Attributes[ch.Name]; owned {
			return false
		}
	}
	return true
}

// PostApply pushes cached attributes onto the live tree: onto the node
// whose tracking attribute changed, or onto every tracked node of a
// freshly inserted subtree.
func (h Hooks) PostApply(info patch.Info) {
	ch := info.Change
	switch {
	case ch.Action.IsAttribute() && ch.Name == render.TrackingAttribute:
		h.cache.ApplyNode(h.doc, info.Node)
	case ch.Action == patch.AddElement || ch.Action == patch.ReplaceElement:
		_ = patch.Walk(info.NewNode, func(n *html.Node) bool {
			if n.Type == html.ElementNode {
				h.cache.ApplyNode(h.doc, n)
			}
			return true
		})
	}
}

// recordFor returns the record referenced by n's tracking attribute.
func (c *Cache) recordFor(n *html.Node) *Record {
	val, ok := patch.GetAttr(n, render.TrackingAttribute)
	if !ok {
		return nil
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil
	}
	return c.Get(id)
}

// ApplyNode applies the record n's tracking attribute points at.
// Untracked nodes and unknown ids are left alone.
func (c *Cache) ApplyNode(doc *patch.Document, n *html.Node) {
	if rec := c.recordFor(n); rec != nil {
		c.Apply(doc, n, rec)
	}
}

// Apply makes n carry exactly rec's attributes (plus the tracking
// attribute) and binds its handlers, replacing earlier ones.
//
// nil and false remove an attribute, true sets it empty, anything else
// is formatted as text.
func (c *Cache) Apply(doc *patch.Document, n *html.Node, rec *Record) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if _, ok := rec.Attributes[a.Key]; ok || a.Key == render.TrackingAttribute {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
	doc.Unbind(n)

	for _, key := range ir.SortedKeys(rec.Attributes) {
		switch v := rec.Attributes[key].(type) {
		case Handler:
			doc.Bind(n, v.Event, func(ev ir.Event) { c.Invoke(v, ev) })
		case nil:
			patch.RemoveAttr(n, key)
		case bool:
			if v {
				patch.SetAttr(n, key, "")
			} else {
				patch.RemoveAttr(n, key)
			}
		default:
			patch.SetAttr(n, key, ir.FormatValue(v))
		}
	}
}
