package patch

import (
	"fmt"

	"golang.org/x/net/html"
)

// Info describes a change about to be, or just, applied.
type Info struct {
	Change Change

	// Node is the live node the change targets. For AddElement it is
	// the parent.
	Node *html.Node

	// NewNode is the live subtree inserted by AddElement or
	// ReplaceElement.
	NewNode *html.Node
}

// Hooks intercept Apply.
//
// PreApply runs before every attribute mutation; returning false skips
// the mutation. PostApply runs after every committed change.
// Hooks run inline and must not trigger a re-render.
type Hooks interface {
	PreApply(info Info) bool
	PostApply(info Info)
}

// NopHooks allows every change and ignores commits.
type NopHooks struct{}

func (NopHooks) PreApply(Info) bool { return true }
func (NopHooks) PostApply(Info)     {}

// Apply applies changes to doc in order. It stops at the first change
// whose route does not resolve in the live tree.
func Apply(doc *Document, changes []Change, hooks Hooks) error {
	if hooks == nil {
		hooks = NopHooks{}
	}
	for _, c := range changes {
		if err := apply(doc, c, hooks); err != nil {
			return fmt.Errorf("apply %s: %w", c, err)
		}
	}
	return nil
}

// RouteError reports a change whose route leaves the live tree.
type RouteError struct {
	Route []int
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("route %v not found", e.Route)
}

func apply(doc *Document, c Change, hooks Hooks) error {
	if c.Action == AddElement {
		return insert(doc, c, hooks)
	}

	n := At(doc.Root, c.Route)
	if n == nil || len(c.Route) == 0 {
		return &RouteError{Route: c.Route}
	}
	info := Info{Change: c, Node: n}

	switch c.Action {
	case AddAttribute, ModifyAttribute:
		if !hooks.PreApply(info) {
			return nil
		}
		SetAttr(n, c.Name, c.NewValue)

	case RemoveAttribute:
		if !hooks.PreApply(info) {
			return nil
		}
		RemoveAttr(n, c.Name)

	case ModifyText:
		n.Data = c.NewValue

	case RemoveElement:
		doc.forget(n)
		n.Parent.RemoveChild(n)

	case ReplaceElement:
		fresh := Clone(c.Node)
		n.Parent.InsertBefore(fresh, n)
		doc.forget(n)
		n.Parent.RemoveChild(n)
		info.NewNode = fresh

	default:
		return fmt.Errorf("unknown action %q", c.Action)
	}

	hooks.PostApply(info)
	return nil
}

func insert(doc *Document, c Change, hooks Hooks) error {
	if len(c.Route) == 0 {
		return &RouteError{Route: c.Route}
	}
	parent := At(doc.Root, c.Route[:len(c.Route)-1])
	if parent == nil {
		return &RouteError{Route: c.Route}
	}

	fresh := Clone(c.Node)
	parent.InsertBefore(fresh, Child(parent, c.Route[len(c.Route)-1]))
	hooks.PostApply(Info{Change: c, Node: parent, NewNode: fresh})
	return nil
}
