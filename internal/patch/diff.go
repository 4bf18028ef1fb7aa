package patch

import (
	"fmt"

	"golang.org/x/net/html"
)

// Action names a kind of change.
type Action string

const (
	AddAttribute    Action = "addAttribute"
	ModifyAttribute Action = "modifyAttribute"
	RemoveAttribute Action = "removeAttribute"
	ModifyText      Action = "modifyText"
	AddElement      Action = "addElement"
	RemoveElement   Action = "removeElement"
	ReplaceElement  Action = "replaceElement"
)

// IsAttribute reports whether the action mutates an attribute.
func (a Action) IsAttribute() bool {
	return a == AddAttribute || a == ModifyAttribute || a == RemoveAttribute
}

// Change is one mutation of the live document.
//
// Route addresses the target node. For AddElement it addresses the
// position the new node is inserted at: its parent's route plus the
// child index.
type Change struct {
	Action Action `json:"action"`
	Route  []int  `json:"route"`

	// Name, OldValue and NewValue describe attribute changes.
	// OldValue and NewValue also carry the text of ModifyText.
	Name     string `json:"name,omitempty"`
	OldValue string `json:"old_value,omitempty"`
	NewValue string `json:"new_value,omitempty"`

	// Node is the replacement or inserted subtree, detached from the
	// snapshot it came from.
	Node *html.Node `json:"-"`
}

// String formats the change for logs and test failures.
func (c Change) String() string {
	switch {
	case c.Action.IsAttribute():
		return fmt.Sprintf("%s %v %s %q -> %q", c.Action, c.Route, c.Name, c.OldValue, c.NewValue)
	case c.Action == ModifyText:
		return fmt.Sprintf("%s %v %q -> %q", c.Action, c.Route, c.OldValue, c.NewValue)
	case c.Node != nil:
		return fmt.Sprintf("%s %v <%s>", c.Action, c.Route, c.Node.Data)
	default:
		return fmt.Sprintf("%s %v", c.Action, c.Route)
	}
}

// Diff returns the changes that turn the children of prev into the
// children of next. Children are matched by position.
//
// Changes are ordered so they can be applied one after another: the
// routes of later changes stay valid after earlier ones are applied.
func Diff(prev, next *html.Node) []Change {
	var d differ
	d.children(prev, next, nil)
	return d.changes
}

type differ struct {
	changes []Change
}

func (d *differ) add(c Change) {
	d.changes = append(d.changes, c)
}

func (d *differ) children(a, b *html.Node, route []int) {
	ac, bc := Children(a), Children(b)

	common := min(len(ac), len(bc))
	for i := 0; i < common; i++ {
		d.node(ac[i], bc[i], childRoute(route, i))
	}
	for i := len(ac) - 1; i >= common; i-- {
		d.add(Change{Action: RemoveElement, Route: childRoute(route, i)})
	}
	for i := common; i < len(bc); i++ {
		d.add(Change{Action: AddElement, Route: childRoute(route, i), Node: Clone(bc[i])})
	}
}

func (d *differ) node(a, b *html.Node, route []int) {
	if a.Type != b.Type || a.Type == html.ElementNode && a.Data != b.Data {
		d.add(Change{Action: ReplaceElement, Route: route, Node: Clone(b)})
		return
	}

	switch a.Type {
	case html.TextNode, html.CommentNode:
		if a.Data != b.Data {
			d.add(Change{Action: ModifyText, Route: route, OldValue: a.Data, NewValue: b.Data})
		}
		return
	case html.ElementNode:
		d.attributes(a, b, route)
	}
	d.children(a, b, route)
}

func (d *differ) attributes(a, b *html.Node, route []int) {
	for _, attr := range a.Attr {
		nv, ok := GetAttr(b, attr.Key)
		switch {
		case !ok:
			d.add(Change{Action: RemoveAttribute, Route: route, Name: attr.Key, OldValue: attr.Val})
		case nv != attr.Val:
			d.add(Change{Action: ModifyAttribute, Route: route, Name: attr.Key, OldValue: attr.Val, NewValue: nv})
		}
	}
	for _, attr := range b.Attr {
		if _, ok := GetAttr(a, attr.Key); !ok {
			d.add(Change{Action: AddAttribute, Route: route, Name: attr.Key, NewValue: attr.Val})
		}
	}
}

func childRoute(route []int, i int) []int {
	out := make([]int, len(route)+1)
	copy(out, route)
	out[len(route)] = i
	return out
}
