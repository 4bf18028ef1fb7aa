package patch

import (
	"errors"

	"golang.org/x/net/html"
)

// ErrNotTraversable is returned by Walk for a nil root.
var ErrNotTraversable = errors.New("walk: expected a node")

// Walk visits node and its descendants depth-first, pre-order.
// When visit returns false the node's children are skipped.
func Walk(node *html.Node, visit func(*html.Node) bool) error {
	if node == nil {
		return ErrNotTraversable
	}
	walk(node, visit)
	return nil
}

func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		// visit may detach c
		next := c.NextSibling
		walk(c, visit)
		c = next
	}
}
