package render

import (
	"github.com/roach88/lispui/internal/compiler"
	"github.com/roach88/lispui/internal/ir"
)

// KeyAttribute is the directive name that sets node identity instead
// of becoming a regular attribute.
const KeyAttribute = "key"

// Tree is the tree-builder backend. The zero value is ready to use.
type Tree struct{}

var _ compiler.Backend = Tree{}

// Attribute returns the directive unchanged; Element folds it into the
// node it belongs to.
func (Tree) Attribute(attr ir.Attr) (any, error) {
	return attr, nil
}

// Element builds a node. Event directives are stored under "on"+name.
func (Tree) Element(tag string, depth int, pretty compiler.Pretty, args []any) (any, error) {
	n := ir.NewNode(tag)
	for _, arg := range args {
		attr, ok := arg.(ir.Attr)
		if !ok {
			n.Children = append(n.Children, arg)
			continue
		}

		switch {
		case attr.Name == KeyAttribute && !attr.IsEvent():
			if len(attr.Args) > 0 {
				n.Key = attr.Args[0]
			}
		case attr.IsEvent():
			n.Attributes["on"+attr.Name] = attr.Args
		default:
			n.Attributes[attr.Name] = attr.Args
		}
	}
	return n, nil
}
