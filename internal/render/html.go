package render

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/roach88/lispui/internal/compiler"
	"github.com/roach88/lispui/internal/ir"
)

// TrackingAttribute is the only attribute the HTML backend writes.
// Its value is a property cache record id.
const TrackingAttribute = "data-props"

// Markup is rendered HTML. Element children of type Markup are
// embedded as is; every other child is escaped.
type Markup string

// String implements fmt.Stringer.
func (m Markup) String() string {
	return string(m)
}

// Resolver maps a directive fragment to a property record id.
// *props.Cache implements it.
type Resolver interface {
	Resolve(fragment string) int64
}

// HTML is the string-renderer backend.
type HTML struct {
	Props Resolver
}

var _ compiler.Backend = HTML{}

// NewHTML returns an HTML backend resolving attributes through r.
func NewHTML(r Resolver) HTML {
	return HTML{Props: r}
}

// Attribute returns the directive; only its Source is used.
func (HTML) Attribute(attr ir.Attr) (any, error) {
	return attr, nil
}

// voidElements never get a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Element renders tag. All directives of the element are joined into
// one fragment, in source order, and replaced by a tracking attribute.
func (h HTML) Element(tag string, depth int, pretty compiler.Pretty, args []any) (any, error) {
	var (
		frags    []string
		children strings.Builder
		nested   bool
	)
	for _, arg := range args {
		switch v := arg.(type) {
		case ir.Attr:
			frags = append(frags, v.Source)
		case Markup:
			children.WriteString(string(v))
			nested = true
		case nil:
		default:
			text := ir.FormatValue(v)
			if pretty.Enabled {
				children.WriteString(newline(depth+1, pretty))
			}
			children.WriteString(html.EscapeString(text))
		}
	}

	var b strings.Builder
	if pretty.Enabled && depth > 0 {
		b.WriteString(newline(depth, pretty))
	}
	b.WriteByte('<')
	b.WriteString(tag)
	if len(frags) > 0 && h.Props != nil {
		id := h.Props.Resolve(strings.Join(frags, " "))
		b.WriteString(` ` + TrackingAttribute + `="`)
		b.WriteString(strconv.FormatInt(id, 10))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	if voidElements[tag] {
		return Markup(b.String()), nil
	}

	b.WriteString(children.String())
	if pretty.Enabled && (nested || children.Len() > 0) {
		b.WriteString(newline(depth, pretty))
	}
	b.WriteString("</" + tag + ">")
	return Markup(b.String()), nil
}

func newline(depth int, pretty compiler.Pretty) string {
	return "\n" + strings.Repeat(pretty.Unit(), depth)
}
