package ir

// Node is an element produced by the tree-builder backend.
//
// Attribute arguments are kept as evaluated: (:class foo bar) becomes
// Attributes["class"] = []any{<foo>, <bar>}.
type Node struct {
	Tag        string           `json:"tag"`
	Attributes map[string][]any `json:"attributes"`
	Children   []any            `json:"children"`
	Key        any              `json:"key,omitempty"`
}

// NewNode creates an empty element with initialized maps.
func NewNode(tag string) *Node {
	return &Node{
		Tag:        tag,
		Attributes: make(map[string][]any),
		Children:   []any{},
	}
}

// HasKey reports whether a key directive set the node identity.
func (n *Node) HasKey() bool {
	return n.Key != nil
}

// Sigil marks a directive token.
type Sigil byte

const (
	// SigilAttr marks a plain attribute directive, e.g. :class.
	SigilAttr Sigil = ':'
	// SigilEvent marks an event directive, e.g. @click.
	SigilEvent Sigil = '@'
)

// IsSigil reports whether b starts a directive token.
func IsSigil(b byte) bool {
	return b == byte(SigilAttr) || b == byte(SigilEvent)
}

// Attr is the value returned by an attribute constructor.
//
// Source holds the directive exactly as written in the template
// (sigil, name and raw argument tokens separated by single spaces).
// The markup backend hands Source to the property cache; the tree
// backend only uses Name and Args.
type Attr struct {
	Sigil  Sigil  `json:"sigil"`
	Name   string `json:"name"`
	Args   []any  `json:"args"`
	Source string `json:"source,omitempty"`
}

// IsEvent reports whether the directive was written with the event sigil.
func (a Attr) IsEvent() bool {
	return a.Sigil == SigilEvent
}

// Event is delivered to handlers bound on a live node.
type Event struct {
	// Type is the event name without the "on" prefix, e.g. "click".
	Type string `json:"type"`

	// Value carries the target's value for input-like events.
	Value string `json:"value,omitempty"`
}
