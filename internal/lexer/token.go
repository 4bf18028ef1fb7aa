package lexer

import "fmt"

// Kind classifies a token by its shape.
type Kind int

const (
	// KindAtom is a bare identifier, path, number or directive (":class").
	KindAtom Kind = iota + 1
	// KindOpen is "(", "[" or "{", optionally prefixed with "#".
	KindOpen
	// KindClose is ")", "]" or "}".
	KindClose
	// KindString is a double-quoted string, quotes included.
	KindString
	// KindQuote is one of ' ` , ,@
	KindQuote
	// KindComment is a comment marker "#;" or "#|".
	KindComment
	// KindChar is a character literal such as #\(
	KindChar
	// KindSpecial is one of +inf.0 -inf.0 +nan.0
	KindSpecial
)

var kindNames = map[Kind]string{
	KindAtom:    "atom",
	KindOpen:    "open",
	KindClose:   "close",
	KindString:  "string",
	KindQuote:   "quote",
	KindComment: "comment",
	KindChar:    "char",
	KindSpecial: "special",
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Pos is the position of a token in its source.
type Pos struct {
	Offset int // byte offset
	Line   int // 1-based
	Col    int // 1-based, in bytes
}

// String formats the position as line:col.
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is a single lexeme.
type Token struct {
	Kind Kind
	Text string
	Pos  Pos
}

// IsGroupOpen reports whether the token opens a form.
// Only "(" groups; brackets and braces are tokenized but not grouped.
func (t Token) IsGroupOpen() bool {
	return t.Kind == KindOpen && t.Text == "("
}

// IsGroupClose reports whether the token closes a form.
func (t Token) IsGroupClose() bool {
	return t.Kind == KindClose && t.Text == ")"
}

// HasSigil reports whether the token is a ':' or '@' directive.
func (t Token) HasSigil() bool {
	return t.Kind == KindAtom && len(t.Text) > 1 && (t.Text[0] == ':' || t.Text[0] == '@')
}

// String returns the token text.
func (t Token) String() string {
	return t.Text
}

// Texts returns the text of each token, in order.
func Texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}
