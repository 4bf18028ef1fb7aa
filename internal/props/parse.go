package props

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/lispui/internal/ir"
)

// Directive is one parsed directive group of a fragment.
type Directive struct {
	Sigil ir.Sigil
	Name  string
	Args  []string // raw argument text, quotes kept
}

var (
	directiveHead = regexp.MustCompile(`^([:@])([A-Za-z0-9_][A-Za-z0-9_\-]*)$`)
	bareArg       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*(\.[A-Za-z0-9_\-]+)*$`)
)

// ParseFragment splits a fragment into directive groups.
//
// Each group is a sigil and name followed by space separated
// arguments, each a quoted literal, a number or a bare name. A group
// with any other argument, such as a nested form, is dropped whole,
// as are words outside a group.
func ParseFragment(frag string) []Directive {
	var (
		out []Directive
		cur *Directive
		bad bool
	)
	flush := func() {
		if cur != nil && !bad {
			out = append(out, *cur)
		}
		cur, bad = nil, false
	}
	for _, word := range splitArgs(frag) {
		if !isQuoted(word) && ir.IsSigil(word[0]) {
			flush()
			if m := directiveHead.FindStringSubmatch(word); m != nil {
				cur = &Directive{Sigil: ir.Sigil(m[1][0]), Name: m[2]}
			}
			continue
		}
		if cur == nil {
			continue
		}
		if !validArg(word) {
			bad = true
			continue
		}
		cur.Args = append(cur.Args, word)
	}
	flush()
	return out
}

func validArg(word string) bool {
	if isQuoted(word) {
		return len(word) >= 2 && word[len(word)-1] == word[0]
	}
	if _, ok := ir.ParseNumber(word); ok {
		return true
	}
	return bareArg.MatchString(word)
}

// splitArgs splits on whitespace, keeping quoted runs together.
// Both double and single quotes delimit; a backslash escapes the next
// character inside quotes.
func splitArgs(s string) []string {
	var (
		out   []string
		start = -1
		quote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			if start < 0 {
				start = i
			}
			quote = c
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
		default:
			if start < 0 {
				start = i
			}
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

func isQuoted(word string) bool {
	return word[0] == '"' || word[0] == '\''
}

// unquote strips the quotes of a quoted argument.
func unquote(word string) string {
	if word[0] == '"' {
		if s, err := strconv.Unquote(word); err == nil {
			return s
		}
	}
	s := word[1:]
	if strings.HasSuffix(s, word[:1]) {
		s = s[:len(s)-1]
	}
	return s
}
