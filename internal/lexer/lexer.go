// Package lexer turns template source into an ordered token stream.
//
// The grammar is a small Lisp reader: parentheses group forms, double
// quotes delimit strings and everything else up to whitespace or a
// delimiter is an atom. Rules are tried in order and the first match
// wins:
//
//  1. end of input (whitespace is always skipped first)
//  2. comment markers   #;  #|
//  3. character literal #\x
//  4. quote forms       '  `  ,@  ,
//  5. open              (  [  {  optionally prefixed with #
//  6. close             )  ]  }
//  7. string            "..." with backslash escapes; unterminated
//     strings run to the end of input
//  8. special numbers   +inf.0  -inf.0  +nan.0
//  9. atom              maximal run of non-space, non-delimiter runes
//
// Every step consumes at least one byte, so tokenizing always ends.
package lexer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type rule struct {
	kind Kind
	re   *regexp.Regexp
}

// rules is the ordered rule table; the atom rule is applied last by hand
// so that unicode whitespace ends an atom.
var rules = []rule{
	{KindComment, regexp.MustCompile(`^#[;|]`)},
	{KindChar, regexp.MustCompile(`^#\\[^\w]`)},
	{KindQuote, regexp.MustCompile("^(?:,@|'|`|,)")},
	{KindOpen, regexp.MustCompile(`^#?[(\[{]`)},
	{KindClose, regexp.MustCompile(`^[)\]}]`)},
	{KindString, regexp.MustCompile(`^"(?:\\(?:.|$)|[^"\\])*(?:"|$)`)},
	{KindSpecial, regexp.MustCompile(`^(?:\+inf\.0|-inf\.0|\+nan\.0)`)},
}

// Tokenize splits src into tokens.
//
//	Tokenize(`(div (:class "x") "hi")`)
//	// ( div ( :class "x" ) "hi" )
func Tokenize(src string) []Token {
	s := &scanner{src: src, line: 1, col: 1}
	var tokens []Token
	for {
		s.skipSpace()
		if s.off >= len(s.src) {
			return tokens
		}
		tok, ok := s.next()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

// TokenizeValue tokenizes a dynamically typed input. Strings, byte
// slices and fmt.Stringer values are accepted; anything else fails with
// an *ArgumentError.
func TokenizeValue(v any) ([]Token, error) {
	switch src := v.(type) {
	case string:
		return Tokenize(src), nil
	case []byte:
		return Tokenize(string(src)), nil
	case fmt.Stringer:
		return Tokenize(src.String()), nil
	default:
		return nil, &ArgumentError{Type: fmt.Sprintf("%T", v)}
	}
}

type scanner struct {
	src  string
	off  int
	line int
	col  int
}

func (s *scanner) pos() Pos {
	return Pos{Offset: s.off, Line: s.line, Col: s.col}
}

func (s *scanner) advance(n int) {
	for _, r := range s.src[s.off : s.off+n] {
		if r == '\n' {
			s.line++
			s.col = 1
			continue
		}
		s.col += utf8.RuneLen(r)
	}
	s.off += n
}

func (s *scanner) skipSpace() {
	rest := s.src[s.off:]
	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	s.advance(len(rest) - len(trimmed))
}

// next matches one token at the current offset. It only reports false
// when nothing can be consumed, which ends the token stream.
func (s *scanner) next() (Token, bool) {
	rest := s.src[s.off:]
	start := s.pos()

	for _, r := range rules {
		if m := r.re.FindString(rest); m != "" {
			s.advance(len(m))
			return Token{Kind: r.kind, Text: m, Pos: start}, true
		}
	}

	n := atomLen(rest)
	if n == 0 {
		return Token{}, false
	}
	s.advance(n)
	return Token{Kind: KindAtom, Text: rest[:n], Pos: start}, true
}

func atomLen(s string) int {
	for i, r := range s {
		if unicode.IsSpace(r) || isDelimiter(r) {
			return i
		}
	}
	return len(s)
}

func isDelimiter(r rune) bool {
	switch r {
	case '(', ')', '[', ']', '{', '}':
		return true
	}
	return false
}
