package compiler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/lispui/internal/ir"
	"github.com/roach88/lispui/internal/lexer"
)

// Program is the output of Generate.
type Program struct {
	// Forms are the top-level expressions in source order. Sibling
	// top-level forms are legal.
	Forms []Expr

	// ContextName is the binding name variables are read through.
	ContextName string

	// Issues are structural problems found while generating. Build
	// refuses a program with issues.
	Issues []*SyntaxError

	scope Scope
}

// Option configures Generate and Compile.
type Option func(*options)

type options struct {
	contextName string
	pretty      Pretty
}

// WithContextName sets the context binding name (default "ctx").
func WithContextName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.contextName = name
		}
	}
}

// WithPretty sets the pretty-print settings handed to element refs.
func WithPretty(p Pretty) Option {
	return func(o *options) {
		o.pretty = p
	}
}

// generator holds the state of one pass. It is never reused.
type generator struct {
	opts     options
	scope    Scope
	depth    int
	awaiting bool     // a "(" was consumed and its operator is next
	openPos  lexer.Pos
	stack    []*frame // open forms, innermost last
	consumed []string // text of every token consumed so far
	prog     *Program
}

type frame struct {
	call  *Call
	start int // index into consumed of the operator token
}

// Generate transforms a token stream into a Program in a single
// left-to-right pass. The tokens slice is consumed: Generate never
// looks back at a token once it has been handled.
//
// Unbalanced or malformed forms are recorded as Program.Issues and
// surface from Build as a *CompileError. The program keeps a copy of
// scope; later changes to the caller's maps do not reach it.
func Generate(tokens []lexer.Token, scope Scope, opts ...Option) *Program {
	o := options{contextName: ir.DefaultContextName}
	for _, opt := range opts {
		opt(&o)
	}

	scope = scope.clone()
	g := &generator{
		opts:  o,
		scope: scope,
		prog:  &Program{ContextName: o.contextName, scope: scope},
	}

	for len(tokens) > 0 {
		t := tokens[0]
		tokens = tokens[1:]
		g.consume(t)
	}
	g.finish()

	return g.prog
}

func (g *generator) consume(t lexer.Token) {
	switch {
	case t.IsGroupOpen():
		if g.awaiting {
			g.issue(t.Pos, "form in operator position")
			return
		}
		g.awaiting = true
		g.openPos = t.Pos
		g.consumed = append(g.consumed, t.Text)

	case t.IsGroupClose():
		if g.awaiting {
			g.awaiting = false
			g.issue(g.openPos, "empty form")
			return
		}
		g.close(t)

	case g.awaiting:
		g.awaiting = false
		g.consumed = append(g.consumed, t.Text)
		g.open(t)

	default:
		g.consumed = append(g.consumed, t.Text)
		if arg := g.operand(t); arg != nil {
			g.emit(arg)
		}
	}
}

// open starts a new form whose operator is t.
func (g *generator) open(t lexer.Token) {
	if t.Kind != lexer.KindAtom {
		g.issue(t.Pos, fmt.Sprintf("operator must be a name, got %s %q", t.Kind, t.Text))
	}

	ref := Resolve(t.Text, g.depth, g.scope, g.opts.pretty)
	if t.Kind == lexer.KindAtom && ref.Kind == RefElement && !ValidTag(ref.Name) {
		g.issue(t.Pos, fmt.Sprintf("%q is not a valid element name", ref.Name))
	}
	call := &Call{Ref: ref, Pos: g.openPos}
	if ref.Kind == RefMacro {
		call.Args = append(call.Args, ContextArg{})
	}

	g.stack = append(g.stack, &frame{call: call, start: len(g.consumed) - 1})
	g.depth++
}

// close ends the innermost form.
func (g *generator) close(t lexer.Token) {
	if len(g.stack) == 0 {
		g.issue(t.Pos, `unexpected ")"`)
		return
	}

	g.depth--
	top := g.stack[len(g.stack)-1]
	g.stack = g.stack[:len(g.stack)-1]

	top.call.Source = strings.Join(g.consumed[top.start:], " ")
	g.consumed = append(g.consumed, t.Text)
	g.emit(top.call)
}

// emit appends e to the innermost open form, or to the top level.
func (g *generator) emit(e Expr) {
	if len(g.stack) == 0 {
		g.prog.Forms = append(g.prog.Forms, e)
		return
	}
	top := g.stack[len(g.stack)-1].call
	top.Args = append(top.Args, e)
}

// operand classifies a non-parenthesis token in argument position.
func (g *generator) operand(t lexer.Token) Expr {
	switch t.Kind {
	case lexer.KindString:
		return Literal{Value: unquote(t.Text), Raw: t.Text, Pos: t.Pos}
	case lexer.KindAtom:
	default:
		g.issue(t.Pos, fmt.Sprintf("unsupported %s token %q", t.Kind, t.Text))
		return nil
	}

	if strings.HasPrefix(t.Text, `"`) {
		return Literal{Value: unquote(t.Text), Raw: t.Text, Pos: t.Pos}
	}
	if n, ok := ir.ParseNumber(t.Text); ok {
		return Literal{Value: n, Raw: t.Text, Pos: t.Pos}
	}
	if t.HasSigil() {
		g.issue(t.Pos, fmt.Sprintf("directive %q must start a form", t.Text))
		return nil
	}
	return Variable{Path: g.variablePath(t.Text), Raw: t.Text, Pos: t.Pos}
}

// variablePath strips an explicit context prefix and parses the rest.
func (g *generator) variablePath(text string) ir.Path {
	ctx := g.opts.contextName
	switch {
	case text == ctx:
		return ir.Path{}
	case strings.HasPrefix(text, ctx+"."):
		return ir.ParsePath(text[len(ctx)+1:])
	}
	return ir.ParsePath(text)
}

func (g *generator) finish() {
	if g.awaiting {
		g.issue(g.openPos, "unterminated form")
	}
	for i := len(g.stack) - 1; i >= 0; i-- {
		f := g.stack[i]
		g.issue(f.call.Pos, fmt.Sprintf("unclosed form %q", f.call.Ref.Name))
	}
}

func (g *generator) issue(pos lexer.Pos, msg string) {
	g.prog.Issues = append(g.prog.Issues, &SyntaxError{Pos: pos, Message: msg})
}

// unquote strips the surrounding double quotes of a string token and
// resolves backslash escapes. Unterminated strings have no closing
// quote to strip. Unknown escapes yield the escaped character.
func unquote(raw string) string {
	s := strings.TrimPrefix(raw, `"`)
	if strings.HasSuffix(s, `"`) && !escapedAt(s, len(s)-1) {
		s = s[:len(s)-1]
	}
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case 'u':
			if i+4 < len(s) {
				if r, err := strconv.ParseUint(s[i+1:i+5], 16, 32); err == nil {
					b.WriteRune(rune(r))
					i += 4
					continue
				}
			}
			b.WriteByte('u')
		default:
			r, size := utf8.DecodeRuneInString(s[i:])
			b.WriteRune(r)
			i += size - 1
		}
	}
	return b.String()
}

// escapedAt reports whether s[i] is preceded by an odd run of backslashes.
func escapedAt(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}
