package compiler

import (
	"github.com/roach88/lispui/internal/ir"
	"github.com/roach88/lispui/internal/lexer"
)

// Expr is a node of the call-expression tree.
// Only Call, Literal, Variable and ContextArg implement it.
type Expr interface {
	expr()
}

// Call is one form: a resolved operator applied to its arguments.
type Call struct {
	Ref  Ref
	Args []Expr
	Pos  lexer.Pos

	// Source is the form's text without its parentheses, tokens joined
	// by single spaces. The markup backend uses it as the fragment of
	// attribute directives.
	Source string
}

// Literal is a string or number written in the template.
type Literal struct {
	Value any // string or float64
	Raw   string
	Pos   lexer.Pos
}

// Variable reads a path from the render context.
// An empty path is the context itself.
type Variable struct {
	Path ir.Path
	Raw  string
	Pos  lexer.Pos
}

// ContextArg is the hidden first argument of a macro call.
type ContextArg struct{}

func (*Call) expr()      {}
func (Literal) expr()    {}
func (Variable) expr()   {}
func (ContextArg) expr() {}
