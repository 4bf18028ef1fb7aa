package compiler

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/roach88/lispui/internal/ir"
)

// RefKind identifies which capability an operator resolved to.
type RefKind int

const (
	// RefAttribute is an attribute constructor (":name" or "@name").
	RefAttribute RefKind = iota + 1
	// RefMacro is a macro invocation.
	RefMacro
	// RefCustom is a custom function call.
	RefCustom
	// RefElement is an element constructor.
	RefElement
)

// String returns the lowercase kind name.
func (k RefKind) String() string {
	switch k {
	case RefAttribute:
		return "attribute"
	case RefMacro:
		return "macro"
	case RefCustom:
		return "custom"
	case RefElement:
		return "element"
	default:
		return fmt.Sprintf("ref(%d)", int(k))
	}
}

// Ref is the tagged result of resolving an operator token.
type Ref struct {
	Kind RefKind

	// Name is the attribute name without its sigil, the macro or
	// function name, or the element tag.
	Name string

	// Sigil is set for attribute refs.
	Sigil ir.Sigil

	// Depth and Pretty parameterize element refs.
	Depth  int
	Pretty Pretty
}

// Resolve classifies the leading token of a form. It never fails:
// names that are neither directives, macros nor custom functions
// resolve to element constructors.
//
// Collisions between scopes are settled by priority order only,
// never by arity.
func Resolve(token string, depth int, scope Scope, pretty Pretty) Ref {
	if len(token) > 1 && ir.IsSigil(token[0]) {
		return Ref{Kind: RefAttribute, Name: token[1:], Sigil: ir.Sigil(token[0])}
	}
	if _, ok := scope.Macros[token]; ok {
		return Ref{Kind: RefMacro, Name: token}
	}
	if _, ok := scope.Funcs[token]; ok {
		return Ref{Kind: RefCustom, Name: token}
	}
	return Ref{Kind: RefElement, Name: token, Depth: depth, Pretty: pretty}
}

var tagName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.:\-]*$`)

// ValidTag reports whether name can be written as an element tag.
func ValidTag(name string) bool {
	return tagName.MatchString(name)
}

// Callee renders the reference as it appears in generated source.
func (r Ref) Callee() string {
	name := strconv.Quote(r.Name)
	switch r.Kind {
	case RefAttribute:
		return "attr(" + name + ")"
	case RefMacro:
		return "macros[" + name + "]"
	case RefCustom:
		return "funcs[" + name + "]"
	default:
		return "el(" + name + ")"
	}
}
