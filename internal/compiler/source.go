package compiler

import (
	"strings"
)

// Source renders the program as nested call-expression text:
//
//	(div (:class "x") "hi")
//
// becomes
//
//	el("div")(
//		attr("class")(
//			"x",
//		),
//		"hi",
//	)
//
// Variables are written through the context binding with index
// segments in bracket form (ctx.list[0]); macros receive the binding as
// their first argument. Indentation carries no meaning.
func (p *Program) Source() string {
	var b strings.Builder
	for i, form := range p.Forms {
		p.writeExpr(&b, form, 0, i < len(p.Forms)-1)
	}
	return strings.TrimPrefix(b.String(), "\n")
}

func (p *Program) writeExpr(b *strings.Builder, e Expr, depth int, sep bool) {
	tabs := strings.Repeat("\t", depth)
	b.WriteString("\n")
	b.WriteString(tabs)

	switch v := e.(type) {
	case *Call:
		b.WriteString(v.Ref.Callee())
		b.WriteString("(")
		for _, arg := range v.Args {
			p.writeExpr(b, arg, depth+1, true)
		}
		b.WriteString("\n")
		b.WriteString(tabs)
		b.WriteString(")")
	case Literal:
		b.WriteString(v.Raw)
	case Variable:
		b.WriteString(p.variableSource(v))
	case ContextArg:
		b.WriteString(p.ContextName)
	}

	if sep {
		b.WriteString(",")
	}
}

// variableSource prefixes the context binding to a variable path.
func (p *Program) variableSource(v Variable) string {
	if len(v.Path) == 0 {
		return p.ContextName
	}
	path := v.Path.String()
	if v.Path[0].IsIndex {
		return p.ContextName + path
	}
	return p.ContextName + "." + path
}
