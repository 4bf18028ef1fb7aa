package compiler

import (
	"github.com/roach88/lispui/internal/ir"
	"github.com/roach88/lispui/internal/lexer"
)

// AttributeConstructor builds the value of an attribute directive.
type AttributeConstructor func(attr ir.Attr) (any, error)

// ElementConstructor builds an element from its evaluated arguments.
// Arguments arrive in source order: attribute values and children mixed.
type ElementConstructor func(tag string, depth int, pretty Pretty, args []any) (any, error)

// Backend supplies the attribute and element constructors a Template
// is closed over. render.Tree and render.HTML implement it.
type Backend interface {
	Attribute(attr ir.Attr) (any, error)
	Element(tag string, depth int, pretty Pretty, args []any) (any, error)
}

// slots are the four capabilities a Template is closed over, in order.
type slots struct {
	attr   AttributeConstructor
	elem   ElementConstructor
	funcs  FuncMap
	macros MacroMap
}

// Template is a compiled, repeatedly executable template.
//
// Execute may be called any number of times with different contexts;
// tokens are never re-read and operators never re-resolved.
type Template struct {
	slots       slots
	forms       []Expr
	contextName string
	source      string
}

// Build turns a Program into a Template using backend b.
//
// Programs with recorded structural issues fail with a *CompileError
// whose Err joins the underlying *SyntaxError values. No partial
// template is ever returned.
func Build(prog *Program, b Backend) (*Template, error) {
	if b == nil {
		return nil, &CompileError{Code: ErrCodeNoBackend, Message: "no backend supplied"}
	}
	if len(prog.Issues) > 0 {
		return nil, newSyntaxCompileError(prog.Issues)
	}

	scope := prog.scope
	return &Template{
		slots: slots{
			attr:   b.Attribute,
			elem:   b.Element,
			funcs:  scope.Funcs,
			macros: scope.Macros,
		},
		forms:       prog.Forms,
		contextName: prog.ContextName,
		source:      prog.Source(),
	}, nil
}

// Compile tokenizes, generates and builds src in one call.
func Compile(src string, b Backend, scope Scope, opts ...Option) (*Template, error) {
	prog := Generate(lexer.Tokenize(src), scope, opts...)
	return Build(prog, b)
}

// Source returns the generated call-expression text.
func (t *Template) Source() string {
	return t.source
}

// ContextName returns the context binding name.
func (t *Template) ContextName() string {
	return t.contextName
}

// Execute evaluates every top-level form against ctx and returns the
// value of the last one (nil for an empty template). Choosing a single
// root is the caller's concern.
func (t *Template) Execute(ctx any) (any, error) {
	values, err := t.ExecuteAll(ctx)
	if err != nil || len(values) == 0 {
		return nil, err
	}
	return values[len(values)-1], nil
}

// ExecuteAll evaluates every top-level form and returns all values.
func (t *Template) ExecuteAll(ctx any) ([]any, error) {
	out := make([]any, 0, len(t.forms))
	for _, form := range t.forms {
		v, err := t.eval(form, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (t *Template) eval(e Expr, ctx any) (any, error) {
	switch v := e.(type) {
	case Literal:
		return v.Value, nil
	case Variable:
		val, _ := ir.Lookup(ctx, v.Path)
		return val, nil
	case ContextArg:
		return ctx, nil
	case *Call:
		return t.call(v, ctx)
	}
	return nil, nil
}

func (t *Template) call(c *Call, ctx any) (any, error) {
	args := make([]any, len(c.Args))
	for i, arg := range c.Args {
		v, err := t.eval(arg, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	ref := c.Ref
	switch ref.Kind {
	case RefAttribute:
		v, err := t.slots.attr(ir.Attr{Sigil: ref.Sigil, Name: ref.Name, Args: args, Source: c.Source})
		return v, wrapRuntime(ErrCodeBackend, ref.Name, c.Pos, err)

	case RefMacro:
		m := t.slots.macros[ref.Name]
		if m == nil {
			return nil, &RuntimeError{Code: ErrCodeMissingFunc, Name: ref.Name, Pos: c.Pos}
		}
		v, err := m(args[0], args[1:]...)
		return v, wrapRuntime(ErrCodeFuncFailed, ref.Name, c.Pos, err)

	case RefCustom:
		fn := t.slots.funcs[ref.Name]
		if fn == nil {
			return nil, &RuntimeError{Code: ErrCodeMissingFunc, Name: ref.Name, Pos: c.Pos}
		}
		v, err := fn(args...)
		return v, wrapRuntime(ErrCodeFuncFailed, ref.Name, c.Pos, err)

	default:
		v, err := t.slots.elem(ref.Name, ref.Depth, ref.Pretty, args)
		return v, wrapRuntime(ErrCodeBackend, ref.Name, c.Pos, err)
	}
}

// wrapRuntime wraps err, keeping the innermost RuntimeError as is so
// nested failures report the call that actually failed.
func wrapRuntime(code, name string, pos lexer.Pos, err error) error {
	if err == nil {
		return nil
	}
	if IsRuntimeError(err) {
		return err
	}
	return &RuntimeError{Code: code, Name: name, Pos: pos, Err: err}
}
