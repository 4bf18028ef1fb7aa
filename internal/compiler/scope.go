package compiler

// Func is a custom template function.
type Func func(args ...any) (any, error)

// Macro is a template macro. It receives the render context as its
// implicit first argument.
type Macro func(ctx any, args ...any) (any, error)

// FuncMap maps names to custom functions.
type FuncMap map[string]Func

// MacroMap maps names to macros.
type MacroMap map[string]Macro

// Pretty controls indentation of rendered markup.
type Pretty struct {
	Enabled bool
	Indent  string
}

// DefaultIndent is used when pretty printing is enabled without an indent.
const DefaultIndent = "  "

// Unit returns the indentation string for one level.
func (p Pretty) Unit() string {
	if p.Indent == "" {
		return DefaultIndent
	}
	return p.Indent
}

// Scope holds the externally supplied name tables consulted by Resolve.
// It is the sole extension mechanism for new template verbs.
type Scope struct {
	Macros MacroMap
	Funcs  FuncMap
}

// clone copies the tables so a built Template is not affected by later
// changes to the caller's maps.
func (s Scope) clone() Scope {
	out := Scope{
		Macros: make(MacroMap, len(s.Macros)),
		Funcs:  make(FuncMap, len(s.Funcs)),
	}
	for k, v := range s.Macros {
		out.Macros[k] = v
	}
	for k, v := range s.Funcs {
		out.Funcs[k] = v
	}
	return out
}
