package appspec

import (
	"fmt"

	"github.com/roach88/lispui/internal/compiler"
	"github.com/roach88/lispui/internal/ir"
	"github.com/roach88/lispui/internal/lexer"
)

// ValidationError is a problem found by Validate.
type ValidationError struct {
	App     string `json:"app"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] %s line %d: %s: %s", e.Code, e.App, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.App, e.Field, e.Message)
}

// Validate checks an app beyond what loading enforces: the template
// must compile, and every action its event directives name literally
// must be declared. Returns all errors found.
func Validate(app ir.AppSpec, scope compiler.Scope) []ValidationError {
	var errs []ValidationError

	prog := compiler.Generate(lexer.Tokenize(app.Template), scope, compiler.WithContextName(app.Context))
	for _, issue := range prog.Issues {
		errs = append(errs, ValidationError{
			App:     app.Name,
			Field:   "template",
			Message: issue.Message,
			Code:    ErrCodeTemplateSyntax,
			Line:    issue.Pos.Line,
		})
	}

	for _, ref := range ActionRefs(prog) {
		if _, ok := app.Actions[ref.Name]; ok {
			continue
		}
		errs = append(errs, ValidationError{
			App:     app.Name,
			Field:   "template",
			Message: fmt.Sprintf("@%s dispatches undeclared action %q", ref.Event, ref.Name),
			Code:    ErrCodeUnknownAction,
			Line:    ref.Pos.Line,
		})
	}

	for _, name := range ir.SortedKeys(app.Actions) {
		spec := app.Actions[name]
		if !ir.ValidActionOps[spec.Op] {
			errs = append(errs, ValidationError{
				App:     app.Name,
				Field:   "actions." + name,
				Message: fmt.Sprintf("invalid op %q", spec.Op),
				Code:    ErrCodeInvalidOp,
			})
		}
	}
	return errs
}

// ActionRef is an action named by an event directive.
type ActionRef struct {
	Event string
	Name  string
	Pos   lexer.Pos
}

// ActionRefs lists the actions event directives name with a string
// literal first argument, in source order. Actions chosen from state
// at runtime cannot be checked statically and are skipped.
func ActionRefs(prog *compiler.Program) []ActionRef {
	var refs []ActionRef
	var visit func(e compiler.Expr)
	visit = func(e compiler.Expr) {
		call, ok := e.(*compiler.Call)
		if !ok {
			return
		}
		if call.Ref.Kind == compiler.RefAttribute && call.Ref.Sigil == ir.SigilEvent && len(call.Args) > 0 {
			if lit, ok := call.Args[0].(compiler.Literal); ok {
				if name, ok := lit.Value.(string); ok {
					refs = append(refs, ActionRef{Event: call.Ref.Name, Name: name, Pos: call.Pos})
				}
			}
		}
		for _, arg := range call.Args {
			visit(arg)
		}
	}
	for _, form := range prog.Forms {
		visit(form)
	}
	return refs
}
