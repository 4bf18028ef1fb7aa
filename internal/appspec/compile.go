package appspec

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"

	"github.com/roach88/lispui/internal/ir"
)

// CompileApp parses one app struct. baseDir resolves template_file.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`app: counter: { template: "(p count)" }`)
//	app, err := CompileApp(v.LookupPath(cue.ParsePath("app.counter")), ".")
func CompileApp(v cue.Value, baseDir string) (*ir.AppSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	app := &ir.AppSpec{
		Context: ir.DefaultContextName,
		State:   map[string]any{},
		Actions: map[string]ir.ActionSpec{},
	}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		app.Name = labels[len(labels)-1].String()
	}

	var err error
	if app.Template, app.TemplateFile, err = parseTemplate(v, baseDir); err != nil {
		return nil, err
	}

	if ctxVal := v.LookupPath(cue.ParsePath("context")); ctxVal.Exists() {
		name, err := ctxVal.String()
		if err != nil {
			return nil, typeError("context", "context must be a string", ctxVal)
		}
		app.Context = name
	}

	if app.Pretty, err = parsePretty(v); err != nil {
		return nil, err
	}

	if stateVal := v.LookupPath(cue.ParsePath("state")); stateVal.Exists() {
		decoded, err := decodeValue(stateVal)
		if err != nil {
			return nil, err
		}
		state, ok := decoded.(map[string]any)
		if !ok {
			return nil, typeError("state", "state must be a struct", stateVal)
		}
		app.State = state
	}

	if app.Actions, err = parseActions(v); err != nil {
		return nil, err
	}

	return app, nil
}

func parseTemplate(v cue.Value, baseDir string) (template, file string, err error) {
	if tv := v.LookupPath(cue.ParsePath("template")); tv.Exists() {
		s, err := tv.String()
		if err != nil {
			return "", "", typeError("template", "template must be a string", tv)
		}
		return s, "", nil
	}

	fv := v.LookupPath(cue.ParsePath("template_file"))
	if !fv.Exists() {
		return "", "", &SpecError{
			Field:   "template",
			Message: "template or template_file is required",
			Pos:     v.Pos(),
		}
	}
	file, err = fv.String()
	if err != nil {
		return "", "", typeError("template_file", "template_file must be a string", fv)
	}
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, file)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", &SpecError{
			Field:   "template_file",
			Message: fmt.Sprintf("reading %s: %v", file, err),
			Pos:     fv.Pos(),
		}
	}
	return string(data), file, nil
}

func parsePretty(v cue.Value) (ir.PrettySpec, error) {
	var p ir.PrettySpec
	pv := v.LookupPath(cue.ParsePath("pretty"))
	if !pv.Exists() {
		return p, nil
	}

	if ev := pv.LookupPath(cue.ParsePath("enabled")); ev.Exists() {
		b, err := ev.Bool()
		if err != nil {
			return p, typeError("pretty.enabled", "enabled must be a bool", ev)
		}
		p.Enabled = b
	}
	if iv := pv.LookupPath(cue.ParsePath("indent")); iv.Exists() {
		s, err := iv.String()
		if err != nil {
			return p, typeError("pretty.indent", "indent must be a string", iv)
		}
		p.Indent = s
	}
	return p, nil
}

func parseActions(v cue.Value) (map[string]ir.ActionSpec, error) {
	actions := map[string]ir.ActionSpec{}
	av := v.LookupPath(cue.ParsePath("actions"))
	if !av.Exists() {
		return actions, nil
	}

	iter, err := av.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		spec, err := parseAction(iter.Value())
		if err != nil {
			return nil, err
		}
		actions[name] = spec
	}
	return actions, nil
}

func parseAction(v cue.Value) (ir.ActionSpec, error) {
	var spec ir.ActionSpec

	opVal := v.LookupPath(cue.ParsePath("op"))
	op, err := opVal.String()
	if err != nil || !ir.ValidActionOps[op] {
		return spec, &SpecError{
			Field:   "actions.op",
			Message: fmt.Sprintf("op must be one of increment, toggle, set, set_from_event (got %v)", opVal),
			Pos:     v.Pos(),
		}
	}
	spec.Op = op

	key, err := v.LookupPath(cue.ParsePath("key")).String()
	if err != nil || key == "" {
		return spec, &SpecError{Field: "actions.key", Message: "key is required", Pos: v.Pos()}
	}
	spec.Key = key

	if bv := v.LookupPath(cue.ParsePath("by")); bv.Exists() {
		by, err := bv.Float64()
		if err != nil {
			return spec, typeError("actions.by", "by must be a number", bv)
		}
		spec.By = by
	}
	if vv := v.LookupPath(cue.ParsePath("value")); vv.Exists() {
		if spec.Value, err = decodeValue(vv); err != nil {
			return spec, err
		}
	}
	return spec, nil
}

// decodeValue converts a concrete CUE value to plain Go values:
// structs become map[string]any, lists []any, integers int and other
// numbers float64.
func decodeValue(v cue.Value) (any, error) {
	switch v.IncompleteKind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		return v.Bool()
	case cue.StringKind:
		return v.String()
	case cue.IntKind:
		n, err := v.Int64()
		return int(n), err
	case cue.FloatKind, cue.NumberKind:
		return v.Float64()
	case cue.StructKind:
		out := map[string]any{}
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			val, err := decodeValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Label()] = val
		}
		return out, nil
	case cue.ListKind:
		out := []any{}
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			val, err := decodeValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	default:
		return nil, typeError(v.Path().String(), "value must be concrete", v)
	}
}

func typeError(field, msg string, v cue.Value) *SpecError {
	return &SpecError{Field: field, Message: msg, Pos: v.Pos()}
}
