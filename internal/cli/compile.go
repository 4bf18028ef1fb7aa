package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/lispui/internal/compiler"
	"github.com/roach88/lispui/internal/ir"
	"github.com/roach88/lispui/internal/props"
	"github.com/roach88/lispui/internal/render"
)

// Backends accepted by --backend.
const (
	BackendTree = "tree"
	BackendHTML = "html"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Backend   string
	State     string // YAML or JSON mapping
	StateFile string
	Context   string
	Source    bool // print the generated call expression instead of executing
	Pretty    bool
	Indent    string
	Output    string
}

// CompileOutput is the JSON payload of the compile command.
type CompileOutput struct {
	Backend string            `json:"backend"`
	Source  string            `json:"source,omitempty"`
	Forms   []json.RawMessage `json:"forms,omitempty"` // tree backend, canonical JSON per form
	HTML    string            `json:"html,omitempty"`
	Records int               `json:"records,omitempty"` // property records resolved (html backend)
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <template-file>",
		Short: "Compile a template and execute it against a state",
		Long: `Compile a template with the tree or html backend and execute it.

The tree backend prints each top-level form as canonical JSON. The html
backend prints markup with data-props tracking attributes. --source
prints the generated call expression without executing it.`,
		Example: `  lispui compile counter.lisp --state '{count: 3}'
  lispui compile counter.lisp --backend html --pretty
  lispui compile counter.lisp --source`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if b := opts.Setting("backend"); b != "" {
				opts.Backend = b
			}
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Backend, "backend", "b", BackendTree, "backend (tree|html)")
	cmd.Flags().StringVar(&opts.State, "state", "", "render state as a YAML or JSON mapping")
	cmd.Flags().StringVar(&opts.StateFile, "state-file", "", "read render state from a YAML or JSON file")
	cmd.Flags().StringVar(&opts.Context, "context", ir.DefaultContextName, "context binding name")
	cmd.Flags().BoolVar(&opts.Source, "source", false, "print the generated call expression")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "indent html output")
	cmd.Flags().StringVar(&opts.Indent, "indent", "", "indent unit for --pretty (default two spaces)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Backend != BackendTree && opts.Backend != BackendHTML {
		return formatter.Fail(ExitCommandError, ErrCodeBadFlag,
			fmt.Sprintf("invalid backend %q: must be tree or html", opts.Backend))
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("reading template: %v", err))
	}

	state, err := loadState(opts.State, opts.StateFile)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadFlag, err.Error())
	}

	pretty := compiler.Pretty{Enabled: opts.Pretty, Indent: opts.Indent}
	out, text, err := executeTemplate(string(src), opts.Backend, opts.Context, pretty, state, opts.Source)
	if err != nil {
		return outputTemplateError(formatter, path, err)
	}
	formatter.VerboseLog("Compiled %s with the %s backend", path, opts.Backend)
	if opts.Backend == BackendHTML && !opts.Source {
		formatter.VerboseLog("Resolved %d property record(s)", out.Records)
	}

	return writeCompileOutput(formatter, opts.Output, out, text)
}

// executeTemplate compiles src for backend and runs every form against
// state. With sourceOnly it stops after compiling and returns the
// generated call expression instead.
func executeTemplate(src, backend, contextName string, pretty compiler.Pretty, state map[string]any, sourceOnly bool) (CompileOutput, string, error) {
	var (
		b     compiler.Backend = render.Tree{}
		cache *props.Cache
	)
	if backend == BackendHTML {
		cache = props.New(props.Static(state), props.WithContextName(contextName))
		b = render.NewHTML(cache)
	}

	out := CompileOutput{Backend: backend}
	tmpl, err := compiler.Compile(src, b, compiler.Scope{},
		compiler.WithContextName(contextName),
		compiler.WithPretty(pretty),
	)
	if err != nil {
		return out, "", err
	}
	if sourceOnly {
		out.Source = tmpl.Source()
		return out, out.Source, nil
	}

	forms, err := tmpl.ExecuteAll(state)
	if err != nil {
		return out, "", err
	}

	var text strings.Builder
	switch backend {
	case BackendTree:
		for _, form := range forms {
			data, err := ir.MarshalCanonical(form)
			if err != nil {
				return out, "", fmt.Errorf("encoding form: %w", err)
			}
			out.Forms = append(out.Forms, data)
			text.Write(data)
			text.WriteByte('\n')
		}
	case BackendHTML:
		for _, form := range forms {
			text.WriteString(ir.FormatValue(form)) // render.Markup is a Stringer
		}
		out.HTML = text.String()
		out.Records = cache.Len()
	}
	return out, strings.TrimSuffix(text.String(), "\n"), nil
}

// writeCompileOutput writes text to file, or reports out in the
// configured format.
func writeCompileOutput(formatter *OutputFormatter, file string, out CompileOutput, text string) error {
	if file != "" {
		if err := os.WriteFile(file, []byte(text+"\n"), 0644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
		if formatter.Format == "json" {
			return formatter.Success(map[string]string{"output": file})
		}
		fmt.Fprintf(formatter.Writer, "Wrote %s output to %s\n", out.Backend, file)
		return nil
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	fmt.Fprintln(formatter.Writer, text)
	return nil
}

// outputTemplateError reports a compile or runtime error with its
// template position. Both are command errors.
func outputTemplateError(formatter *OutputFormatter, path string, err error) error {
	var (
		ce *compiler.CompileError
		re *compiler.RuntimeError
	)
	switch {
	case errors.As(err, &ce):
		var details []string
		for _, e := range unjoin(ce.Err) {
			details = append(details, fmt.Sprintf("%s:%s", path, e))
		}
		if formatter.Format != "json" {
			fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
			for _, d := range details {
				fmt.Fprintf(formatter.Writer, "  %s\n", d)
			}
		}
		_ = formatter.Error(ce.Code, ce.Message, details)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", ce.Code, ce.Message))
	case errors.As(err, &re):
		return formatter.Fail(ExitCommandError, re.Code, fmt.Sprintf("%s:%s: %v", path, re.Pos, err))
	}
	return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error())
}

// unjoin splits an errors.Join result back into its parts.
func unjoin(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

// loadState parses a state mapping from a flag value or file. Both are
// YAML, so JSON works too. Empty input is an empty state.
func loadState(inline, file string) (map[string]any, error) {
	data := []byte(inline)
	if file != "" {
		if inline != "" {
			return nil, fmt.Errorf("--state and --state-file are mutually exclusive")
		}
		var err error
		if data, err = os.ReadFile(file); err != nil {
			return nil, fmt.Errorf("reading state file: %w", err)
		}
	}

	state := map[string]any{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return state, nil
	}
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	return state, nil
}

// compilerCode returns the code of a compile or runtime error in err's
// chain, or "".
func compilerCode(err error) string {
	var (
		ce *compiler.CompileError
		re *compiler.RuntimeError
	)
	switch {
	case errors.As(err, &ce):
		return ce.Code
	case errors.As(err, &re):
		return re.Code
	}
	return ""
}
