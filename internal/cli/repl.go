package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/lispui/internal/appspec"
	"github.com/roach88/lispui/internal/compiler"
	"github.com/roach88/lispui/internal/engine"
	"github.com/roach88/lispui/internal/ir"
	"github.com/roach88/lispui/internal/lexer"
	"github.com/roach88/lispui/internal/store"
)

const (
	historyFile = ".lispui_history"
	promptMain  = "lispui> "
	promptCont  = "...     "
)

const replHelp = `Enter a template to compile and run it against the session state.
Unbalanced input continues on the next line.

Commands:
  :help                          show this help
  :quit, :exit                   leave the repl
  :backend [tree|html]           show or switch the backend
  :state [mapping]               show the state, or merge a YAML/JSON mapping into it
  :source <template>             print the generated call expression
  :tokens <template>             print the token stream
  :mount <specs-dir> <app>       mount an app from a CUE specs directory
  :fire <tag> <index> <event> [value]
                                 dispatch an event on the mounted app
  :html                          print the mounted document
  :unmount                       stop the mounted app
`

// ReplOptions holds flags for the repl command.
type ReplOptions struct {
	*RootOptions
	Backend string
	Context string
	Specs   string
	App     string
	History string
}

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive template session",
		Long: `Start an interactive session. Each template entered is compiled
and run against the session state; ':' commands manage the state, switch
backends and drive a mounted app. Type :help inside the repl for the
command list.`,
		Example: `  lispui repl
  lispui repl --backend html --specs ./specs --app counter`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Backend, "backend", "b", BackendTree, "initial backend (tree|html)")
	cmd.Flags().StringVar(&opts.Context, "context", ir.DefaultContextName, "context binding name")
	cmd.Flags().StringVar(&opts.Specs, "specs", "", "specs directory to mount --app from")
	cmd.Flags().StringVar(&opts.App, "app", "", "app to mount on start")
	cmd.Flags().StringVar(&opts.History, "history", "", "history file (default ~/"+historyFile+")")

	return cmd
}

func runRepl(opts *ReplOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	s, err := newReplSession(opts.Backend, opts.Context, opts.Logger(cmd))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadFlag, err.Error())
	}
	defer s.unmount()

	if opts.App != "" {
		if opts.Specs == "" {
			return formatter.Fail(ExitCommandError, ErrCodeBadFlag, "--app requires --specs")
		}
		if _, err := s.mountApp(opts.Specs, opts.App); err != nil {
			return failWith(formatter, ExitCommandError, err)
		}
	}

	histPath := opts.History
	if histPath == "" {
		home, _ := os.UserHomeDir()
		histPath = filepath.Join(home, historyFile)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// best-effort
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	out := formatter.Writer
	fmt.Fprintln(out, "lispui repl. Type :help for commands, Ctrl+D to quit.")
	for {
		input, ok := readForm(ln)
		if !ok {
			fmt.Fprintln(out)
			break
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))

		result, err := s.Eval(input)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if result != "" {
			fmt.Fprintln(out, result)
		}
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return nil
}

// readForm reads lines until every "(" is closed. It reports false on
// EOF. Ctrl+C discards the pending input.
func readForm(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || openForms(src) <= 0 {
			return src, true
		}
	}
}

// openForms counts "(" tokens not yet closed in src.
func openForms(src string) int {
	depth := 0
	for _, t := range lexer.Tokenize(src) {
		switch {
		case t.IsGroupOpen():
			depth++
		case t.IsGroupClose():
			depth--
		}
	}
	return depth
}

// errQuit is returned by Eval for :quit.
var errQuit = errors.New("quit")

// replSession is the state behind one repl: a backend, a state that
// templates run against, and optionally a mounted app. It is driven
// line by line through Eval.
type replSession struct {
	backend     string
	contextName string
	baseContext string // restored on unmount
	state       map[string]any
	logger      *slog.Logger

	mount *engine.Mount
	sched *store.Manual
}

func newReplSession(backend, contextName string, logger *slog.Logger) (*replSession, error) {
	if backend != BackendTree && backend != BackendHTML {
		return nil, fmt.Errorf("invalid backend %q: must be tree or html", backend)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &replSession{
		backend:     backend,
		contextName: contextName,
		baseContext: contextName,
		state:       map[string]any{},
		logger:      logger,
	}, nil
}

// Eval runs one input: a ':' command or a template. It returns the
// text to print.
func (s *replSession) Eval(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	if strings.HasPrefix(input, ":") {
		return s.command(input)
	}

	_, text, err := executeTemplate(input, s.backend, s.contextName, compiler.Pretty{}, s.currentState(), false)
	return text, err
}

func (s *replSession) command(input string) (string, error) {
	name, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	fields := strings.Fields(rest)

	switch strings.ToLower(name) {
	case ":help":
		return strings.TrimSuffix(replHelp, "\n"), nil

	case ":quit", ":exit":
		return "", errQuit

	case ":backend":
		if rest == "" {
			return s.backend, nil
		}
		if rest != BackendTree && rest != BackendHTML {
			return "", fmt.Errorf("invalid backend %q: must be tree or html", rest)
		}
		s.backend = rest
		return "backend " + rest, nil

	case ":state":
		if rest == "" {
			data, err := ir.MarshalCanonical(s.currentState())
			return string(data), err
		}
		return s.updateState(rest)

	case ":source":
		if rest == "" {
			return "", errors.New("usage: :source <template>")
		}
		_, text, err := executeTemplate(rest, s.backend, s.contextName, compiler.Pretty{}, nil, true)
		return text, err

	case ":tokens":
		var b strings.Builder
		for i, t := range lexer.Tokenize(rest) {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%s %s %s", t.Pos, t.Kind, t.Text)
		}
		return b.String(), nil

	case ":mount":
		if len(fields) != 2 {
			return "", errors.New("usage: :mount <specs-dir> <app>")
		}
		return s.mountApp(fields[0], fields[1])

	case ":fire":
		return s.fire(fields)

	case ":html":
		if s.mount == nil {
			return "", errors.New("no app mounted")
		}
		return s.mount.HTML()

	case ":unmount":
		if s.mount == nil {
			return "", errors.New("no app mounted")
		}
		s.unmount()
		return "unmounted", nil
	}
	return "", fmt.Errorf("unknown command %s; type :help for help", name)
}

// currentState is the mounted app's state when one is mounted, the
// session state otherwise.
func (s *replSession) currentState() map[string]any {
	if s.mount != nil {
		return s.mount.Store().State()
	}
	return s.state
}

func (s *replSession) updateState(raw string) (string, error) {
	changes := map[string]any{}
	if err := yaml.Unmarshal([]byte(raw), &changes); err != nil {
		return "", fmt.Errorf("parsing state: %w", err)
	}

	if s.mount != nil {
		s.mount.Store().Update(changes)
		return s.flush()
	}
	for k, v := range changes {
		s.state[k] = v
	}
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "set " + strings.Join(keys, ", "), nil
}

func (s *replSession) mountApp(specsDir, name string) (string, error) {
	app, err := appspec.LoadApp(specsDir, name)
	if err != nil {
		return "", err
	}

	sched := &store.Manual{}
	m, err := engine.MountApp(app, sched, s.logger)
	if err != nil {
		return "", err
	}
	s.unmount()
	s.mount, s.sched = m, sched
	s.contextName = app.Context

	m.Start()
	return s.flush()
}

func (s *replSession) fire(fields []string) (string, error) {
	if s.mount == nil {
		return "", errors.New("no app mounted")
	}
	if len(fields) < 3 {
		return "", errors.New("usage: :fire <tag> <index> <event> [value]")
	}
	index, err := strconv.Atoi(fields[1])
	if err != nil || index < 0 {
		return "", fmt.Errorf("invalid index %q", fields[1])
	}
	ev := ir.Event{Type: fields[2]}
	if len(fields) > 3 {
		ev.Value = strings.Join(fields[3:], " ")
	}
	if err := s.mount.Fire(fields[0], index, ev); err != nil {
		return "", err
	}
	return s.flush()
}

// flush runs pending renders and returns the mounted document.
func (s *replSession) flush() (string, error) {
	s.sched.Flush()
	if err := s.mount.Err(); err != nil {
		return "", err
	}
	return s.mount.HTML()
}

func (s *replSession) unmount() {
	if s.mount == nil {
		return
	}
	s.mount.Stop()
	s.mount, s.sched = nil, nil
	s.contextName = s.baseContext
}
