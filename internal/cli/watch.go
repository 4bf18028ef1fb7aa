package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/roach88/lispui/internal/engine"
	"github.com/roach88/lispui/internal/ir"
)

// DefaultDebounce is how long watch waits for a burst of file events
// to settle before re-rendering.
const DefaultDebounce = 100 * time.Millisecond

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <specs-dir> <app>",
		Short: "Re-render an app whenever its specs change",
		Long: `Render an app, then watch its specs directory and render it again
after every change to a .cue file or template. A failing reload is
reported and watching continues. Stop with Ctrl+C.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", DefaultDebounce, "quiet period before re-rendering")

	return cmd
}

func runWatch(opts *WatchOptions, specsDir, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.Logger(cmd)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("starting watcher: %v", err))
	}
	defer watcher.Close()

	if err := watcher.Add(specsDir); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("watching %s: %v", specsDir, err))
	}

	// The loop is the scheduler of every mount this command creates;
	// reloads run on it too, so renders and reloads never overlap.
	loop := engine.NewLoop(engine.WithLoopLogger(logger))
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(loopCtx)
	}()

	var current *engine.Mount
	defer func() {
		cancel()
		<-done
		if current != nil {
			current.Stop()
		}
	}()

	renders := 0
	report := func(app ir.AppSpec, m *engine.Mount) error {
		if err := m.Err(); err != nil {
			m.Stop()
			reportError(formatter, fmt.Errorf("render %s: %w", app.Name, err))
			return nil
		}
		html, err := m.HTML()
		if err != nil {
			m.Stop()
			return err
		}
		if current != nil {
			current.Stop()
		}
		current = m

		renders++
		if formatter.Format == "json" {
			return formatter.Success(RenderOutput{App: app.Name, MountID: m.ID(), HTML: html, State: m.Store().State()})
		}
		_, err = fmt.Fprintf(formatter.Writer, "--- %s (render %d)\n%s\n", name, renders, html)
		return err
	}
	reload := func() error {
		app, err := loadApp(formatter, specsDir, name)
		if err != nil {
			return nil // reported by loadApp
		}
		m, err := engine.MountApp(app, loop, logger)
		if err != nil {
			reportError(formatter, err)
			return nil
		}
		m.Start()
		// queued behind the first flush
		loop.Submit(engine.Task{Name: "report", Fn: func() error { return report(app, m) }})
		return nil
	}

	loop.Submit(engine.Task{Name: "reload", Fn: reload})

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			formatter.VerboseLog("Stopped watching %s", specsDir)
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			formatter.VerboseLog("Change detected: %s %s", ev.Op, ev.Name)
			if timer == nil {
				timer = time.NewTimer(opts.Debounce)
			} else {
				timer.Reset(opts.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			loop.Submit(engine.Task{Name: "reload", Fn: reload})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// log and continue
			logger.Warn("watch error", "error", err)
		}
	}
}

// relevant reports whether ev can change the app: a write, create,
// remove or rename of a CUE file or a template.
func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Ext(ev.Name) {
	case ".cue", ".lisp", ".tmpl":
		return true
	}
	return false
}

// reportError prints err under its code without failing the command.
func reportError(formatter *OutputFormatter, err error) {
	code := errorCode(err)
	_ = formatter.Error(code, strings.TrimPrefix(err.Error(), code+": "), nil)
}
