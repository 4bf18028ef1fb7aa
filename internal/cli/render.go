package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lispui/internal/appspec"
	"github.com/roach88/lispui/internal/engine"
	"github.com/roach88/lispui/internal/ir"
	"github.com/roach88/lispui/internal/store"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Output string
}

// RenderOutput is the JSON payload of the render command.
type RenderOutput struct {
	App     string         `json:"app"`
	MountID string         `json:"mount_id"`
	HTML    string         `json:"html"`
	State   map[string]any `json:"state"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <specs-dir> <app>",
		Short: "Mount an app and print its first render",
		Long: `Load an app from a CUE specs directory, mount it on its initial
state and print the live document after the first render.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runRender(opts *RenderOptions, specsDir, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	app, err := loadApp(formatter, specsDir, name)
	if err != nil {
		return err
	}

	m, html, err := renderApp(app, opts.Logger(cmd))
	if err != nil {
		return failWith(formatter, ExitCommandError, err)
	}
	defer m.Stop()

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(html+"\n"), 0644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
		formatter.VerboseLog("Wrote %s to %s", name, opts.Output)
	}

	if formatter.Format == "json" {
		return formatter.Success(RenderOutput{
			App:     app.Name,
			MountID: m.ID(),
			HTML:    html,
			State:   m.Store().State(),
		})
	}
	if opts.Output == "" {
		fmt.Fprintln(formatter.Writer, html)
	}
	return nil
}

// renderApp mounts app on a manual scheduler and returns the document
// after the first render.
func renderApp(app ir.AppSpec, logger *slog.Logger) (*engine.Mount, string, error) {
	sched := &store.Manual{}
	m, err := engine.MountApp(app, sched, logger)
	if err != nil {
		return nil, "", err
	}
	m.Start()
	sched.Flush()
	if err := m.Err(); err != nil {
		m.Stop()
		return nil, "", fmt.Errorf("render %s: %w", app.Name, err)
	}

	html, err := m.HTML()
	if err != nil {
		m.Stop()
		return nil, "", err
	}
	return m, html, nil
}

// loadApp loads one app, reporting load failures as command errors.
func loadApp(formatter *OutputFormatter, specsDir, name string) (ir.AppSpec, error) {
	app, err := appspec.LoadApp(specsDir, name)
	if err != nil {
		return ir.AppSpec{}, failWith(formatter, ExitCommandError, err)
	}
	formatter.VerboseLog("Loaded app %s from %s", name, specsDir)
	return app, nil
}

// failWith reports err under its own code. Errors that already lead
// with their code are not prefixed twice.
func failWith(formatter *OutputFormatter, exitCode int, err error) error {
	code := errorCode(err)
	return formatter.Fail(exitCode, code, strings.TrimPrefix(err.Error(), code+": "))
}

// errorCode picks the code of the first coded error in err's chain.
func errorCode(err error) string {
	var (
		le *appspec.LoadError
		ce interface{ Code() string }
	)
	if errors.As(err, &le) {
		return le.Code
	}
	if errors.As(err, &ce) {
		return ce.Code()
	}
	if code := compilerCode(err); code != "" {
		return code
	}
	return ErrCodeGeneric
}
