package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/lispui/internal/compiler"
	"github.com/roach88/lispui/internal/ir"
	"github.com/roach88/lispui/internal/store"
)

// MountApp builds the store and actions an app spec declares and
// mounts its template. Flushes go through sched.
//
// The returned mount is not started.
func MountApp(spec ir.AppSpec, sched store.Scheduler, logger *slog.Logger, opts ...MountOption) (*Mount, error) {
	if logger == nil {
		logger = slog.Default()
	}
	st := store.New(store.State(spec.State), store.WithScheduler(sched), store.WithLogger(logger))

	actions := store.NewActions(st)
	if err := actions.RegisterSpecs(spec.Actions); err != nil {
		return nil, fmt.Errorf("app %s: %w", spec.Name, err)
	}

	base := []MountOption{
		WithLogger(logger),
		WithContextName(spec.Context),
		WithPretty(compiler.Pretty{Enabled: spec.Pretty.Enabled, Indent: spec.Pretty.Indent}),
	}
	m, err := NewMount(spec.Template, st, actions, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("app %s: %w", spec.Name, err)
	}
	return m, nil
}
