package harness

import (
	"fmt"
	"log/slog"

	"github.com/roach88/lispui/internal/appspec"
	"github.com/roach88/lispui/internal/engine"
	"github.com/roach88/lispui/internal/ir"
	"github.com/roach88/lispui/internal/store"
	"github.com/roach88/lispui/internal/testutil"
)

// Harness drives one mounted app. It is never reused across scenarios.
type Harness struct {
	mount  *engine.Mount
	sched  *store.Manual
	clock  *testutil.DeterministicClock
	logger *slog.Logger

	lastErr error // last reported render failure
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Load the app from scenario.Specs
//  2. Mount it on a manual scheduler and flush the first render
//  3. Run each step, flushing after it
//  4. Evaluate assertions against the final state and markup
//
// An error is returned only if the app cannot be loaded or mounted;
// failing steps and assertions are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	app, err := appspec.LoadApp(scenario.Specs, scenario.App)
	if err != nil {
		return nil, fmt.Errorf("failed to load app: %w", err)
	}
	return RunApp(scenario, app)
}

// RunApp executes scenario against an already loaded app.
func RunApp(scenario *Scenario, app ir.AppSpec) (*Result, error) {
	h := &Harness{
		sched:  &store.Manual{},
		clock:  testutil.NewDeterministicClock(),
		logger: slog.New(slog.DiscardHandler),
	}

	m, err := engine.MountApp(app, h.sched, h.logger,
		engine.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.MountID)),
		engine.WithPropsClock(testutil.NewDeterministicClock()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mount app: %w", err)
	}
	h.mount = m

	result := NewResult()
	m.Start()
	defer m.Stop()
	h.flush(result, "first render")

	for i, step := range scenario.Steps {
		h.execute(i, step, result)
	}

	if result.HTML, err = m.HTML(); err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	result.State = m.Store().State()
	result.Renders = m.Renders()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// execute runs one step and records it in the trace.
func (h *Harness) execute(i int, step Step, result *Result) {
	ev := TraceEvent{Seq: h.clock.Next()}
	label := fmt.Sprintf("step %d", i)

	switch {
	case step.Fire != nil:
		f := step.Fire
		ev.Type = StepFire
		ev.Target = fmt.Sprintf("%s[%d]", f.Tag, f.Index)
		ev.Event = f.Event
		ev.Value = f.Value

		if err := h.mount.Fire(f.Tag, f.Index, ir.Event{Type: f.Event, Value: f.Value}); err != nil {
			result.AddError(fmt.Sprintf("%s: %v", label, err))
		}

	default:
		ev.Type = StepUpdate
		ev.Update = step.Update
		h.mount.Store().Update(store.State(step.Update))
	}

	h.flush(result, label)
	ev.Renders = h.mount.Renders()
	result.addTrace(ev)

	h.logger.Debug("step completed", "step", i, "type", ev.Type, "renders", ev.Renders)
}

// flush runs pending batches and reports a failed render.
func (h *Harness) flush(result *Result, label string) {
	h.sched.Flush()
	if err := h.mount.Err(); err != nil && err != h.lastErr {
		h.lastErr = err
		result.AddError(fmt.Sprintf("%s: render failed: %v", label, err))
	}
}
