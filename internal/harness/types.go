package harness

// Step kinds recorded in the trace.
const (
	StepFire   = "fire"
	StepUpdate = "update"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq     int64          `json:"seq"`
	Type    string         `json:"type"` // "fire" or "update"
	Target  string         `json:"target,omitempty"`
	Event   string         `json:"event,omitempty"`
	Value   string         `json:"value,omitempty"`
	Update  map[string]any `json:"update,omitempty"`
	Renders int            `json:"renders"` // render count after the step flushed
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every step ran and every assertion held.
	Pass bool `json:"pass"`

	// HTML is the final live document.
	HTML string `json:"html"`

	// State is the final store state.
	State map[string]any `json:"state"`

	// Renders is the number of completed renders.
	Renders int `json:"renders"`

	Trace []TraceEvent `json:"trace"`

	// Errors is empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		State:  map[string]any{},
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
