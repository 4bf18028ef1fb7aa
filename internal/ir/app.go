package ir

// AppSpec is a compiled app definition loaded from CUE.
type AppSpec struct {
	Name         string                `json:"name"`
	Template     string                `json:"template"`
	TemplateFile string                `json:"template_file,omitempty"`
	Context      string                `json:"context"`
	Pretty       PrettySpec            `json:"pretty"`
	State        map[string]any        `json:"state"`
	Actions      map[string]ActionSpec `json:"actions"`
}

// PrettySpec controls indentation of rendered markup.
type PrettySpec struct {
	Enabled bool   `json:"enabled"`
	Indent  string `json:"indent,omitempty"`
}

// ActionSpec declares a store action by operation.
type ActionSpec struct {
	Op    string  `json:"op"`              // "increment" | "toggle" | "set" | "set_from_event"
	Key   string  `json:"key"`             // state key the action writes
	By    float64 `json:"by,omitempty"`    // increment step (default 1)
	Value any     `json:"value,omitempty"` // value for "set"
}

// ValidActionOps defines allowed action operations.
var ValidActionOps = map[string]bool{
	"increment":      true,
	"toggle":         true,
	"set":            true,
	"set_from_event": true,
}

// DefaultContextName is the binding name templates use for the render context.
const DefaultContextName = "ctx"
