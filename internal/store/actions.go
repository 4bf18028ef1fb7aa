package store

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/roach88/lispui/internal/ir"
)

// Action is a state transition triggered by an event.
// args are the resolved handler arguments after the action name.
type Action func(s *Store, ev ir.Event, args []any)

// Actions is the dispatcher event handlers call.
type Actions struct {
	store  *Store
	logger *slog.Logger

	mu      sync.RWMutex
	actions map[string]Action
}

// NewActions creates an empty registry acting on s. Unknown actions
// are logged through s's logger.
func NewActions(s *Store) *Actions {
	return &Actions{
		store:   s,
		logger:  s.logger,
		actions: make(map[string]Action),
	}
}

// Register adds or replaces the action called name.
func (a *Actions) Register(name string, fn Action) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions[name] = fn
}

// Names returns the registered action names, sorted.
func (a *Actions) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return ir.SortedKeys(a.actions)
}

// Dispatch runs the action named by args[0]. Unknown or missing names
// are logged at Warn and ignored; dispatch never fails.
func (a *Actions) Dispatch(ev ir.Event, args ...any) {
	if len(args) == 0 {
		a.logger.Warn("event has no action", "event", ev.Type)
		return
	}
	name, ok := args[0].(string)

	a.mu.RLock()
	fn := a.actions[name]
	a.mu.RUnlock()

	if !ok || fn == nil {
		a.logger.Warn("no action type", "action", ir.FormatValue(args[0]), "event", ev.Type)
		return
	}
	fn(a.store, ev, args[1:])
}

// Increment adds by to the number under key. A numeric first argument
// overrides the step: (@click "increment" 2).
func Increment(key string, by float64) Action {
	return func(s *Store, _ ir.Event, args []any) {
		step := by
		if len(args) > 0 {
			if n, ok := toFloat(args[0]); ok {
				step = n
			}
		}
		s.UpdateFunc(func(st State) State {
			n, _ := toFloat(st[key])
			return State{key: n + step}
		})
	}
}

// Toggle flips the truthiness of key.
func Toggle(key string) Action {
	return func(s *Store, _ ir.Event, _ []any) {
		s.UpdateFunc(func(st State) State {
			return State{key: !truthy(st[key])}
		})
	}
}

// Set stores value under key. A first argument overrides value.
func Set(key string, value any) Action {
	return func(s *Store, _ ir.Event, args []any) {
		v := value
		if len(args) > 0 {
			v = args[0]
		}
		s.Update(State{key: v})
	}
}

// SetFromEvent stores the event's value under key.
func SetFromEvent(key string) Action {
	return func(s *Store, ev ir.Event, _ []any) {
		s.Update(State{key: ev.Value})
	}
}

// BuildAction turns a declarative action into an Action.
func BuildAction(spec ir.ActionSpec) (Action, error) {
	if spec.Key == "" {
		return nil, fmt.Errorf("action %q: key is required", spec.Op)
	}
	switch spec.Op {
	case "increment":
		by := spec.By
		if by == 0 {
			by = 1
		}
		return Increment(spec.Key, by), nil
	case "toggle":
		return Toggle(spec.Key), nil
	case "set":
		return Set(spec.Key, spec.Value), nil
	case "set_from_event":
		return SetFromEvent(spec.Key), nil
	default:
		return nil, fmt.Errorf("unknown action op %q", spec.Op)
	}
}

// RegisterSpecs builds and registers every declared action.
func (a *Actions) RegisterSpecs(specs map[string]ir.ActionSpec) error {
	for _, name := range ir.SortedKeys(specs) {
		fn, err := BuildAction(specs[name])
		if err != nil {
			return fmt.Errorf("action %s: %w", name, err)
		}
		a.Register(name, fn)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		return ir.ParseNumber(n)
	default:
		return 0, false
	}
}

func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
		return b != ""
	case float64:
		return b != 0
	case int:
		return b != 0
	default:
		return true
	}
}
