package store

import "maps"

// State is an immutable snapshot of store state.
// Callers must not mutate a State they did not create.
type State map[string]any

// Merge returns a new State with changes applied over s.
func (s State) Merge(changes State) State {
	out := make(State, len(s)+len(changes))
	maps.Copy(out, s)
	maps.Copy(out, changes)
	return out
}

// Clone returns a shallow copy of s.
func (s State) Clone() State {
	return s.Merge(nil)
}
