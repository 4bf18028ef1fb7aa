package store

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lispui/internal/ir"
	"github.com/roach88/lispui/internal/testutil"
)

type notification struct {
	next, prev State
}

func newManualStore(initial State) (*Store, *Manual) {
	sched := &Manual{}
	return New(initial, WithScheduler(sched), WithClock(testutil.NewDeterministicClock())), sched
}

func TestStore_UpdateReplacesState(t *testing.T) {
	s, _ := newManualStore(State{"a": 1})
	before := s.State()

	s.Update(State{"b": 2})
	after := s.State()

	assert.Equal(t, State{"a": 1, "b": 2}, after)
	assert.Equal(t, State{"a": 1}, before, "previous snapshot must not change")
}

func TestStore_CoalescesUpdatesIntoOneNotification(t *testing.T) {
	s, sched := newManualStore(State{"count": 0})

	var got []notification
	s.Listen(func(next, prev State) { got = append(got, notification{next, prev}) })

	s.Update(State{"count": 1})
	s.Update(State{"count": 2})
	s.UpdateFunc(func(st State) State { return State{"count": st["count"].(int) + 1} })

	assert.Equal(t, 1, sched.Pending())
	assert.Empty(t, got, "listeners run only at the next tick")

	sched.Flush()
	require.Len(t, got, 1)
	assert.Equal(t, State{"count": 3}, got[0].next)
	assert.Equal(t, State{"count": 0}, got[0].prev, "prev is the state before the first update of the batch")
}

func TestStore_EmptyUpdateStillNotifies(t *testing.T) {
	s, sched := newManualStore(State{"x": 1})
	calls := 0
	s.Listen(func(next, prev State) { calls++ })

	s.Update(nil)
	sched.Flush()
	assert.Equal(t, 1, calls)
}

func TestStore_UnsubscribeSuppressesPendingBatch(t *testing.T) {
	s, sched := newManualStore(State{})
	calls := 0
	unsubscribe := s.Listen(func(next, prev State) { calls++ })

	s.Update(State{"a": 1})
	unsubscribe()
	unsubscribe()
	sched.Flush()

	assert.Zero(t, calls)
}

func TestStore_ListenerUnsubscribedDuringPass(t *testing.T) {
	s, sched := newManualStore(State{})

	var order []string
	var second func()
	s.Listen(func(next, prev State) {
		order = append(order, "first")
		second()
	})
	second = s.Listen(func(next, prev State) { order = append(order, "second") })

	s.Update(State{"a": 1})
	sched.Flush()
	assert.Equal(t, []string{"first"}, order)
}

func TestStore_ListenersRunInRegistrationOrder(t *testing.T) {
	s, sched := newManualStore(State{})

	var order []int
	for i := range 5 {
		s.Listen(func(next, prev State) { order = append(order, i) })
	}
	s.Update(State{"a": 1})
	sched.Flush()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestStore_UpdateFromListenerStartsNextBatch(t *testing.T) {
	s, sched := newManualStore(State{"n": 0})

	var seen []any
	s.Listen(func(next, prev State) {
		seen = append(seen, next["n"])
		if next["n"] == 1 {
			s.Update(State{"n": 2})
		}
	})

	s.Update(State{"n": 1})
	assert.Equal(t, 2, sched.Flush())
	assert.Equal(t, []any{1, 2}, seen)
	assert.False(t, s.Pending())
}

func TestStore_FrameScheduler(t *testing.T) {
	s := New(State{}, WithScheduler(Frame{Interval: 20 * time.Millisecond}))

	got := make(chan State, 4)
	s.Listen(func(next, prev State) { got <- next })

	s.Update(State{"a": 1})
	s.Update(State{"b": 2})

	select {
	case st := <-got:
		assert.Equal(t, State{"a": 1, "b": 2}, st)
	case <-time.After(time.Second):
		t.Fatal("no notification")
	}
}

func TestActions_BuiltIns(t *testing.T) {
	tests := []struct {
		name    string
		initial State
		action  Action
		ev      ir.Event
		args    []any
		want    State
	}{
		{"increment default step", State{"count": 0}, Increment("count", 1), ir.Event{}, nil, State{"count": float64(1)}},
		{"increment argument step", State{"count": 1.0}, Increment("count", 1), ir.Event{}, []any{float64(2)}, State{"count": float64(3)}},
		{"increment missing key", State{}, Increment("count", 5), ir.Event{}, nil, State{"count": float64(5)}},
		{"toggle", State{"show": true}, Toggle("show"), ir.Event{}, nil, State{"show": false}},
		{"toggle missing", State{}, Toggle("show"), ir.Event{}, nil, State{"show": true}},
		{"set", State{}, Set("mode", "edit"), ir.Event{}, nil, State{"mode": "edit"}},
		{"set from argument", State{}, Set("mode", "edit"), ir.Event{}, []any{"view"}, State{"mode": "view"}},
		{"set from event", State{}, SetFromEvent("wheel"), ir.Event{Type: "input", Value: "7"}, nil, State{"wheel": "7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newManualStore(tt.initial)
			tt.action(s, tt.ev, tt.args)
			assert.Equal(t, tt.want, s.State())
		})
	}
}

func TestActions_DispatchUnknownLogsAndContinues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sched := &Manual{}
	s := New(State{"count": 0}, WithScheduler(sched), WithLogger(logger))

	actions := NewActions(s)
	actions.Register("increment", Increment("count", 1))

	calls := 0
	s.Listen(func(next, prev State) { calls++ })

	actions.Dispatch(ir.Event{Type: "click"}, "nope")
	actions.Dispatch(ir.Event{Type: "click"})
	actions.Dispatch(ir.Event{Type: "click"}, float64(3))
	assert.Contains(t, buf.String(), "no action type")
	assert.Contains(t, buf.String(), "action=nope")
	assert.Contains(t, buf.String(), "event has no action")

	actions.Dispatch(ir.Event{Type: "click"}, "increment")
	sched.Flush()
	assert.Equal(t, 1, calls)
	assert.Equal(t, float64(1), s.State()["count"])
}

func TestActions_RegisterSpecs(t *testing.T) {
	s, _ := newManualStore(State{})
	actions := NewActions(s)

	err := actions.RegisterSpecs(map[string]ir.ActionSpec{
		"increment":      {Op: "increment", Key: "count", By: 2},
		"setWheelChange": {Op: "set_from_event", Key: "wheelChange"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"increment", "setWheelChange"}, actions.Names())

	actions.Dispatch(ir.Event{}, "increment")
	assert.Equal(t, float64(2), s.State()["count"])

	err = actions.RegisterSpecs(map[string]ir.ActionSpec{"bad": {Op: "explode", Key: "x"}})
	assert.ErrorContains(t, err, `unknown action op "explode"`)

	_, err = BuildAction(ir.ActionSpec{Op: "toggle"})
	assert.ErrorContains(t, err, "key is required")
}
