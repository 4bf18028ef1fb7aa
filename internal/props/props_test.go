package props

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/roach88/lispui/internal/compiler"
	"github.com/roach88/lispui/internal/ir"
	"github.com/roach88/lispui/internal/patch"
	"github.com/roach88/lispui/internal/render"
	"github.com/roach88/lispui/internal/store"
	"github.com/roach88/lispui/internal/testutil"
)

type dispatch struct {
	ev   ir.Event
	args []any
}

type recordingDispatcher struct {
	calls []dispatch
}

func (d *recordingDispatcher) Dispatch(ev ir.Event, args ...any) {
	d.calls = append(d.calls, dispatch{ev, args})
}

// mutableState is a StateReader tests can change between resolutions.
type mutableState struct {
	st store.State
}

func (m *mutableState) State() store.State { return m.st }

func newCache(st *mutableState, opts ...Option) *Cache {
	opts = append([]Option{WithClock(testutil.NewDeterministicClock())}, opts...)
	return New(st, opts...)
}

func TestParseFragment(t *testing.T) {
	tests := []struct {
		frag string
		want []Directive
	}{
		{
			frag: `:class "foo bar"`,
			want: []Directive{{Sigil: ir.SigilAttr, Name: "class", Args: []string{`"foo bar"`}}},
		},
		{
			frag: `:type "button" @click "increment" 2`,
			want: []Directive{
				{Sigil: ir.SigilAttr, Name: "type", Args: []string{`"button"`}},
				{Sigil: ir.SigilEvent, Name: "click", Args: []string{`"increment"`, "2"}},
			},
		},
		{
			frag: `:data-count wheelChange`,
			want: []Directive{{Sigil: ir.SigilAttr, Name: "data-count", Args: []string{"wheelChange"}}},
		},
		{
			frag: `:title "say \"hi\" now"`,
			want: []Directive{{Sigil: ir.SigilAttr, Name: "title", Args: []string{`"say \"hi\" now"`}}},
		},
		{
			frag: `stray :! "x" :ok "y"`,
			want: []Directive{{Sigil: ir.SigilAttr, Name: "ok", Args: []string{`"y"`}}},
		},
		{
			frag: `:title ( upper name ) :tabindex 3`,
			want: []Directive{{Sigil: ir.SigilAttr, Name: "tabindex", Args: []string{"3"}}},
		},
		{
			frag: `@click "pick" items.0 ":x"`,
			want: []Directive{{Sigil: ir.SigilEvent, Name: "click", Args: []string{`"pick"`, "items.0", `":x"`}}},
		},
		{
			frag: `:href a/b`,
			want: nil,
		},
		{
			frag: ``,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.frag, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFragment(tt.frag))
		})
	}
}

func TestResolve_StableWhileUnchanged(t *testing.T) {
	st := &mutableState{st: store.State{"show": true}}
	c := newCache(st)

	frag := `:class "foo bar" :checked show`
	first := c.Resolve(frag)
	assert.Equal(t, first, c.Resolve(frag))
	assert.Equal(t, 1, c.Len())

	rec := c.Get(first)
	require.NotNil(t, rec)
	assert.Equal(t, map[string]any{"class": "foo bar", "checked": true}, rec.Attributes)
}

func TestResolve_StateChangeRetiresID(t *testing.T) {
	st := &mutableState{st: store.State{"count": 0}}
	c := newCache(st)

	frag := `:value count`
	first := c.Resolve(frag)

	st.st = store.State{"count": 1}
	second := c.Resolve(frag)

	assert.NotEqual(t, first, second)
	assert.Nil(t, c.Get(first), "retired record is deleted")
	assert.Equal(t, 1, c.Get(second).Attributes["value"])
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, second, c.Resolve(frag))
}

func TestResolve_SharedAcrossIdenticalFragments(t *testing.T) {
	c := newCache(&mutableState{st: store.State{}})

	tmpl, err := compiler.Compile(`(ul (li (:class "row") "a") (li (:class "row") "b"))`, render.NewHTML(c), compiler.Scope{})
	require.NoError(t, err)

	out, err := tmpl.Execute(nil)
	require.NoError(t, err)
	assert.Equal(t, render.Markup(`<ul><li data-props="1">a</li><li data-props="1">b</li></ul>`), out)
	assert.Equal(t, 1, c.Len())
}

func TestResolve_EventHandlersKeepID(t *testing.T) {
	st := &mutableState{st: store.State{"count": 0}}
	c := newCache(st)

	frag := `@click "increment" 2`
	first := c.Resolve(frag)
	st.st = store.State{"count": 5}
	assert.Equal(t, first, c.Resolve(frag), "handler arguments resolve at invocation time")

	assert.Equal(t, Handler{Event: "click", Args: []string{`"increment"`, "2"}}, c.Get(first).Attributes["onclick"])
}

func TestResolve_MalformedDirectivesDegradeSilently(t *testing.T) {
	c := newCache(&mutableState{st: store.State{}})

	id := c.Resolve(`:class :! "x"`)
	assert.Empty(t, c.Get(id).Attributes)
}

func TestResolve_NestedFormDropsDirective(t *testing.T) {
	c := newCache(&mutableState{st: store.State{"name": "bob"}})

	rec := c.Get(c.Resolve(`:title ( upper name ) :tabindex 3`))
	assert.Equal(t, map[string]any{"tabindex": float64(3)}, rec.Attributes)
}

func TestResolve_ContextPrefixAndPaths(t *testing.T) {
	st := &mutableState{st: store.State{"user": map[string]any{"name": "ada"}, "items": []any{"x", "y"}}}
	c := newCache(st)

	rec := c.Get(c.Resolve(`:title ctx.user.name :data-first items.0 :class "a" "b"`))
	assert.Equal(t, map[string]any{
		"title":      "ada",
		"data-first": "x",
		"class":      []any{"a", "b"},
	}, rec.Attributes)
}

func TestInvoke_ResolvesArguments(t *testing.T) {
	d := &recordingDispatcher{}
	st := &mutableState{st: store.State{"step": 3}}
	c := newCache(st, WithDispatcher(d))

	ev := ir.Event{Type: "click"}
	c.Invoke(Handler{Event: "click", Args: []string{`"increment"`, "2", "step", "missing"}}, ev)

	require.Len(t, d.calls, 1)
	assert.Equal(t, ev, d.calls[0].ev)
	assert.Equal(t, []any{"increment", float64(2), 3, nil}, d.calls[0].args)
}

func TestHooks_InitializeInsertedSubtree(t *testing.T) {
	d := &recordingDispatcher{}
	st := &mutableState{st: store.State{"show": true, "wheel": 4}}
	c := newCache(st, WithDispatcher(d))

	tmpl, err := compiler.Compile(`(div (:class "foo bar")
		(input (:type "checkbox") (:checked show))
		(input (:type "number") (:value wheel) (@input "setWheelChange")))`,
		render.NewHTML(c), compiler.Scope{})
	require.NoError(t, err)

	out, err := tmpl.Execute(nil)
	require.NoError(t, err)
	snapshot, err := patch.ParseFragment(string(out.(render.Markup)))
	require.NoError(t, err)

	doc := patch.NewDocument(nil)
	require.NoError(t, patch.Apply(doc, patch.Diff(patch.NewContainer(), snapshot), c.Hooks(doc)))

	got, err := doc.HTML()
	require.NoError(t, err)
	assert.Equal(t,
		`<div data-props="3" class="foo bar">`+
			`<input data-props="1" checked="" type="checkbox"/>`+
			`<input data-props="2" type="number" value="4"/>`+
			`</div>`, got)

	number := doc.Find("input", 1)
	assert.Equal(t, []string{"input"}, doc.Listeners(number))
	assert.True(t, doc.Fire(number, ir.Event{Type: "input", Value: "9"}))
	require.Len(t, d.calls, 1)
	assert.Equal(t, []any{"setWheelChange"}, d.calls[0].args)
}

func TestHooks_TrackingChangeReappliesAttributes(t *testing.T) {
	st := &mutableState{st: store.State{"show": true}}
	c := newCache(st)
	tmpl, err := compiler.Compile(`(input (:checked show))`, render.NewHTML(c), compiler.Scope{})
	require.NoError(t, err)

	snapshot := func() *html.Node {
		out, err := tmpl.Execute(nil)
		require.NoError(t, err)
		n, err := patch.ParseFragment(string(out.(render.Markup)))
		require.NoError(t, err)
		return n
	}

	doc := patch.NewDocument(nil)
	first := snapshot()
	require.NoError(t, patch.Apply(doc, patch.Diff(patch.NewContainer(), first), c.Hooks(doc)))
	got, err := doc.HTML()
	require.NoError(t, err)
	assert.Equal(t, `<input data-props="1" checked=""/>`, got)

	st.st = store.State{"show": false}
	second := snapshot()
	require.NoError(t, patch.Apply(doc, patch.Diff(first, second), c.Hooks(doc)))
	got, err = doc.HTML()
	require.NoError(t, err)
	assert.Equal(t, `<input data-props="2"/>`, got)
}

func TestHooks_PreApply(t *testing.T) {
	c := newCache(&mutableState{st: store.State{}})
	id := c.Resolve(`:class "x"`)
	doc := patch.NewDocument(nil)
	hooks := c.Hooks(doc)

	node := &html.Node{Type: html.ElementNode, Data: "div"}
	patch.SetAttr(node, render.TrackingAttribute, strconv.FormatInt(id, 10))

	tests := []struct {
		name   string
		change patch.Change
		want   bool
	}{
		{"tracking removal vetoed", patch.Change{Action: patch.RemoveAttribute, Name: "data-props"}, false},
		{"tracking modify allowed", patch.Change{Action: patch.ModifyAttribute, Name: "data-props"}, true},
		{"owned attribute vetoed", patch.Change{Action: patch.RemoveAttribute, Name: "class"}, false},
		{"foreign attribute allowed", patch.Change{Action: patch.RemoveAttribute, Name: "id"}, true},
		{"structural changes allowed", patch.Change{Action: patch.ModifyText}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hooks.PreApply(patch.Info{Change: tt.change, Node: node}))
		})
	}
}
