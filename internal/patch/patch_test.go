package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/roach88/lispui/internal/ir"
)

func mustParse(t *testing.T, markup string) *html.Node {
	t.Helper()
	n, err := ParseFragment(markup)
	require.NoError(t, err)
	return n
}

func mustRender(t *testing.T, n *html.Node) string {
	t.Helper()
	s, err := RenderChildren(n)
	require.NoError(t, err)
	return s
}

func TestWalk_PreOrder(t *testing.T) {
	root := mustParse(t, `<ul><li>a</li><li>b</li></ul><p>c</p>`)

	var seen []string
	err := Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			seen = append(seen, n.Data)
		} else {
			seen = append(seen, "#"+n.Data)
		}
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"div", "ul", "li", "#a", "li", "#b", "p", "#c"}, seen)
}

func TestWalk_FalseSkipsChildren(t *testing.T) {
	root := mustParse(t, `<ul><li>a</li></ul><p>c</p>`)

	var seen []string
	require.NoError(t, Walk(root, func(n *html.Node) bool {
		seen = append(seen, n.Data)
		return n.Data != "ul"
	}))
	assert.Equal(t, []string{"div", "ul", "p", "c"}, seen)
}

func TestWalk_NilRoot(t *testing.T) {
	err := Walk(nil, func(*html.Node) bool { return true })
	assert.ErrorIs(t, err, ErrNotTraversable)
}

func TestDiff_Changes(t *testing.T) {
	tests := []struct {
		name string
		prev string
		next string
		want []Change
	}{
		{
			name: "identical",
			prev: `<div data-props="1">x</div>`,
			next: `<div data-props="1">x</div>`,
			want: nil,
		},
		{
			name: "modified attribute",
			prev: `<div data-props="1">x</div>`,
			next: `<div data-props="2">x</div>`,
			want: []Change{{Action: ModifyAttribute, Route: []int{0}, Name: "data-props", OldValue: "1", NewValue: "2"}},
		},
		{
			name: "added and removed attributes",
			prev: `<div a="1"></div>`,
			next: `<div b="2"></div>`,
			want: []Change{
				{Action: RemoveAttribute, Route: []int{0}, Name: "a", OldValue: "1"},
				{Action: AddAttribute, Route: []int{0}, Name: "b", NewValue: "2"},
			},
		},
		{
			name: "text",
			prev: `<p>+1</p>`,
			next: `<p>+2</p>`,
			want: []Change{{Action: ModifyText, Route: []int{0, 0}, OldValue: "+1", NewValue: "+2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(mustParse(t, tt.prev), mustParse(t, tt.next))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiff_StructuralChanges(t *testing.T) {
	got := Diff(
		mustParse(t, `<ul><li>a</li><li>b</li><li>c</li></ul>`),
		mustParse(t, `<ul><li>a</li></ul><p>new</p>`),
	)
	require.Len(t, got, 3)
	assert.Equal(t, RemoveElement, got[0].Action)
	assert.Equal(t, []int{0, 2}, got[0].Route)
	assert.Equal(t, RemoveElement, got[1].Action)
	assert.Equal(t, []int{0, 1}, got[1].Route)
	assert.Equal(t, AddElement, got[2].Action)
	assert.Equal(t, []int{1}, got[2].Route)
	assert.Equal(t, "p", got[2].Node.Data)

	got = Diff(mustParse(t, `<p>x</p>`), mustParse(t, `<span>x</span>`))
	require.Len(t, got, 1)
	assert.Equal(t, ReplaceElement, got[0].Action)
}

func TestApply_ReproducesNextSnapshot(t *testing.T) {
	pairs := [][2]string{
		{``, `<div data-props="1"><span>0</span></div>`},
		{`<div data-props="1"><span>0</span></div>`, `<div data-props="3"><span>1</span><b>x</b></div>`},
		{`<ul><li>a</li><li>b</li><li>c</li></ul>`, `<ul><li>c</li></ul><p>d</p>`},
		{`<p>x</p><p>y</p>`, `<section>z</section>`},
	}

	for _, pair := range pairs {
		t.Run(pair[0]+" -> "+pair[1], func(t *testing.T) {
			prev, next := mustParse(t, pair[0]), mustParse(t, pair[1])
			doc := NewDocument(Clone(prev))

			require.NoError(t, Apply(doc, Diff(prev, next), nil))
			assert.Equal(t, mustRender(t, next), mustRender(t, doc.Root))
		})
	}
}

type vetoHooks struct {
	post []Action
}

func (h *vetoHooks) PreApply(info Info) bool {
	return !(info.Change.Action == RemoveAttribute && info.Change.Name == "data-props")
}

func (h *vetoHooks) PostApply(info Info) {
	h.post = append(h.post, info.Change.Action)
}

func TestApply_HooksVetoAndObserve(t *testing.T) {
	prev := mustParse(t, `<div data-props="1">a</div>`)
	next := mustParse(t, `<div>b</div>`)
	doc := NewDocument(Clone(prev))
	hooks := &vetoHooks{}

	require.NoError(t, Apply(doc, Diff(prev, next), hooks))
	assert.Equal(t, `<div data-props="1">b</div>`, mustRender(t, doc.Root))
	assert.Equal(t, []Action{ModifyText}, hooks.post)
}

func TestApply_BadRoute(t *testing.T) {
	doc := NewDocument(nil)
	err := Apply(doc, []Change{{Action: ModifyText, Route: []int{3}}}, nil)

	var re *RouteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []int{3}, re.Route)
}

func TestDocument_FireAndFind(t *testing.T) {
	doc := NewDocument(mustParse(t, `<button>a</button><button>b</button>`))

	second := doc.Find("button", 1)
	require.NotNil(t, second)
	assert.Nil(t, doc.Find("button", 2))

	var got []ir.Event
	doc.Bind(second, "click", func(ev ir.Event) { got = append(got, ev) })
	assert.Equal(t, []string{"click"}, doc.Listeners(second))

	assert.False(t, doc.Fire(doc.Find("button", 0), ir.Event{Type: "click"}))
	assert.True(t, doc.Fire(second, ir.Event{Type: "click", Value: "v"}))
	assert.Equal(t, []ir.Event{{Type: "click", Value: "v"}}, got)
}

func TestApply_RemovedNodesLoseListeners(t *testing.T) {
	prev := mustParse(t, `<button>a</button>`)
	doc := NewDocument(Clone(prev))
	btn := doc.Find("button", 0)
	doc.Bind(btn, "click", func(ir.Event) {})

	require.NoError(t, Apply(doc, Diff(prev, mustParse(t, ``)), nil))
	assert.Empty(t, doc.Listeners(btn))
}
