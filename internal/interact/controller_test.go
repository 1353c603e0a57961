package interact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/layout"
)

type fakeEngine struct {
	hits    map[layout.Point]string
	zoomed  []string
	started []string
	moves   []layout.Point
	ended   int
	refuse  bool
}

func (f *fakeEngine) NodeAt(p layout.Point) (string, bool) {
	id, ok := f.hits[p]
	return id, ok
}

func (f *fakeEngine) ToWorld(p layout.Point) layout.Point {
	return layout.Point{X: p.X / 2, Y: p.Y / 2}
}

func (f *fakeEngine) ZoomToNode(id string, _ time.Time) bool {
	f.zoomed = append(f.zoomed, id)
	return true
}

func (f *fakeEngine) DragStart(id string) bool {
	if f.refuse {
		return false
	}
	f.started = append(f.started, id)
	return true
}

func (f *fakeEngine) DragMove(p layout.Point) { f.moves = append(f.moves, p) }
func (f *fakeEngine) DragEnd()                { f.ended++ }

func searchModel() *graph.Model {
	b := graph.NewBuilder()
	b.Put(graph.Node{ID: "urn:x#SeniorResearcher", Label: "Senior Researcher", Kind: graph.KindClass})
	b.Put(graph.Node{ID: "Researcher", Label: "Staff", Kind: graph.KindClass})
	b.Put(graph.Node{ID: "urn:x#Researcher", Label: "Researcher", Kind: graph.KindClass})
	return b.Build("")
}

func TestSearchPrefersExactLabel(t *testing.T) {
	eng := &fakeEngine{}
	c := New(searchModel(), eng, nil)

	n, ok := c.Search("researcher")
	require.True(t, ok)
	assert.Equal(t, "urn:x#Researcher", n.ID)
	sel, _ := c.Selection()
	assert.Equal(t, "urn:x#Researcher", sel)
	assert.Equal(t, []string{"urn:x#Researcher"}, eng.zoomed)
}

func TestLookupTiers(t *testing.T) {
	c := New(searchModel(), &fakeEngine{}, nil)

	tests := []struct {
		text string
		id   string
		tier Tier
	}{
		{"Researcher", "urn:x#Researcher", TierExactLabel},
		{"staff", "Researcher", TierExactLabel},
		{"URN:X#SENIORRESEARCHER", "urn:x#SeniorResearcher", TierExactID},
		{"nior", "urn:x#SeniorResearcher", TierLabelContains},
		{"research", "urn:x#SeniorResearcher", TierLabelContains},
		{"nothing", "", TierNone},
		{"   ", "", TierNone},
	}
	for _, tt := range tests {
		n, tier := c.Lookup(tt.text)
		if tier != tt.tier || n.ID != tt.id {
			t.Errorf("Lookup(%q) = %q (%v), want %q (%v)", tt.text, n.ID, tier, tt.id, tt.tier)
		}
	}
}

func TestSearchNotFoundKeepsState(t *testing.T) {
	eng := &fakeEngine{}
	c := New(searchModel(), eng, nil)
	require.True(t, c.Select("Researcher"))

	_, ok := c.Search("absent")
	assert.False(t, ok)
	sel, _ := c.Selection()
	assert.Equal(t, "Researcher", sel)
	assert.Empty(t, eng.zoomed)
}

func TestClicks(t *testing.T) {
	eng := &fakeEngine{hits: map[layout.Point]string{{X: 10, Y: 10}: "Researcher"}}
	c := New(searchModel(), eng, nil)

	id, hit := c.Click(layout.Point{X: 10, Y: 10})
	assert.True(t, hit)
	assert.Equal(t, "Researcher", id)
	_, selected := c.Selection()
	assert.True(t, selected)

	_, hit = c.Click(layout.Point{X: 99, Y: 99})
	assert.False(t, hit)
	_, selected = c.Selection()
	assert.False(t, selected, "background click clears the selection")
}

func TestSelectUnknown(t *testing.T) {
	c := New(searchModel(), &fakeEngine{}, nil)
	assert.False(t, c.Select("nope"))
	_, selected := c.Selection()
	assert.False(t, selected)
}

func TestPointerDrag(t *testing.T) {
	eng := &fakeEngine{hits: map[layout.Point]string{{X: 10, Y: 10}: "Researcher"}}
	c := New(searchModel(), eng, nil)

	assert.False(t, c.PointerDown(layout.Point{X: 50, Y: 50}), "no node under pointer")
	c.PointerMove(layout.Point{X: 60, Y: 60})
	c.PointerUp()
	assert.Empty(t, eng.moves)
	assert.Equal(t, 0, eng.ended)

	require.True(t, c.PointerDown(layout.Point{X: 10, Y: 10}))
	c.PointerMove(layout.Point{X: 40, Y: 20})
	id, dragging := c.Dragging()
	assert.True(t, dragging)
	assert.Equal(t, "Researcher", id)
	c.PointerUp()

	assert.Equal(t, []string{"Researcher"}, eng.started)
	assert.Equal(t, []layout.Point{{X: 20, Y: 10}}, eng.moves)
	assert.Equal(t, 1, eng.ended)
	_, dragging = c.Dragging()
	assert.False(t, dragging)
}

func TestDragSwitchesNode(t *testing.T) {
	eng := &fakeEngine{}
	c := New(searchModel(), eng, nil)

	require.True(t, c.Drag("a", layout.Point{X: 1, Y: 1}))
	require.True(t, c.Drag("a", layout.Point{X: 2, Y: 2}))
	require.True(t, c.Drag("b", layout.Point{X: 3, Y: 3}))

	assert.Equal(t, []string{"a", "b"}, eng.started)
	assert.Equal(t, 1, eng.ended)

	c.AbortDrag()
	assert.Equal(t, 2, eng.ended)
}

func TestDragRefused(t *testing.T) {
	eng := &fakeEngine{refuse: true}
	c := New(searchModel(), eng, nil)
	assert.False(t, c.Drag("a", layout.Point{}))
	_, dragging := c.Dragging()
	assert.False(t, dragging)
}

func TestSearchWithRealEngine(t *testing.T) {
	m := searchModel()
	e := layout.NewEngine(m, layout.Size{Width: 800, Height: 600}, layout.DefaultParams(), layout.DefaultCameraParams())
	now := time.Unix(50, 0)
	c := New(m, e, func() time.Time { return now })

	_, ok := c.Search("Researcher")
	require.True(t, ok, "search succeeds even before positions exist")
	assert.False(t, e.Frame(now.Add(time.Second)), "zoom is deferred until positioned")

	e.Tick()
	_, ok = c.Search("Researcher")
	require.True(t, ok)
	assert.True(t, e.Frame(now.Add(time.Second)))
	assert.InDelta(t, 1.5, e.Transform().K, 1e-9)
}
