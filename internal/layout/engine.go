package layout

import (
	"time"

	"github.com/msalah0e/ontoview/internal/graph"
)

// NodeState is a node as the renderer sees it.
type NodeState struct {
	ID     string     `json:"id"`
	Label  string     `json:"label"`
	Kind   graph.Kind `json:"kind"`
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	R      float64    `json:"r"`
	Placed bool       `json:"placed"`
	Pinned bool       `json:"pinned"`
}

// LinkState is a link as the renderer sees it.
type LinkState struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// State is a copy of everything a renderer needs for one frame.
type State struct {
	Tick      int         `json:"tick"`
	Alpha     float64     `json:"alpha"`
	Settled   bool        `json:"settled"`
	Transform Transform   `json:"transform"`
	Viewport  Size        `json:"viewport"`
	Nodes     []NodeState `json:"nodes"`
	Links     []LinkState `json:"links"`
}

// Engine owns the simulation and camera for one model. It is the only writer
// of node positions and pins. An Engine is not safe for concurrent use; the
// Scheduler serializes access.
type Engine struct {
	model    *graph.Model
	params   Params
	sim      *Simulation
	camera   *Camera
	viewport Size
	dragging int
	halted   bool
}

// NewEngine creates an engine for m laid out in a viewport of the given size.
func NewEngine(m *graph.Model, viewport Size, p Params, cp CameraParams) *Engine {
	return &Engine{
		model:    m,
		params:   p,
		sim:      NewSimulation(m, viewport.Center(), p),
		camera:   NewCamera(cp),
		viewport: viewport,
		dragging: -1,
	}
}

// Model returns the model being laid out.
func (e *Engine) Model() *graph.Model { return e.model }

// Viewport returns the current viewport size.
func (e *Engine) Viewport() Size { return e.viewport }

// Simulation returns the running simulation.
func (e *Engine) Simulation() *Simulation { return e.sim }

// Transform returns the camera transform.
func (e *Engine) Transform() Transform { return e.camera.Transform() }

// Halted reports whether Halt has been called.
func (e *Engine) Halted() bool { return e.halted }

// Halt stops ticking and any camera animation for good.
func (e *Engine) Halt() {
	e.AbortDrag()
	e.camera.Stop()
	e.halted = true
}

// Tick runs one simulation step. It returns false without stepping once the
// engine is halted or the layout has settled with nothing holding it warm.
func (e *Engine) Tick() bool {
	if e.halted {
		return false
	}
	if e.sim.Settled() && e.sim.alphaTarget == 0 {
		return false
	}
	e.sim.Step()
	return true
}

// Frame advances the camera transition to now and reports whether the
// transform changed.
func (e *Engine) Frame(now time.Time) bool {
	if e.halted {
		return false
	}
	return e.camera.Advance(now)
}

// Resize rebuilds the simulation for a new viewport. Existing positions are
// kept, the centering force targets the new center and the energy restarts.
// Any drag in progress is aborted.
func (e *Engine) Resize(viewport Size) {
	if e.halted || viewport == e.viewport {
		return
	}
	e.AbortDrag()
	e.camera.Stop()

	old := e.sim
	e.sim = NewSimulation(e.model, viewport.Center(), e.params)
	for i := range old.bodies {
		if p, ok := old.Position(i); ok {
			e.sim.Seed(i, p)
		}
	}
	e.viewport = viewport
}

// Seed places nodes at stored positions before the first tick.
func (e *Engine) Seed(positions map[string]Point) int {
	n := 0
	for id, p := range positions {
		if i, ok := e.model.IndexOf(id); ok {
			e.sim.Seed(i, p)
			n++
		}
	}
	return n
}

// Positions returns the position of every placed node.
func (e *Engine) Positions() map[string]Point {
	out := make(map[string]Point, e.model.Len())
	for i := 0; i < e.model.Len(); i++ {
		if p, ok := e.sim.Position(i); ok {
			out[e.model.Node(i).ID] = p
		}
	}
	return out
}

// PanZoom applies a pan/zoom gesture to the camera.
func (e *Engine) PanZoom(dx, dy, factor float64, anchor Point) {
	e.camera.PanZoom(dx, dy, factor, anchor)
}

// ZoomToNode animates the camera to center the node. It returns false when
// the node is unknown or has no position yet.
func (e *Engine) ZoomToNode(id string, now time.Time) bool {
	if e.halted {
		return false
	}
	i, ok := e.model.IndexOf(id)
	if !ok {
		return false
	}
	p, ok := e.sim.Position(i)
	if !ok {
		return false
	}
	e.camera.AnimateTo(e.camera.Focus(p, e.viewport), e.viewport, now)
	return true
}

// ToWorld converts a screen point to world coordinates.
func (e *Engine) ToWorld(screen Point) Point {
	return e.camera.Transform().Invert(screen)
}

// NodeAt returns the topmost node drawn under the screen point.
func (e *Engine) NodeAt(screen Point) (string, bool) {
	w := e.ToWorld(screen)
	for i := e.model.Len() - 1; i >= 0; i-- {
		p, ok := e.sim.Position(i)
		if !ok {
			continue
		}
		n := e.model.Node(i)
		dx, dy := p.X-w.X, p.Y-w.Y
		if dx*dx+dy*dy <= n.Radius()*n.Radius() {
			return n.ID, true
		}
	}
	return "", false
}

// DragStart pins the node where it is and warms the simulation.
func (e *Engine) DragStart(id string) bool {
	if e.halted {
		return false
	}
	i, ok := e.model.IndexOf(id)
	if !ok {
		return false
	}
	p, ok := e.sim.Position(i)
	if !ok {
		return false
	}
	if e.dragging >= 0 && e.dragging != i {
		e.sim.Unpin(e.dragging)
	}
	e.dragging = i
	e.sim.Pin(i, p)
	e.sim.SetAlphaTarget(e.params.DragAlphaTarget)
	return true
}

// DragMove moves the dragged node's pin to a world point.
func (e *Engine) DragMove(world Point) {
	if e.dragging < 0 {
		return
	}
	e.sim.Pin(e.dragging, world)
}

// DragEnd releases the dragged node and lets the layout cool down.
func (e *Engine) DragEnd() {
	if e.dragging < 0 {
		return
	}
	e.sim.Unpin(e.dragging)
	e.sim.SetAlphaTarget(0)
	e.dragging = -1
}

// AbortDrag cancels a drag in progress.
func (e *Engine) AbortDrag() {
	e.DragEnd()
}

// Dragging returns the id of the node being dragged.
func (e *Engine) Dragging() (string, bool) {
	if e.dragging < 0 {
		return "", false
	}
	return e.model.Node(e.dragging).ID, true
}

// State copies the current layout for rendering.
func (e *Engine) State() State {
	st := State{
		Tick:      e.sim.Ticks(),
		Alpha:     e.sim.Alpha(),
		Settled:   e.sim.Settled(),
		Transform: e.camera.Transform(),
		Viewport:  e.viewport,
		Nodes:     make([]NodeState, e.model.Len()),
		Links:     []LinkState{},
	}
	for i := 0; i < e.model.Len(); i++ {
		n := e.model.Node(i)
		p, placed := e.sim.Position(i)
		st.Nodes[i] = NodeState{
			ID:     n.ID,
			Label:  n.Label,
			Kind:   n.Kind,
			X:      p.X,
			Y:      p.Y,
			R:      n.Radius(),
			Placed: placed,
			Pinned: e.sim.Pinned(i),
		}
	}
	for _, l := range e.model.Links() {
		st.Links = append(st.Links, LinkState{Source: l.Source.ID(), Target: l.Target.ID(), Label: l.Label})
	}
	return st
}
