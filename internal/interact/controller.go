// Package interact turns user input into selection changes, searches,
// camera moves and drag requests.
package interact

import (
	"strings"
	"time"

	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/layout"
)

// Engine is the part of the layout engine the controller drives.
type Engine interface {
	NodeAt(screen layout.Point) (string, bool)
	ToWorld(screen layout.Point) layout.Point
	ZoomToNode(id string, now time.Time) bool
	DragStart(id string) bool
	DragMove(world layout.Point)
	DragEnd()
}

// Tier identifies which search rule produced a match.
type Tier int

const (
	TierNone Tier = iota
	TierExactLabel
	TierExactID
	TierLabelContains
)

func (t Tier) String() string {
	switch t {
	case TierExactLabel:
		return "exact label"
	case TierExactID:
		return "exact id"
	case TierLabelContains:
		return "label contains"
	}
	return "none"
}

// Controller owns the selection. It is not safe for concurrent use.
type Controller struct {
	model    *graph.Model
	engine   Engine
	now      func() time.Time
	selected string
	pressed  string
}

// New creates a controller for one model and its engine.
func New(m *graph.Model, e Engine, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{model: m, engine: e, now: now}
}

// Selection returns the selected node id.
func (c *Controller) Selection() (string, bool) {
	return c.selected, c.selected != ""
}

// Select sets the selection to id. Unknown ids are ignored.
func (c *Controller) Select(id string) bool {
	if _, ok := c.model.Get(id); !ok {
		return false
	}
	c.selected = id
	return true
}

// ClearSelection deselects.
func (c *Controller) ClearSelection() {
	c.selected = ""
}

// NodeClick selects the node. It reports true so the caller does not also
// treat the click as a background click.
func (c *Controller) NodeClick(id string) bool {
	return c.Select(id)
}

// BackgroundClick clears the selection.
func (c *Controller) BackgroundClick() {
	c.ClearSelection()
}

// Click dispatches a click at a screen point to the node under it, or to the
// background.
func (c *Controller) Click(screen layout.Point) (string, bool) {
	if id, ok := c.engine.NodeAt(screen); ok && c.NodeClick(id) {
		return id, true
	}
	c.BackgroundClick()
	return "", false
}

// Lookup finds a node for free text: exact label first, then exact id, then
// label substring. The first tier that matches wins.
func (c *Controller) Lookup(text string) (graph.Node, Tier) {
	if strings.TrimSpace(text) == "" {
		return graph.Node{}, TierNone
	}
	if n, ok := c.model.FindByExactLabel(text); ok {
		return n, TierExactLabel
	}
	if n, ok := c.model.FindByExactID(text); ok {
		return n, TierExactID
	}
	if n, ok := c.model.FindByLabelContains(text); ok {
		return n, TierLabelContains
	}
	return graph.Node{}, TierNone
}

// Search selects the matching node and zooms the camera to it. Nothing
// changes when no node matches.
func (c *Controller) Search(text string) (graph.Node, bool) {
	n, tier := c.Lookup(text)
	if tier == TierNone {
		return graph.Node{}, false
	}
	c.selected = n.ID
	c.engine.ZoomToNode(n.ID, c.now())
	return n, true
}

// PointerDown starts a drag on the node under the pointer, if any.
func (c *Controller) PointerDown(screen layout.Point) bool {
	c.pressed = ""
	id, ok := c.engine.NodeAt(screen)
	if !ok || !c.engine.DragStart(id) {
		return false
	}
	c.pressed = id
	return true
}

// PointerMove moves the dragged node with the pointer.
func (c *Controller) PointerMove(screen layout.Point) {
	if c.pressed == "" {
		return
	}
	c.engine.DragMove(c.engine.ToWorld(screen))
}

// PointerUp ends the drag.
func (c *Controller) PointerUp() {
	if c.pressed == "" {
		return
	}
	c.pressed = ""
	c.engine.DragEnd()
}

// Drag moves node id to a world position, starting a drag if needed.
func (c *Controller) Drag(id string, world layout.Point) bool {
	if c.pressed != id {
		if c.pressed != "" {
			c.engine.DragEnd()
			c.pressed = ""
		}
		if !c.engine.DragStart(id) {
			return false
		}
		c.pressed = id
	}
	c.engine.DragMove(world)
	return true
}

// Dragging returns the node being dragged.
func (c *Controller) Dragging() (string, bool) {
	return c.pressed, c.pressed != ""
}

// AbortDrag forgets any drag without waiting for pointer up.
func (c *Controller) AbortDrag() {
	if c.pressed != "" {
		c.engine.DragEnd()
		c.pressed = ""
	}
}
