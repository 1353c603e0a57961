package layout

import (
	"math"
	"time"
)

// Transform maps world coordinates to screen coordinates:
// screen = world*K + (X, Y).
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Identity is the transform that leaves coordinates unchanged.
var Identity = Transform{K: 1}

// Apply maps a world point to the screen.
func (t Transform) Apply(p Point) Point {
	return Point{p.X*t.K + t.X, p.Y*t.K + t.Y}
}

// Invert maps a screen point back to world coordinates.
func (t Transform) Invert(p Point) Point {
	return Point{(p.X - t.X) / t.K, (p.Y - t.Y) / t.K}
}

// Size is a viewport size in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the middle of the viewport.
func (s Size) Center() Point {
	return Point{s.Width / 2, s.Height / 2}
}

// CameraParams configures zoom limits and the zoom-to-node animation.
type CameraParams struct {
	MinScale   float64
	MaxScale   float64
	FocusScale float64
	Transition time.Duration
}

// DefaultCameraParams returns the viewer's zoom settings.
func DefaultCameraParams() CameraParams {
	return CameraParams{
		MinScale:   0.1,
		MaxScale:   4,
		FocusScale: 1.5,
		Transition: time.Second,
	}
}

// Transition interpolates between two transforms over a fixed duration.
// The view center moves linearly in world space while the scale changes
// geometrically, so zooming in and out feel symmetric.
type Transition struct {
	From, To Transform
	Start    time.Time
	Duration time.Duration
	Viewport Size
}

// At returns the transform at now and whether the transition has finished.
func (tr Transition) At(now time.Time) (Transform, bool) {
	if tr.Duration <= 0 || !now.Before(tr.Start.Add(tr.Duration)) {
		return tr.To, true
	}
	t := float64(now.Sub(tr.Start)) / float64(tr.Duration)
	if t < 0 {
		t = 0
	}
	e := easeCubicInOut(t)

	c0 := tr.From.Invert(tr.Viewport.Center())
	c1 := tr.To.Invert(tr.Viewport.Center())
	k := tr.From.K * math.Pow(tr.To.K/tr.From.K, e)
	c := Point{c0.X + (c1.X-c0.X)*e, c0.Y + (c1.Y-c0.Y)*e}
	vc := tr.Viewport.Center()
	return Transform{X: vc.X - c.X*k, Y: vc.Y - c.Y*k, K: k}, false
}

func easeCubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

// Camera holds the current transform and any running transition.
type Camera struct {
	params    CameraParams
	transform Transform
	active    *Transition
}

// NewCamera creates a camera at the identity transform.
func NewCamera(p CameraParams) *Camera {
	return &Camera{params: p, transform: Identity}
}

// Transform returns the current transform.
func (c *Camera) Transform() Transform { return c.transform }

// Animating reports whether a transition is in flight.
func (c *Camera) Animating() bool { return c.active != nil }

func (c *Camera) clamp(k float64) float64 {
	return math.Max(c.params.MinScale, math.Min(c.params.MaxScale, k))
}

// Set replaces the transform, clamping its scale and cancelling any transition.
func (c *Camera) Set(t Transform) {
	c.active = nil
	t.K = c.clamp(t.K)
	c.transform = t
}

// PanZoom applies a gesture: translate by (dx, dy), then scale by factor
// about the screen point anchor. A gesture interrupts a running transition.
func (c *Camera) PanZoom(dx, dy, factor float64, anchor Point) {
	t := c.transform
	t.X += dx
	t.Y += dy
	if factor > 0 && factor != 1 {
		world := t.Invert(anchor)
		t.K = c.clamp(t.K * factor)
		t.X = anchor.X - world.X*t.K
		t.Y = anchor.Y - world.Y*t.K
	}
	c.active = nil
	c.transform = t
}

// Focus returns the transform that puts world point p at the viewport
// center at the focus scale.
func (c *Camera) Focus(p Point, viewport Size) Transform {
	k := c.clamp(c.params.FocusScale)
	vc := viewport.Center()
	return Transform{X: vc.X - p.X*k, Y: vc.Y - p.Y*k, K: k}
}

// AnimateTo starts a transition from the current transform to t.
func (c *Camera) AnimateTo(t Transform, viewport Size, now time.Time) {
	c.active = &Transition{
		From:     c.transform,
		To:       t,
		Start:    now,
		Duration: c.params.Transition,
		Viewport: viewport,
	}
}

// Advance writes the transition's transform for now. It returns whether the
// transform changed.
func (c *Camera) Advance(now time.Time) bool {
	if c.active == nil {
		return false
	}
	t, done := c.active.At(now)
	c.transform = t
	if done {
		c.active = nil
	}
	return true
}

// Stop cancels any running transition, leaving the transform where it is.
func (c *Camera) Stop() {
	c.active = nil
}
