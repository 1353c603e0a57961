package layout

import (
	"math"

	"github.com/msalah0e/ontoview/internal/graph"
)

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Params configures the force simulation.
type Params struct {
	LinkDistance    float64
	Charge          float64
	CollideRadius   float64
	CenterStrength  float64
	VelocityDecay   float64
	AlphaMin        float64
	AlphaDecay      float64
	DragAlphaTarget float64
}

// DefaultParams returns the forces used by the viewer.
func DefaultParams() Params {
	return Params{
		LinkDistance:    150,
		Charge:          -400,
		CollideRadius:   40,
		CenterStrength:  1,
		VelocityDecay:   0.4,
		AlphaMin:        0.001,
		AlphaDecay:      1 - math.Pow(0.001, 1.0/300),
		DragAlphaTarget: 0.3,
	}
}

type body struct {
	x, y   float64
	vx, vy float64
	placed bool
	pinned bool
	px, py float64
}

type spring struct {
	s, t     int
	strength float64
	bias     float64
}

// Simulation integrates link, many-body, centering and collision forces over
// the nodes of one model. Forces within a step read only the positions and
// velocities of the previous step.
type Simulation struct {
	params  Params
	center  Point
	bodies  []body
	springs []spring

	alpha       float64
	alphaTarget float64
	ticks       int
}

// NewSimulation builds a simulation for m, centered on center. The center is
// fixed for the simulation's lifetime.
func NewSimulation(m *graph.Model, center Point, p Params) *Simulation {
	m.ResolveLinks()

	s := &Simulation{
		params: p,
		center: center,
		bodies: make([]body, m.Len()),
		alpha:  1,
	}

	degree := make([]int, m.Len())
	for _, l := range m.Links() {
		si, ok1 := l.Source.Resolved()
		ti, ok2 := l.Target.Resolved()
		if !ok1 || !ok2 {
			continue
		}
		s.springs = append(s.springs, spring{s: si, t: ti})
		degree[si]++
		degree[ti]++
	}
	for i := range s.springs {
		sp := &s.springs[i]
		ds, dt := float64(degree[sp.s]), float64(degree[sp.t])
		sp.strength = 1 / math.Min(ds, dt)
		sp.bias = ds / (ds + dt)
	}
	return s
}

// Center returns the point the centering force pulls toward.
func (s *Simulation) Center() Point { return s.center }

// Alpha returns the current energy.
func (s *Simulation) Alpha() float64 { return s.alpha }

// Ticks returns how many steps have run.
func (s *Simulation) Ticks() int { return s.ticks }

// Settled reports whether the energy has decayed below the threshold.
func (s *Simulation) Settled() bool {
	return s.alpha < s.params.AlphaMin
}

// SetAlphaTarget sets the energy level alpha decays toward.
func (s *Simulation) SetAlphaTarget(target float64) {
	s.alphaTarget = target
}

// Reheat raises the energy so the layout visibly re-settles.
func (s *Simulation) Reheat(alpha float64) {
	if alpha > s.alpha {
		s.alpha = alpha
	}
}

// SetAlpha replaces the current energy. Zero leaves a seeded layout at rest.
func (s *Simulation) SetAlpha(alpha float64) {
	s.alpha = alpha
}

// Seed places node i at p before the first step.
func (s *Simulation) Seed(i int, p Point) {
	b := &s.bodies[i]
	b.x, b.y = p.X, p.Y
	b.vx, b.vy = 0, 0
	b.placed = true
}

// Position returns the position of node i once it has one.
func (s *Simulation) Position(i int) (Point, bool) {
	if i < 0 || i >= len(s.bodies) || !s.bodies[i].placed {
		return Point{}, false
	}
	return Point{s.bodies[i].x, s.bodies[i].y}, true
}

// Pinned reports whether node i is fixed in place.
func (s *Simulation) Pinned(i int) bool {
	return s.bodies[i].pinned
}

// Pin fixes node i at p until Unpin.
func (s *Simulation) Pin(i int, p Point) {
	b := &s.bodies[i]
	b.pinned = true
	b.px, b.py = p.X, p.Y
}

// Unpin releases node i back to the simulation.
func (s *Simulation) Unpin(i int) {
	s.bodies[i].pinned = false
}

// Step advances the simulation by one tick.
func (s *Simulation) Step() {
	n := len(s.bodies)
	s.place()
	s.alpha += (s.alphaTarget - s.alpha) * s.params.AlphaDecay
	s.ticks++
	if n == 0 {
		return
	}

	prev := make([]body, n)
	copy(prev, s.bodies)
	dv := make([]Point, n)

	s.applyLinks(prev, dv)
	s.applyCharge(prev, dv)
	s.applyCollide(prev, dv)
	shift := s.centerShift(prev)

	keep := 1 - s.params.VelocityDecay
	for i := range s.bodies {
		b := &s.bodies[i]
		if b.pinned {
			b.x, b.y = b.px, b.py
			b.vx, b.vy = 0, 0
			continue
		}
		b.vx = (prev[i].vx + dv[i].X) * keep
		b.vy = (prev[i].vy + dv[i].Y) * keep
		b.x = prev[i].x - shift.X + b.vx
		b.y = prev[i].y - shift.Y + b.vy
	}
}

// place gives unplaced nodes a phyllotaxis position around the center.
func (s *Simulation) place() {
	const initialRadius = 10
	angle := math.Pi * (3 - math.Sqrt(5))
	for i := range s.bodies {
		b := &s.bodies[i]
		if b.placed {
			continue
		}
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * angle
		b.x = s.center.X + r*math.Cos(a)
		b.y = s.center.Y + r*math.Sin(a)
		b.placed = true
	}
}

// jiggle breaks exact coincidence deterministically.
func jiggle(i, j int) float64 {
	return float64(i-j) * 1e-6
}

func (s *Simulation) applyLinks(prev []body, dv []Point) {
	for _, sp := range s.springs {
		src, tgt := prev[sp.s], prev[sp.t]
		dx := tgt.x + tgt.vx - src.x - src.vx
		dy := tgt.y + tgt.vy - src.y - src.vy
		if dx == 0 && dy == 0 {
			dx, dy = jiggle(sp.t, sp.s)+1e-6, 1e-6
		}
		l := math.Sqrt(dx*dx + dy*dy)
		k := (l - s.params.LinkDistance) / l * s.alpha * sp.strength
		dx, dy = dx*k, dy*k
		dv[sp.t].X -= dx * sp.bias
		dv[sp.t].Y -= dy * sp.bias
		dv[sp.s].X += dx * (1 - sp.bias)
		dv[sp.s].Y += dy * (1 - sp.bias)
	}
}

func (s *Simulation) applyCharge(prev []body, dv []Point) {
	for i := 0; i < len(prev); i++ {
		for j := i + 1; j < len(prev); j++ {
			dx := prev[j].x - prev[i].x
			dy := prev[j].y - prev[i].y
			if dx == 0 && dy == 0 {
				dx, dy = jiggle(j, i), jiggle(j, i)
			}
			d2 := dx*dx + dy*dy
			if d2 < 1 {
				d2 = math.Sqrt(d2)
			}
			w := s.params.Charge * s.alpha / d2
			dv[i].X += dx * w
			dv[i].Y += dy * w
			dv[j].X -= dx * w
			dv[j].Y -= dy * w
		}
	}
}

func (s *Simulation) applyCollide(prev []body, dv []Point) {
	r := s.params.CollideRadius
	if r <= 0 {
		return
	}
	minDist := 2 * r
	for i := 0; i < len(prev); i++ {
		xi, yi := prev[i].x+prev[i].vx, prev[i].y+prev[i].vy
		for j := i + 1; j < len(prev); j++ {
			dx := xi - prev[j].x - prev[j].vx
			dy := yi - prev[j].y - prev[j].vy
			if dx == 0 && dy == 0 {
				dx, dy = jiggle(i, j), jiggle(i, j)
			}
			d2 := dx*dx + dy*dy
			if d2 >= minDist*minDist {
				continue
			}
			l := math.Sqrt(d2)
			k := (minDist - l) / l * 0.5
			dv[i].X += dx * k
			dv[i].Y += dy * k
			dv[j].X -= dx * k
			dv[j].Y -= dy * k
		}
	}
}

func (s *Simulation) centerShift(prev []body) Point {
	var sx, sy float64
	for _, b := range prev {
		sx += b.x
		sy += b.y
	}
	n := float64(len(prev))
	return Point{
		X: (sx/n - s.center.X) * s.params.CenterStrength,
		Y: (sy/n - s.center.Y) * s.params.CenterStrength,
	}
}
