// Package session is the interactive view of one ontology at a time. It owns
// the current graph model, its layout engine and the interaction controller,
// and runs every mutation on a single scheduler goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/msalah0e/ontoview/internal/assist"
	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/interact"
	"github.com/msalah0e/ontoview/internal/layout"
	"github.com/msalah0e/ontoview/internal/ontology"
	"github.com/msalah0e/ontoview/internal/store"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("session closed")
	// ErrNoOntology is returned by operations that need a loaded document.
	ErrNoOntology = errors.New("no ontology loaded")
)

// Options configures a Session.
type Options struct {
	Name          string
	Layout        layout.Params
	Camera        layout.CameraParams
	Viewport      layout.Size
	TickInterval  time.Duration
	FrameInterval time.Duration
	Store         store.Storer
	Assistant     assist.Assistant
	Logger        *zap.Logger
	Clock         func() time.Time
}

// DefaultOptions returns options for an 800x600 view with no persistence.
func DefaultOptions() Options {
	return Options{
		Name:          "ontology",
		Layout:        layout.DefaultParams(),
		Camera:        layout.DefaultCameraParams(),
		Viewport:      layout.Size{Width: 800, Height: 600},
		TickInterval:  16 * time.Millisecond,
		FrameInterval: 16 * time.Millisecond,
	}
}

// Frame is what subscribers receive after every visible change.
type Frame struct {
	layout.State
	Generation int         `json:"generation"`
	Selection  string      `json:"selection,omitempty"`
	Dragging   string      `json:"dragging,omitempty"`
	Stats      graph.Stats `json:"stats"`
}

// Session is safe for concurrent use. Subscribers are called on the loop
// goroutine and must not call back into the Session.
type Session struct {
	opts   Options
	logger *zap.Logger
	sched  *layout.Scheduler
	closed atomic.Bool
	once   sync.Once

	// owned by the loop goroutine
	model      *graph.Model
	engine     *layout.Engine
	ctrl       *interact.Controller
	generation int
	digest     string

	subMu   sync.Mutex
	subs    map[int]func(Frame)
	nextSub int
}

// New creates a session. Nothing is shown until Load succeeds.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Assistant == nil {
		opts.Assistant = assist.NewStub()
	}
	if opts.Name == "" {
		opts.Name = "ontology"
	}
	s := &Session{
		opts:   opts,
		logger: opts.Logger,
		subs:   make(map[int]func(Frame)),
	}
	s.sched = layout.NewScheduler(opts.TickInterval, opts.FrameInterval, layout.Hooks{
		Tick:  s.onTick,
		Frame: func(time.Time) { s.onFrame() },
	})
	return s
}

func (s *Session) do(fn func()) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.sched.Do(fn); err != nil {
		if errors.Is(err, layout.ErrStopped) {
			return ErrClosed
		}
		return err
	}
	return nil
}

func (s *Session) onTick() {
	if s.engine != nil && s.engine.Tick() {
		s.publish()
	}
}

func (s *Session) onFrame() {
	if s.engine != nil && s.engine.Frame(s.opts.Clock()) {
		s.publish()
	}
}

// Load replaces the displayed ontology. Parsing happens before the loop is
// touched, so a malformed document leaves the current view untouched.
func (s *Session) Load(markup string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	m, err := ontology.Ingest(markup)
	if err != nil {
		s.logger.Warn("ontology rejected", zap.Error(err))
		return fmt.Errorf("loading ontology: %w", err)
	}
	digest := store.Digest(markup)
	seed := s.restore(digest)

	var prevDigest string
	var prevPositions map[string]layout.Point
	var restored int
	err = s.do(func() {
		viewport := s.opts.Viewport
		if s.engine != nil {
			prevDigest, prevPositions = s.digest, s.engine.Positions()
			viewport = s.engine.Viewport()
			s.ctrl.AbortDrag()
			s.engine.Halt()
		}
		s.model = m
		s.engine = layout.NewEngine(m, viewport, s.opts.Layout, s.opts.Camera)
		restored = s.engine.Seed(seed)
		if restored > 0 && restored == m.Len() {
			s.engine.Simulation().SetAlpha(0)
		}
		s.ctrl = interact.New(m, s.engine, s.opts.Clock)
		s.generation++
		s.digest = digest
		s.publish()
	})
	if err != nil {
		return err
	}

	s.save(prevDigest, prevPositions)
	st := m.GetStats()
	s.logger.Info("ontology loaded",
		zap.Int("nodes", st.Nodes), zap.Int("links", st.Links), zap.Int("restored", restored))
	return nil
}

func (s *Session) restore(digest string) map[string]layout.Point {
	if s.opts.Store == nil {
		return nil
	}
	snap, err := s.opts.Store.GetLayout(digest)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("layout restore failed", zap.Error(err))
		}
		return nil
	}
	out := make(map[string]layout.Point, len(snap.Positions))
	for id, p := range snap.Positions {
		out[id] = layout.Point{X: p.X, Y: p.Y}
	}
	return out
}

func (s *Session) save(digest string, positions map[string]layout.Point) {
	if s.opts.Store == nil || digest == "" || len(positions) == 0 {
		return
	}
	snap := &store.Snapshot{
		Digest:    digest,
		Name:      s.opts.Name,
		SavedAt:   s.opts.Clock(),
		Positions: make(map[string]store.Position, len(positions)),
	}
	for id, p := range positions {
		snap.Positions[id] = store.Position{X: p.X, Y: p.Y}
	}
	if err := s.opts.Store.SaveLayout(snap); err != nil {
		s.logger.Warn("layout save failed", zap.Error(err))
	}
}

// Save persists the current positions.
func (s *Session) Save() error {
	var digest string
	var positions map[string]layout.Point
	if err := s.do(func() {
		if s.engine != nil {
			digest, positions = s.digest, s.engine.Positions()
		}
	}); err != nil {
		return err
	}
	if digest == "" {
		return ErrNoOntology
	}
	s.save(digest, positions)
	return nil
}

// Model returns the displayed model, or nil.
func (s *Session) Model() *graph.Model {
	var m *graph.Model
	_ = s.do(func() { m = s.model })
	return m
}

// Select selects node id. An empty id is a background click.
func (s *Session) Select(id string) (bool, error) {
	var ok bool
	err := s.do(func() {
		if s.ctrl == nil {
			return
		}
		if id == "" {
			s.ctrl.BackgroundClick()
		} else {
			ok = s.ctrl.NodeClick(id)
		}
		s.publish()
	})
	return ok, err
}

// Search selects the best match for text and moves the camera to it.
func (s *Session) Search(text string) (graph.Node, bool, error) {
	var n graph.Node
	var ok bool
	err := s.do(func() {
		if s.ctrl == nil {
			return
		}
		if n, ok = s.ctrl.Search(text); ok {
			s.publish()
		}
	})
	if err == nil && !ok {
		s.logger.Debug("search found nothing", zap.String("text", text))
	}
	return n, ok, err
}

// Click handles a click at a screen point.
func (s *Session) Click(x, y float64) (string, bool, error) {
	var id string
	var ok bool
	err := s.do(func() {
		if s.ctrl == nil {
			return
		}
		id, ok = s.ctrl.Click(layout.Point{X: x, Y: y})
		s.publish()
	})
	return id, ok, err
}

// PointerDown starts dragging the node under a screen point.
func (s *Session) PointerDown(x, y float64) (bool, error) {
	var ok bool
	err := s.do(func() {
		if s.ctrl != nil {
			ok = s.ctrl.PointerDown(layout.Point{X: x, Y: y})
		}
	})
	return ok, err
}

// PointerMove drags the pressed node to a screen point.
func (s *Session) PointerMove(x, y float64) error {
	return s.do(func() {
		if s.ctrl != nil {
			s.ctrl.PointerMove(layout.Point{X: x, Y: y})
		}
	})
}

// PointerUp releases the pressed node.
func (s *Session) PointerUp() error {
	return s.do(func() {
		if s.ctrl != nil {
			s.ctrl.PointerUp()
		}
	})
}

// DragNode pins node id at a world position, starting a drag if needed.
func (s *Session) DragNode(id string, x, y float64) (bool, error) {
	var ok bool
	err := s.do(func() {
		if s.ctrl != nil {
			ok = s.ctrl.Drag(id, layout.Point{X: x, Y: y})
		}
	})
	return ok, err
}

// DragEnd releases whatever node is being dragged.
func (s *Session) DragEnd() error {
	return s.PointerUp()
}

// PanZoom applies a camera gesture: translate by (dx, dy), then scale by
// factor around screen point (cx, cy).
func (s *Session) PanZoom(dx, dy, factor, cx, cy float64) error {
	return s.do(func() {
		if s.engine == nil {
			return
		}
		s.engine.PanZoom(dx, dy, factor, layout.Point{X: cx, Y: cy})
		s.publish()
	})
}

// Resize changes the viewport. A drag in progress is aborted.
func (s *Session) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid viewport %gx%g", width, height)
	}
	return s.do(func() {
		size := layout.Size{Width: width, Height: height}
		s.opts.Viewport = size
		if s.engine == nil {
			return
		}
		s.ctrl.AbortDrag()
		s.engine.Resize(size)
		s.publish()
	})
}

// RunTicks runs up to n physics steps immediately and returns how many ran.
// Stepping stops early once the layout settles.
func (s *Session) RunTicks(n int) (int, error) {
	ran := 0
	err := s.do(func() {
		if s.engine == nil {
			return
		}
		for ran < n && s.engine.Tick() {
			ran++
		}
		if ran > 0 {
			s.publish()
		}
	})
	return ran, err
}

// AdvanceFrame runs one camera frame at the session clock.
func (s *Session) AdvanceFrame() error {
	return s.do(s.onFrame)
}

// Snapshot returns the current frame.
func (s *Session) Snapshot() Frame {
	var f Frame
	_ = s.do(func() { f = s.frame() })
	return f
}

// Describe returns the side-panel view of a node.
func (s *Session) Describe(id string) (*graph.View, error) {
	m := s.Model()
	if m == nil {
		return nil, ErrNoOntology
	}
	return m.Describe(id)
}

// Query evaluates a class expression with the assistant against the loaded
// markup.
func (s *Session) Query(ctx context.Context, expr string) (*assist.Reply, error) {
	return s.complete(ctx, expr, assist.ModeQuery)
}

// Ask poses a free-form question to the assistant.
func (s *Session) Ask(ctx context.Context, question string) (*assist.Reply, error) {
	return s.complete(ctx, question, assist.ModeChat)
}

func (s *Session) complete(ctx context.Context, input string, mode assist.Mode) (*assist.Reply, error) {
	m := s.Model()
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if m == nil {
		return nil, ErrNoOntology
	}
	reply, err := s.opts.Assistant.Complete(ctx, assist.Request{Ontology: m.Markup(), Input: input, Mode: mode})
	if err != nil {
		s.logger.Warn("assistant failed", zap.String("mode", string(mode)), zap.Error(err))
		return nil, err
	}
	return reply, nil
}

// Subscribe registers fn for every published frame. The returned function
// unregisters it.
func (s *Session) Subscribe(fn func(Frame)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Close halts the layout, saves positions and stops the loop. It is safe to
// call more than once.
func (s *Session) Close() error {
	var digest string
	var positions map[string]layout.Point
	s.once.Do(func() {
		_ = s.sched.Do(func() {
			if s.engine != nil {
				digest, positions = s.digest, s.engine.Positions()
				s.ctrl.AbortDrag()
				s.engine.Halt()
			}
		})
		s.closed.Store(true)
		s.sched.Stop()
		s.save(digest, positions)
	})
	return nil
}

func (s *Session) frame() Frame {
	f := Frame{Generation: s.generation}
	if s.engine == nil {
		f.State = layout.State{Transform: layout.Identity, Viewport: s.opts.Viewport, Nodes: []layout.NodeState{}, Links: []layout.LinkState{}}
		return f
	}
	f.State = s.engine.State()
	f.Selection, _ = s.ctrl.Selection()
	f.Dragging, _ = s.ctrl.Dragging()
	f.Stats = s.model.GetStats()
	return f
}

func (s *Session) publish() {
	s.subMu.Lock()
	if len(s.subs) == 0 {
		s.subMu.Unlock()
		return
	}
	fns := make([]func(Frame), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	f := s.frame()
	for _, fn := range fns {
		fn(f)
	}
}
