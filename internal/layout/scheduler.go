package layout

import (
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned when work is submitted to a stopped Scheduler.
var ErrStopped = errors.New("scheduler stopped")

// Hooks are called on the scheduler goroutine.
type Hooks struct {
	// Tick runs once per physics interval.
	Tick func()
	// Frame runs once per camera frame interval.
	Frame func(now time.Time)
}

// Scheduler is the host frame loop. Physics ticks, camera frames and
// submitted commands all run on one goroutine, so none of them overlap.
type Scheduler struct {
	tickInterval  time.Duration
	frameInterval time.Duration
	hooks         Hooks

	cmds     chan func()
	quit     chan struct{}
	done     chan struct{}
	startOne sync.Once
	stopOne  sync.Once
}

// NewScheduler creates a scheduler. A zero interval disables that timer.
func NewScheduler(tick, frame time.Duration, hooks Hooks) *Scheduler {
	return &Scheduler{
		tickInterval:  tick,
		frameInterval: frame,
		hooks:         hooks,
		cmds:          make(chan func()),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start launches the loop goroutine.
func (s *Scheduler) Start() {
	s.startOne.Do(func() { go s.run() })
}

// Stop ends the loop and waits for the in-flight tick or command to finish.
func (s *Scheduler) Stop() {
	s.Start()
	s.stopOne.Do(func() { close(s.quit) })
	<-s.done
}

// Do runs fn on the loop goroutine between ticks and waits for it. It must
// not be called from within fn or a hook.
func (s *Scheduler) Do(fn func()) error {
	s.Start()
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}
	select {
	case s.cmds <- wrapped:
	case <-s.done:
		return ErrStopped
	}
	<-finished
	return nil
}

func (s *Scheduler) run() {
	defer close(s.done)

	var tickC, frameC <-chan time.Time
	if s.tickInterval > 0 {
		t := time.NewTicker(s.tickInterval)
		defer t.Stop()
		tickC = t.C
	}
	if s.frameInterval > 0 {
		t := time.NewTicker(s.frameInterval)
		defer t.Stop()
		frameC = t.C
	}

	for {
		select {
		case <-s.quit:
			return
		case fn := <-s.cmds:
			fn()
		case <-tickC:
			if s.hooks.Tick != nil {
				s.hooks.Tick()
			}
		case now := <-frameC:
			if s.hooks.Frame != nil {
				s.hooks.Frame(now)
			}
		}
	}
}
