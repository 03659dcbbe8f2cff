// Package main - controller.go
//
// Session controller: owns the sampling loop goroutine and the machine's
// lifecycle. OnStart and OnStop come in from the hotkey listener and the
// tray; everything between them runs on the loop goroutine, which is the
// only place the machine is ever stepped.
package main

import (
	"image"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// windowAttacher is implemented by frame sources bound to a real window.
type windowAttacher interface {
	Attach() error
	Window() *GameWindow
}

// StatusView is a read-only summary for the tray and status feed.
type StatusView struct {
	Running bool
	State   string
	Fatal   string
	Stats   SessionStatsView
}

// Controller ties capture, matching and the state machine into the
// sampling loop and exposes start/stop to the UI surfaces.
type Controller struct {
	cfg     *Config
	source  FrameSource
	matcher *TemplateMatcher
	library *TemplateLibrary
	stats   *SessionStats
	snaps   *SnapshotWriter
	log     zerolog.Logger

	mu      sync.Mutex // guards machine access across loop and OnStop
	machine *FishingStateMachine

	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}

	sessionsPath string

	// Called after the game window is located on start, so the emitter
	// can be pointed at it.
	OnAttach func(*GameWindow)
}

// NewController wires the sampling loop's collaborators.
func NewController(cfg *Config, source FrameSource, matcher *TemplateMatcher, library *TemplateLibrary, machine *FishingStateMachine, stats *SessionStats, logger zerolog.Logger) *Controller {
	return &Controller{
		cfg:          cfg,
		source:       source,
		matcher:      matcher,
		library:      library,
		machine:      machine,
		stats:        stats,
		snaps:        NewSnapshotWriter("debug"),
		log:          logger,
		sessionsPath: filepath.Join(logsDir, sessionsFile),
	}
}

// OnStart begins a session: locates the game window, resets stats and
// kicks off the sampling loop. Repeated starts while running are no-ops.
func (c *Controller) OnStart() {
	if !c.running.CompareAndSwap(false, true) {
		return
	}

	if att, ok := c.source.(windowAttacher); ok {
		if err := att.Attach(); err != nil {
			c.log.Error().Err(err).Msg("cannot start, game window unavailable")
			c.running.Store(false)
			return
		}
		c.log.Info().Stringer("rect", att.Window().Rect).Msg("game window attached")
		if c.OnAttach != nil {
			c.OnAttach(att.Window())
		}
	}

	now := time.Now()
	c.stats.Reset(now)
	if err := StartSession(c.sessionsPath, now); err != nil {
		c.log.Warn().Err(err).Msg("session history update failed")
	}

	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	c.mu.Lock()
	c.machine.Start(now)
	c.mu.Unlock()

	c.log.Info().Msg("session started")
	SafeGo(c.loop)
}

// OnStop ends the session. The loop exits within one tick; the machine
// drops to idle immediately.
func (c *Controller) OnStop() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}

	close(c.stop)
	<-c.done

	now := time.Now()
	c.mu.Lock()
	c.machine.Stop(now)
	c.mu.Unlock()

	if err := EndSession(c.sessionsPath, now); err != nil {
		c.log.Warn().Err(err).Msg("session history update failed")
	}

	view := c.stats.Snapshot()
	c.log.Info().
		Int("catches", view.CatchCount).
		Int("misses", view.MissCount).
		Int("xp", view.XP).
		Str("elapsed", FormatDuration(view.Elapsed)).
		Msg("session stopped")
}

// Running reports whether a session is active.
func (c *Controller) Running() bool { return c.running.Load() }

// loop is the sampling loop. One tick: capture, match the current
// state's candidates, step the machine.
func (c *Controller) loop() {
	defer close(c.done)

	ticker := time.NewTicker(msDur(c.cfg.TickInterval))
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.tick(time.Now())
		}

		c.mu.Lock()
		idle := c.machine.State() == StateIdle
		c.mu.Unlock()
		if idle {
			// The machine aborted itself (capture failure, recovery
			// exhausted). Flip the running flag so the next start works.
			c.running.Store(false)
			return
		}
	}
}

// tick runs one capture/match/step cycle.
func (c *Controller) tick(now time.Time) {
	timer := NewTimer("tick")
	defer func() {
		// An overrunning tick eats into the next sampling interval and
		// degrades lane reaction time; worth a trace in the debug log.
		if timer.Elapsed() > msDur(c.cfg.TickInterval) {
			timer.Log()
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	tags := c.machine.CandidateTags()
	if len(tags) == 0 {
		return
	}

	full := image.Rect(0, 0, ReferenceWidth, ReferenceHeight)
	frame, err := c.source.Capture(full)
	if err != nil {
		c.machine.Step(now, Observation{Err: err})
		return
	}

	obs := Observation{
		Frame:   frame,
		Matches: c.matcher.MatchAll(frame, c.library.Candidates(tags...)),
	}
	c.machine.Step(now, obs)

	if c.cfg.DebugSnapshotsEnabled() && len(obs.Matches) > 0 {
		c.snaps.Write(frame, obs.Matches)
	}
}

// CurrentStatus returns a snapshot for the tray and status feed.
func (c *Controller) CurrentStatus() StatusView {
	c.mu.Lock()
	state := c.machine.State().String()
	fatal := ""
	if err := c.machine.Fatal(); err != nil {
		fatal = err.Error()
	}
	c.mu.Unlock()

	return StatusView{
		Running: c.running.Load(),
		State:   state,
		Fatal:   fatal,
		Stats:   c.stats.Snapshot(),
	}
}
