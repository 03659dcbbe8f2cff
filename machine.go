// Package main - machine.go
//
// Fishing state machine. Each sampling tick the controller hands it an
// Observation (frame plus accepted detections) and a timestamp; the
// machine decides transitions and emits input. Step is the only mutator
// and runs on the sampling goroutine, so the machine itself needs no
// locking. All timing is wall clock against the passed-in now, which
// keeps every scenario replayable in tests.
package main

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// FishingState enumerates the phases of one fishing cycle.
type FishingState int

const (
	StateIdle FishingState = iota
	StateCasting
	StateAwaitingBite
	StateReactionGame
	StateReeling
	StateCatchResolved
	StateRecovering
)

func (s FishingState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCasting:
		return "casting"
	case StateAwaitingBite:
		return "awaiting_bite"
	case StateReactionGame:
		return "reaction_game"
	case StateReeling:
		return "reeling"
	case StateCatchResolved:
		return "catch_resolved"
	case StateRecovering:
		return "recovering"
	}
	return "unknown"
}

// Observation is what one sampling tick saw: the captured frame, every
// detection that cleared its threshold (in candidate order), and any
// capture failure.
type Observation struct {
	Frame   *Frame
	Matches []MatchResult
	Err     error
}

// find returns the first accepted detection for a tag, nil when absent.
func (o *Observation) find(tag string) *MatchResult {
	for i := range o.Matches {
		if o.Matches[i].Tag == tag {
			return &o.Matches[i]
		}
	}
	return nil
}

// bestArrow returns the highest-confidence arrow detection, nil when no
// arrow was seen this tick.
func (o *Observation) bestArrow() *MatchResult {
	var best *MatchResult
	for i := range o.Matches {
		m := &o.Matches[i]
		if laneSymbolFromTag(m.Tag) == "" {
			continue
		}
		if best == nil || m.Confidence > best.Confidence {
			best = m
		}
	}
	return best
}

// ErrRecoveryExhausted is the fatal error set when recovery gives up.
var ErrRecoveryExhausted = errors.New("recovery retries exhausted")

// FishIdentifier names the fish shown on a successful catch screen.
type FishIdentifier interface {
	// Identify returns the fish type and a confidence in [0,1].
	Identify(f *Frame) (string, float64)
}

// CatchLogger receives one entry per resolved catch attempt.
type CatchLogger func(success bool, fishType string)

// FishingStateMachine drives the fishing cycle. It owns no goroutines
// and performs no capture; it only reads observations and emits input.
type FishingStateMachine struct {
	cfg     *Config
	emitter InputEmitter
	stats   *SessionStats
	lanes   *LaneResolver
	fishID  FishIdentifier
	catalog *FishCatalog
	log     zerolog.Logger

	catchLog CatchLogger

	state        FishingState
	enteredAt    time.Time
	lastProgress time.Time

	// Recovering bookkeeping.
	recoveryTries  int
	lastRecoveryAt time.Time

	// Whether the result screen of the current round has been clicked
	// away already.
	resultDismissed bool

	// Whether this round's rod break has been answered. The broken pole
	// stays on screen for several ticks after the key press.
	rodHandled bool

	fatal error
}

// NewFishingStateMachine wires the machine's collaborators. fishID and
// catchLog may be nil; identification then falls back to "unknown" and
// catches go unlogged.
func NewFishingStateMachine(cfg *Config, emitter InputEmitter, stats *SessionStats, lanes *LaneResolver, fishID FishIdentifier, catalog *FishCatalog, logger zerolog.Logger) *FishingStateMachine {
	return &FishingStateMachine{
		cfg:     cfg,
		emitter: emitter,
		stats:   stats,
		lanes:   lanes,
		fishID:  fishID,
		catalog: catalog,
		log:     logger,
		state:   StateIdle,
	}
}

// SetCatchLogger installs the per-catch log sink.
func (m *FishingStateMachine) SetCatchLogger(fn CatchLogger) { m.catchLog = fn }

// State returns the current phase.
func (m *FishingStateMachine) State() FishingState { return m.state }

// Fatal returns the error that stopped the machine, nil while healthy.
func (m *FishingStateMachine) Fatal() error { return m.fatal }

// Start begins a session: casts the line and enters Casting. No-op
// unless idle.
func (m *FishingStateMachine) Start(now time.Time) {
	if m.state != StateIdle {
		return
	}
	m.fatal = nil
	m.recoveryTries = 0
	m.cast(now)
}

// Stop aborts the session from any state. The round in flight is
// discarded without recording an outcome.
func (m *FishingStateMachine) Stop(now time.Time) {
	if m.state == StateIdle {
		return
	}
	m.log.Info().Str("from", m.state.String()).Msg("stopping")
	m.lanes.Reset(now)
	m.transition(StateIdle, now)
}

// cast clicks the water and enters Casting.
func (m *FishingStateMachine) cast(now time.Time) {
	m.emit(Click(m.cfg.CastPoint.X, m.cfg.CastPoint.Y))
	m.transition(StateCasting, now)
}

// Step advances the machine by one observation. Idle machines ignore
// observations entirely.
func (m *FishingStateMachine) Step(now time.Time, obs Observation) {
	if m.state == StateIdle {
		return
	}

	if obs.Err != nil {
		m.log.Error().Err(obs.Err).Msg("capture failed, session aborted")
		m.fatal = obs.Err
		m.lanes.Reset(now)
		m.transition(StateIdle, now)
		return
	}

	if len(obs.Matches) > 0 {
		m.lastProgress = now
	}

	// A stray dialog trumps whatever phase logic would otherwise run.
	// The result screen in CatchResolved legitimately shows these
	// buttons, so that state handles them itself; before the bite no
	// dialog belongs on screen at all, and leaving one up would reset
	// the watchdog every tick without any handler ever clearing it.
	if m.state != StateRecovering && m.state != StateCatchResolved {
		stray := obs.find(TagExit) != nil
		if m.state == StateCasting || m.state == StateAwaitingBite {
			stray = stray || obs.find(TagContinue) != nil || obs.find(TagContinueHigh) != nil
		}
		if stray {
			m.log.Warn().Str("state", m.state.String()).Msg("unexpected dialog, entering recovery")
			m.enterRecovery(now)
			return
		}
	}

	// Watchdog: nothing recognizable for too long means the screen
	// drifted somewhere the cycle cannot handle.
	if m.state != StateRecovering && now.Sub(m.lastProgress) > msDur(m.cfg.NoProgressBudget) {
		m.log.Warn().Str("state", m.state.String()).Msg("no progress, entering recovery")
		m.enterRecovery(now)
		return
	}

	switch m.state {
	case StateCasting:
		m.stepCasting(now, obs)
	case StateAwaitingBite:
		m.stepAwaitingBite(now, obs)
	case StateReactionGame:
		m.stepReactionGame(now, obs)
	case StateReeling:
		m.stepReeling(now, obs)
	case StateCatchResolved:
		m.stepCatchResolved(now, obs)
	case StateRecovering:
		m.stepRecovering(now, obs)
	}
}

func (m *FishingStateMachine) stepCasting(now time.Time, obs Observation) {
	// Rod broke on the previous round: open the rod panel and equip a
	// fresh one before the cast can land. One break means one key press
	// and one stat bump, however long the template stays visible.
	if obs.find(TagBrokenPole) != nil {
		if !m.rodHandled {
			m.log.Info().Msg("rod broken, equipping replacement")
			m.stats.RecordBrokenRod()
			m.emit(Press(m.cfg.Keys.RodsKey))
			m.rodHandled = true
		}
		m.enteredAt = now
		return
	}
	if use := obs.find(TagUseRod); use != nil {
		c := use.Center()
		m.emit(Click(c.X, c.Y))
		m.enteredAt = now
		return
	}

	if now.Sub(m.enteredAt) >= msDur(m.cfg.SettleDelay) {
		m.transition(StateAwaitingBite, now)
	}
}

func (m *FishingStateMachine) stepAwaitingBite(now time.Time, obs Observation) {
	bite := obs.find(TagBiteIndicator)
	if bite == nil {
		return
	}

	m.log.Info().Float64("confidence", bite.Confidence).Msg("bite detected")
	c := bite.Center()
	m.emit(Click(c.X, c.Y))
	m.lanes.Reset(now)
	m.transition(StateReactionGame, now)
}

func (m *FishingStateMachine) stepReactionGame(now time.Time, obs Observation) {
	if obs.find(TagReactionDone) != nil || obs.find(TagCatchSuccess) != nil || obs.find(TagCatchFail) != nil {
		misses := m.lanes.Finish(now)
		m.log.Debug().Int("misses", misses).Msg("reaction game over")
		m.transition(StateReeling, now)
		// Terminal screens can appear on the same tick the minigame ends.
		m.stepReeling(now, obs)
		return
	}
	if now.Sub(m.enteredAt) >= msDur(m.cfg.ReactionBudget) {
		misses := m.lanes.Finish(now)
		m.log.Warn().Int("misses", misses).Msg("reaction budget exhausted")
		m.transition(StateReeling, now)
		return
	}

	m.lanes.Observe(now, obs.bestArrow())
}

func (m *FishingStateMachine) stepReeling(now time.Time, obs Observation) {
	if success := obs.find(TagCatchSuccess); success != nil {
		m.resolveCatch(obs.Frame)
		m.transition(StateCatchResolved, now)
		return
	}
	if obs.find(TagCatchFail) != nil {
		m.log.Info().Msg("fish escaped")
		m.stats.RecordFail()
		if m.catchLog != nil {
			m.catchLog(false, "")
		}
		m.transition(StateCatchResolved, now)
		return
	}
	if now.Sub(m.enteredAt) >= msDur(m.cfg.ReelBudget) {
		m.log.Warn().Msg("reel budget exhausted, counting as miss")
		m.stats.RecordFail()
		if m.catchLog != nil {
			m.catchLog(false, "")
		}
		m.transition(StateCatchResolved, now)
	}
}

// resolveCatch records a successful catch, identifying the fish from the
// result screen when an identifier is wired.
func (m *FishingStateMachine) resolveCatch(f *Frame) {
	fishType := "unknown"
	if m.fishID != nil && f != nil {
		if name, conf := m.fishID.Identify(f); conf >= 0.7 && name != "" {
			fishType = name
		}
	}

	xp := 1
	if m.catalog != nil {
		if v := m.catalog.XPByType(fishType); v > 0 {
			xp = v
		}
	}

	m.log.Info().Str("fish", fishType).Int("xp", xp).Msg("catch landed")
	m.stats.RecordCatch(fishType, xp)
	if m.catchLog != nil {
		m.catchLog(true, fishType)
	}
}

func (m *FishingStateMachine) stepCatchResolved(now time.Time, obs Observation) {
	// Dismiss the result screen through its continue control. The exit
	// button sits right next to it and would leave the fishing spot, so
	// it is never clicked here even when both match.
	if !m.resultDismissed {
		switch {
		case obs.find(TagContinueHigh) != nil:
			c := obs.find(TagContinueHigh).Center()
			m.emit(Click(c.X, c.Y))
			m.resultDismissed = true
		case obs.find(TagContinue) != nil:
			c := obs.find(TagContinue).Center()
			m.emit(Click(c.X, c.Y))
			m.resultDismissed = true
		}
	}

	if now.Sub(m.enteredAt) < msDur(m.cfg.CatchCooldown) {
		return
	}
	m.recoveryTries = 0
	m.cast(now)
}

// enterRecovery switches to Recovering and schedules the first attempt
// immediately.
func (m *FishingStateMachine) enterRecovery(now time.Time) {
	m.lanes.Reset(now)
	m.recoveryTries = 0
	m.lastRecoveryAt = time.Time{}
	m.transition(StateRecovering, now)
}

func (m *FishingStateMachine) stepRecovering(now time.Time, obs Observation) {
	// Back on the plain game screen: recovery worked, resume the cycle.
	if obs.find(TagDefaultScreen) != nil {
		m.log.Info().Int("attempts", m.recoveryTries).Msg("recovered")
		m.recoveryTries = 0
		m.cast(now)
		return
	}

	if !m.lastRecoveryAt.IsZero() && now.Sub(m.lastRecoveryAt) < msDur(m.cfg.RecoveryRetryDelay) {
		return
	}

	if m.recoveryTries >= m.cfg.MaxRecoveryRetries {
		m.log.Error().Int("attempts", m.recoveryTries).Msg("recovery exhausted, session aborted")
		m.fatal = ErrRecoveryExhausted
		m.transition(StateIdle, now)
		return
	}

	m.recoveryTries++
	m.lastRecoveryAt = now

	// Prefer dismissing dialogs via their continue control. When only
	// the exit button is visible, its continue sibling sits at a fixed
	// offset; clicking exit itself would leave the fishing spot.
	switch {
	case obs.find(TagContinueHigh) != nil:
		c := obs.find(TagContinueHigh).Center()
		m.emit(Click(c.X, c.Y))
	case obs.find(TagContinue) != nil:
		c := obs.find(TagContinue).Center()
		m.emit(Click(c.X, c.Y))
	case obs.find(TagExit) != nil:
		c := obs.find(TagExit).Center()
		m.emit(Click(c.X+m.cfg.ContinueOffset.X, c.Y+m.cfg.ContinueOffset.Y))
	default:
		m.emit(Press(m.cfg.Keys.EscKey))
	}
	m.log.Debug().Int("attempt", m.recoveryTries).Msg("recovery attempt")
}

// transition switches phase and stamps the entry time.
func (m *FishingStateMachine) transition(to FishingState, now time.Time) {
	if m.state != to {
		m.log.Debug().Str("from", m.state.String()).Str("to", to.String()).Msg("state change")
	}
	if to == StateCatchResolved {
		m.resultDismissed = false
	}
	if to == StateCasting {
		m.rodHandled = false
	}
	m.state = to
	m.enteredAt = now
	m.lastProgress = now
}

// emit sends one command, logging failures without aborting the cycle.
func (m *FishingStateMachine) emit(cmd InputCommand) {
	if err := m.emitter.Emit(cmd); err != nil {
		m.log.Error().Err(err).Stringer("cmd", cmd).Msg("input emission failed")
	}
}

// CandidateTags returns the template tags worth scoring for the current
// state, in priority order. The sampling loop scans only these per tick.
func (m *FishingStateMachine) CandidateTags() []string {
	switch m.state {
	case StateCasting:
		return []string{TagBrokenPole, TagUseRod, TagExit, TagContinue, TagContinueHigh, TagDefaultScreen}
	case StateAwaitingBite:
		return []string{TagBiteIndicator, TagExit, TagContinue, TagContinueHigh}
	case StateReactionGame:
		return []string{
			TagArrowUp, TagArrowDown, TagArrowLeft, TagArrowRight,
			TagReactionDone, TagCatchSuccess, TagCatchFail, TagExit, TagContinue, TagContinueHigh,
		}
	case StateReeling:
		return []string{TagCatchSuccess, TagCatchFail, TagExit, TagContinue, TagContinueHigh}
	case StateCatchResolved:
		return []string{TagContinue, TagContinueHigh, TagExit}
	case StateRecovering:
		return []string{TagDefaultScreen, TagContinueHigh, TagContinue, TagExit}
	}
	return nil
}
