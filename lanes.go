// Package main - lanes.go
//
// Reaction minigame lane resolution. During the minigame the screen shows
// a sequence of arrow prompts; each must be answered with its direction
// key before a per-symbol deadline. Raw detections flicker, so a symbol
// only counts once it has been seen on two consecutive samples. Exactly
// one key press goes out per confirmed symbol, in sighting order.
package main

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LaneSymbol is one arrow direction of the reaction minigame.
type LaneSymbol string

const (
	LaneUp    LaneSymbol = "up"
	LaneDown  LaneSymbol = "down"
	LaneLeft  LaneSymbol = "left"
	LaneRight LaneSymbol = "right"
)

// laneSymbolFromTag maps an arrow template tag to its symbol, "" for
// non-arrow tags.
func laneSymbolFromTag(tag string) LaneSymbol {
	if !strings.HasPrefix(tag, "arrow_") {
		return ""
	}
	return LaneSymbol(strings.TrimPrefix(tag, "arrow_"))
}

// LaneSlot is one symbol's place in the resolved sequence.
type LaneSlot struct {
	Symbol    LaneSymbol
	FirstSeen time.Time
	Deadline  time.Time
	Confirmed bool
	Missed    bool
}

// LaneResolver turns flickering arrow detections into debounced,
// in-order key presses. It is driven by the sampling loop only and keeps
// at most one pending symbol at a time, matching how the minigame
// presents prompts.
type LaneResolver struct {
	emitter  InputEmitter
	deadline time.Duration
	rearm    time.Duration
	keys     map[LaneSymbol]string
	log      zerolog.Logger

	slots []LaneSlot

	// Pending (unconfirmed) symbol state.
	pending     LaneSymbol
	pendingAt   time.Time
	consecutive int

	// Refractory guard after a confirmation.
	lastConfirmed   LaneSymbol
	lastConfirmedAt time.Time

	misses int
}

// NewLaneResolver builds a resolver with the configured per-symbol
// deadline, rearm delay and direction keybinds.
func NewLaneResolver(cfg *Config, emitter InputEmitter, logger zerolog.Logger) *LaneResolver {
	return &LaneResolver{
		emitter:  emitter,
		deadline: msDur(cfg.LaneDeadline),
		rearm:    msDur(cfg.LaneRearmDelay),
		keys: map[LaneSymbol]string{
			LaneUp:    cfg.Keys.UpKey,
			LaneDown:  cfg.Keys.DownKey,
			LaneLeft:  cfg.Keys.LeftKey,
			LaneRight: cfg.Keys.RightKey,
		},
		log: logger,
	}
}

// Reset clears all lane state for a fresh minigame round.
func (r *LaneResolver) Reset(now time.Time) {
	r.slots = nil
	r.pending = ""
	r.pendingAt = time.Time{}
	r.consecutive = 0
	r.lastConfirmed = ""
	r.lastConfirmedAt = time.Time{}
	r.misses = 0
}

// Observe feeds one sampling tick's best arrow detection (nil when no
// arrow cleared its threshold). A symbol confirms on its second
// consecutive sighting and emits exactly one key press; a pending symbol
// whose deadline passes before confirmation is recorded as missed exactly
// once.
func (r *LaneResolver) Observe(now time.Time, m *MatchResult) {
	// Deadline check runs first so an expired symbol is not rescued by a
	// late re-detection on the same tick.
	if r.pending != "" && now.After(r.pendingAt.Add(r.deadline)) {
		r.expirePending()
	}

	if m == nil {
		// Detection gap: the debounce count restarts, but the pending
		// symbol stays armed until its deadline.
		r.consecutive = 0
		return
	}

	sym := laneSymbolFromTag(m.Tag)
	if sym == "" {
		r.consecutive = 0
		return
	}

	// Refractory period: the confirmed prompt lingers on screen for a few
	// frames after the press, do not treat it as a new prompt.
	if sym == r.lastConfirmed && now.Sub(r.lastConfirmedAt) < r.rearm {
		return
	}

	if sym != r.pending {
		r.pending = sym
		r.pendingAt = now
		r.consecutive = 1
		return
	}

	r.consecutive++
	if r.consecutive < 2 {
		return
	}

	// Confirmed: exactly one press, then rearm.
	r.slots = append(r.slots, LaneSlot{
		Symbol:    sym,
		FirstSeen: r.pendingAt,
		Deadline:  r.pendingAt.Add(r.deadline),
		Confirmed: true,
	})
	if err := r.emitter.Emit(Press(r.keys[sym])); err != nil {
		r.log.Error().Err(err).Str("symbol", string(sym)).Msg("lane key press failed")
	} else {
		r.log.Debug().Str("symbol", string(sym)).Msg("lane confirmed")
	}

	r.lastConfirmed = sym
	r.lastConfirmedAt = now
	r.pending = ""
	r.consecutive = 0
}

// expirePending records the current pending symbol as missed.
func (r *LaneResolver) expirePending() {
	r.slots = append(r.slots, LaneSlot{
		Symbol:    r.pending,
		FirstSeen: r.pendingAt,
		Deadline:  r.pendingAt.Add(r.deadline),
		Missed:    true,
	})
	r.misses++
	r.log.Debug().Str("symbol", string(r.pending)).Msg("lane deadline missed")
	r.pending = ""
	r.consecutive = 0
}

// Finish ends the round: a pending symbol whose deadline has already
// passed is recorded as a miss, then all lane state is discarded. Returns
// the round's final miss count. A pending symbol still within its
// deadline is dropped without an outcome.
func (r *LaneResolver) Finish(now time.Time) int {
	if r.pending != "" && now.After(r.pendingAt.Add(r.deadline)) {
		r.expirePending()
	}
	misses := r.misses
	r.Reset(now)
	return misses
}

// Misses returns the count of expired symbols this round.
func (r *LaneResolver) Misses() int { return r.misses }

// Sequence returns a copy of the resolved slots in sighting order.
func (r *LaneResolver) Sequence() []LaneSlot {
	out := make([]LaneSlot, len(r.slots))
	copy(out, r.slots)
	return out
}
