// Package main - lanes_test.go
package main

import (
	"image"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestResolver(em InputEmitter) *LaneResolver {
	return NewLaneResolver(DefaultConfig(), em, zerolog.Nop())
}

func arrowMatch(tag string) *MatchResult {
	return &MatchResult{Tag: tag, Confidence: 0.9, Bounds: image.Rect(900, 500, 960, 560)}
}

func TestLaneConfirmsOnSecondConsecutiveSample(t *testing.T) {
	em := &fakeEmitter{}
	r := newTestResolver(em)
	base := time.Unix(1000, 0)
	r.Reset(base)

	r.Observe(base, arrowMatch(TagArrowUp))
	if got := em.presses(); len(got) != 0 {
		t.Fatalf("pressed after one sighting: %v", got)
	}

	r.Observe(base.Add(50*time.Millisecond), arrowMatch(TagArrowUp))
	got := em.presses()
	if len(got) != 1 || got[0].Key != "up" {
		t.Fatalf("presses after confirmation = %v, want one up", got)
	}

	// The prompt lingers a few frames; no second press.
	r.Observe(base.Add(100*time.Millisecond), arrowMatch(TagArrowUp))
	r.Observe(base.Add(150*time.Millisecond), arrowMatch(TagArrowUp))
	if got := em.presses(); len(got) != 1 {
		t.Errorf("lingering prompt re-pressed: %v", got)
	}
}

func TestLaneDetectionGapKeepsPendingUntilDeadline(t *testing.T) {
	em := &fakeEmitter{}
	r := newTestResolver(em)
	base := time.Unix(1000, 0)
	r.Reset(base)

	r.Observe(base, arrowMatch(TagArrowLeft))
	r.Observe(base.Add(50*time.Millisecond), nil) // flicker
	r.Observe(base.Add(100*time.Millisecond), arrowMatch(TagArrowLeft))
	if got := em.presses(); len(got) != 0 {
		t.Fatalf("single post-gap sighting confirmed: %v", got)
	}
	r.Observe(base.Add(150*time.Millisecond), arrowMatch(TagArrowLeft))
	got := em.presses()
	if len(got) != 1 || got[0].Key != "left" {
		t.Errorf("presses = %v, want one left", got)
	}
}

func TestLaneDeadlineMissRecordedOnce(t *testing.T) {
	em := &fakeEmitter{}
	r := newTestResolver(em)
	base := time.Unix(1000, 0)
	r.Reset(base)

	r.Observe(base, arrowMatch(TagArrowDown))
	// Past the per-symbol deadline with no confirmation.
	r.Observe(base.Add(2*time.Second), nil)
	if r.Misses() != 1 {
		t.Fatalf("misses = %d, want 1", r.Misses())
	}
	r.Observe(base.Add(3*time.Second), nil)
	r.Observe(base.Add(4*time.Second), nil)
	if r.Misses() != 1 {
		t.Errorf("miss recorded more than once: %d", r.Misses())
	}
	if got := em.presses(); len(got) != 0 {
		t.Errorf("expired symbol still pressed: %v", got)
	}

	seq := r.Sequence()
	if len(seq) != 1 || !seq[0].Missed || seq[0].Symbol != LaneDown {
		t.Errorf("sequence = %+v, want one missed down slot", seq)
	}
}

func TestLaneEmitsInSightingOrder(t *testing.T) {
	em := &fakeEmitter{}
	r := newTestResolver(em)
	base := time.Unix(1000, 0)
	r.Reset(base)

	r.Observe(base, arrowMatch(TagArrowUp))
	r.Observe(base.Add(50*time.Millisecond), arrowMatch(TagArrowUp))
	// Next prompt arrives after the rearm window.
	t2 := base.Add(500 * time.Millisecond)
	r.Observe(t2, arrowMatch(TagArrowRight))
	r.Observe(t2.Add(50*time.Millisecond), arrowMatch(TagArrowRight))

	got := em.presses()
	if len(got) != 2 || got[0].Key != "up" || got[1].Key != "right" {
		t.Fatalf("presses = %v, want [up right]", got)
	}

	seq := r.Sequence()
	if len(seq) != 2 || seq[0].Symbol != LaneUp || seq[1].Symbol != LaneRight {
		t.Errorf("sequence order = %+v, want up then right", seq)
	}
}

func TestLaneSymbolSwitchRestartsDebounce(t *testing.T) {
	em := &fakeEmitter{}
	r := newTestResolver(em)
	base := time.Unix(1000, 0)
	r.Reset(base)

	r.Observe(base, arrowMatch(TagArrowUp))
	r.Observe(base.Add(50*time.Millisecond), arrowMatch(TagArrowDown))
	if got := em.presses(); len(got) != 0 {
		t.Fatalf("symbol switch confirmed prematurely: %v", got)
	}
	r.Observe(base.Add(100*time.Millisecond), arrowMatch(TagArrowDown))
	got := em.presses()
	if len(got) != 1 || got[0].Key != "down" {
		t.Errorf("presses = %v, want one down", got)
	}
}

func TestLaneFinishExpiresOverduePendingSymbol(t *testing.T) {
	em := &fakeEmitter{}
	r := newTestResolver(em)
	base := time.Unix(1000, 0)
	r.Reset(base)

	r.Observe(base, arrowMatch(TagArrowUp))
	// The round ends after the pending symbol's deadline passed without
	// confirmation: that slot is a miss, counted exactly once.
	if got := r.Finish(base.Add(2 * time.Second)); got != 1 {
		t.Fatalf("final misses = %d, want 1", got)
	}
	if len(r.Sequence()) != 0 {
		t.Errorf("lane state survived finish: %+v", r.Sequence())
	}
	if r.Misses() != 0 {
		t.Errorf("misses not cleared for next round: %d", r.Misses())
	}
}

func TestLaneFinishDropsInFlightPendingWithoutOutcome(t *testing.T) {
	em := &fakeEmitter{}
	r := newTestResolver(em)
	base := time.Unix(1000, 0)
	r.Reset(base)

	r.Observe(base, arrowMatch(TagArrowRight))
	// Round ends while the symbol is still within its deadline.
	if got := r.Finish(base.Add(100 * time.Millisecond)); got != 0 {
		t.Errorf("final misses = %d, want 0", got)
	}
	if got := em.presses(); len(got) != 0 {
		t.Errorf("finish emitted input: %v", got)
	}
}

func TestLaneSameSymbolAfterRearmConfirmsAgain(t *testing.T) {
	em := &fakeEmitter{}
	r := newTestResolver(em)
	base := time.Unix(1000, 0)
	r.Reset(base)

	r.Observe(base, arrowMatch(TagArrowUp))
	r.Observe(base.Add(50*time.Millisecond), arrowMatch(TagArrowUp))

	// A genuinely new up prompt, well past the refractory period.
	t2 := base.Add(time.Second)
	r.Observe(t2, arrowMatch(TagArrowUp))
	r.Observe(t2.Add(50*time.Millisecond), arrowMatch(TagArrowUp))

	got := em.presses()
	if len(got) != 2 || got[0].Key != "up" || got[1].Key != "up" {
		t.Errorf("presses = %v, want two up", got)
	}
}
