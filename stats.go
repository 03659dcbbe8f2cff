// Package main - stats.go
//
// Session statistics. The state machine is the only writer; the tray and
// status feed read concurrent snapshots. Counters never decrease within a
// session and reset only on session start.
package main

import (
	"sync"
	"time"
)

// SessionStats accumulates catch outcomes for the current session.
type SessionStats struct {
	mu         sync.RWMutex
	catchCount int
	missCount  int
	rodsBroken int
	xp         int
	perFish    map[string]int
	startedAt  time.Time
	lastCatch  time.Time
}

// SessionStatsView is a read-only copy handed to the overlay surface.
type SessionStatsView struct {
	CatchCount   int
	MissCount    int
	RodsBroken   int
	XP           int
	PerFish      map[string]int
	SessionStart time.Time
	LastCatch    time.Time
	CatchRate    float64 // catches / (catches+misses) * 100
	Elapsed      time.Duration
}

// NewSessionStats returns zeroed stats anchored at now.
func NewSessionStats() *SessionStats {
	return &SessionStats{
		perFish:   make(map[string]int),
		startedAt: time.Now(),
	}
}

// Reset zeroes all counters for a new session starting at now.
func (s *SessionStats) Reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catchCount = 0
	s.missCount = 0
	s.rodsBroken = 0
	s.xp = 0
	s.perFish = make(map[string]int)
	s.startedAt = now
	s.lastCatch = time.Time{}
}

// RecordCatch registers one successful catch of the given fish type and
// its XP value. Increments catch count and the per-type tally by exactly
// one each.
func (s *SessionStats) RecordCatch(fishType string, xpDelta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catchCount++
	s.perFish[fishType]++
	s.xp += xpDelta
	s.lastCatch = time.Now()
}

// RecordFail registers a failed catch (escaped fish or reel timeout).
func (s *SessionStats) RecordFail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missCount++
}

// RecordBrokenRod registers a rod break handled during casting.
func (s *SessionStats) RecordBrokenRod() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rodsBroken++
}

// Snapshot returns a consistent read-only copy of the stats.
func (s *SessionStats) Snapshot() SessionStatsView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	perFish := make(map[string]int, len(s.perFish))
	for k, v := range s.perFish {
		perFish[k] = v
	}

	rate := 0.0
	if total := s.catchCount + s.missCount; total > 0 {
		rate = float64(s.catchCount) / float64(total) * 100.0
	}

	return SessionStatsView{
		CatchCount:   s.catchCount,
		MissCount:    s.missCount,
		RodsBroken:   s.rodsBroken,
		XP:           s.xp,
		PerFish:      perFish,
		SessionStart: s.startedAt,
		LastCatch:    s.lastCatch,
		CatchRate:    rate,
		Elapsed:      time.Since(s.startedAt),
	}
}
