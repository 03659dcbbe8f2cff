// Package main - controller_test.go
package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type controllerFixture struct {
	cfg    *Config
	source *fakeSource
	em     *fakeEmitter
	ctrl   *Controller
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()
	cfg := DefaultConfig()
	cfg.TickInterval = 10

	em := &fakeEmitter{}
	stats := NewSessionStats()
	lanes := NewLaneResolver(cfg, em, zerolog.Nop())
	machine := NewFishingStateMachine(cfg, em, stats, lanes, nil, nil, zerolog.Nop())
	source := &fakeSource{}

	ctrl := NewController(cfg, source, NewTemplateMatcher(cfg.MatchStride), NewTemplateLibrary(), machine, stats, zerolog.Nop())
	ctrl.sessionsPath = filepath.Join(t.TempDir(), "sessions.json")

	return &controllerFixture{cfg: cfg, source: source, em: em, ctrl: ctrl}
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached: %s", msg)
}

func TestControllerStartStopLifecycle(t *testing.T) {
	fx := newControllerFixture(t)

	fx.ctrl.OnStart()
	if !fx.ctrl.Running() {
		t.Fatal("not running after start")
	}

	waitFor(t, time.Second, func() bool {
		return fx.source.captureCount() > 2
	}, "sampling loop ticking")

	if got := fx.ctrl.CurrentStatus().State; got != "casting" {
		t.Errorf("state = %q, want casting", got)
	}

	fx.ctrl.OnStop()
	if fx.ctrl.Running() {
		t.Fatal("still running after stop")
	}
	if got := fx.ctrl.CurrentStatus().State; got != "idle" {
		t.Errorf("state after stop = %q, want idle", got)
	}

	// Loop is gone: capture count settles.
	n := fx.source.captureCount()
	time.Sleep(50 * time.Millisecond)
	if fx.source.captureCount() != n {
		t.Error("sampling loop survived stop")
	}
}

func TestControllerRepeatedStartIsNoop(t *testing.T) {
	fx := newControllerFixture(t)

	fx.ctrl.OnStart()
	fx.ctrl.OnStart()
	fx.ctrl.OnStart()

	waitFor(t, time.Second, func() bool {
		return fx.source.captureCount() > 0
	}, "sampling loop ticking")

	fx.ctrl.OnStop()
	fx.ctrl.OnStop()
	if fx.ctrl.Running() {
		t.Error("running after stop")
	}
}

func TestControllerCaptureFailureGoesFatal(t *testing.T) {
	fx := newControllerFixture(t)
	fx.source.err = &CaptureError{Reason: "window gone"}

	fx.ctrl.OnStart()

	waitFor(t, time.Second, func() bool {
		return !fx.ctrl.Running()
	}, "loop exits after capture failure")

	status := fx.ctrl.CurrentStatus()
	if status.State != "idle" {
		t.Errorf("state = %q, want idle", status.State)
	}
	if status.Fatal == "" {
		t.Error("fatal not surfaced in status")
	}
}

func TestControllerStatusCarriesStats(t *testing.T) {
	fx := newControllerFixture(t)

	fx.ctrl.OnStart()
	waitFor(t, time.Second, func() bool {
		return fx.source.captureCount() > 0
	}, "sampling loop ticking")
	fx.ctrl.OnStop()

	status := fx.ctrl.CurrentStatus()
	if status.Stats.CatchCount != 0 || status.Stats.MissCount != 0 {
		t.Errorf("fresh session stats = %+v, want zeroes", status.Stats)
	}
	if status.Stats.SessionStart.IsZero() {
		t.Error("session start not stamped")
	}
}
