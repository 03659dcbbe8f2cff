// Package main - config_test.go
package main

import (
	"testing"
)

func TestThresholdForFallsBackToDefault(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.ThresholdFor(TagCatchSuccess); got != 0.90 {
		t.Errorf("catch_success threshold = %.2f, want 0.90", got)
	}
	if got := cfg.ThresholdFor(TagArrowUp); got != 0.80 {
		t.Errorf("arrow threshold = %.2f, want 0.80", got)
	}
	if got := cfg.ThresholdFor("some_new_template"); got != 0.70 {
		t.Errorf("unknown tag threshold = %.2f, want default 0.70", got)
	}
}

func TestNormalizeFillsZeroFields(t *testing.T) {
	cfg := &Config{WindowTitle: "Custom Title", TickInterval: 25}
	cfg.normalize()

	def := DefaultConfig()
	if cfg.WindowTitle != "Custom Title" {
		t.Errorf("explicit value overwritten: %q", cfg.WindowTitle)
	}
	if cfg.TickInterval != 25 {
		t.Errorf("explicit tick interval overwritten: %d", cfg.TickInterval)
	}
	if cfg.SettleDelay != def.SettleDelay {
		t.Errorf("settle delay = %d, want default %d", cfg.SettleDelay, def.SettleDelay)
	}
	if cfg.MaxRecoveryRetries != def.MaxRecoveryRetries {
		t.Errorf("max retries = %d, want default %d", cfg.MaxRecoveryRetries, def.MaxRecoveryRetries)
	}
	if cfg.Keys.StartKey != def.Keys.StartKey {
		t.Errorf("start key = %q, want default %q", cfg.Keys.StartKey, def.Keys.StartKey)
	}
	if _, ok := cfg.Thresholds["default"]; !ok {
		t.Error("default threshold entry missing after normalize")
	}
	if cfg.CastPoint != def.CastPoint {
		t.Errorf("cast point = %v, want default %v", cfg.CastPoint, def.CastPoint)
	}
}

func TestDebugSnapshotToggle(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DebugSnapshotsEnabled() {
		t.Fatal("snapshots on by default")
	}
	cfg.SetDebugSnapshots(true)
	if !cfg.DebugSnapshotsEnabled() {
		t.Error("toggle on did not stick")
	}
	cfg.SetDebugSnapshots(false)
	if cfg.DebugSnapshotsEnabled() {
		t.Error("toggle off did not stick")
	}
}
