// Package main - config.go
//
// Bot configuration. Every empirically tuned value (match thresholds,
// settle/cooldown delays, dwell budgets, keybinds) lives here rather than
// in control logic, so recognition can be retuned against live captures by
// editing data.json instead of rebuilding.
package main

import (
	"image"
	"sync"
)

// Reference resolution the template assets were captured at. The game
// window must be exactly this size; FrameSource refuses anything else.
const (
	ReferenceWidth  = 1920
	ReferenceHeight = 1080
)

// Template tags the perception layer knows about.
const (
	TagDefaultScreen = "default_screen"
	TagBiteIndicator = "bite_indicator"
	TagBrokenPole    = "broken_pole"
	TagUseRod        = "use_rod"
	TagArrowUp       = "arrow_up"
	TagArrowDown     = "arrow_down"
	TagArrowLeft     = "arrow_left"
	TagArrowRight    = "arrow_right"
	TagReactionDone  = "reaction_done"
	TagCatchSuccess  = "catch_success"
	TagCatchFail     = "catch_fail"
	TagContinue      = "continue_button"
	TagContinueHigh  = "continue_highlighted"
	TagExit          = "exit_button"
)

// Keybinds holds the keys the bot listens on and presses. Names follow
// robotgo/gohook key naming.
type Keybinds struct {
	StartKey string `json:"start_key"` // global hotkey: start session
	StopKey  string `json:"stop_key"`  // global hotkey: stop session
	RodsKey  string `json:"rods_key"`  // open rod selection after a break
	EscKey   string `json:"esc_key"`   // dismiss stray dialogs in recovery
	UpKey    string `json:"up_key"`
	DownKey  string `json:"down_key"`
	LeftKey  string `json:"left_key"`
	RightKey string `json:"right_key"`
}

// Config is the tunable surface of the bot. All durations are stored in
// milliseconds for data.json friendliness. Fields are written only at load
// time or through the setter methods; concurrent readers go through the
// accessors.
type Config struct {
	mu sync.RWMutex

	WindowTitle  string `json:"window_title"`
	TemplateDir  string `json:"template_dir"`
	TickInterval int    `json:"tick_interval_ms"` // sampling loop period
	MatchStride  int    `json:"match_stride"`     // template pixel sampling step during NCC scans

	// Per-tag match thresholds with a "default" fallback.
	Thresholds map[string]float64 `json:"thresholds"`

	// State machine timing (ms).
	SettleDelay        int `json:"settle_delay_ms"`         // Casting -> AwaitingBite
	CatchCooldown      int `json:"catch_cooldown_ms"`       // CatchResolved -> Casting
	ReactionBudget     int `json:"reaction_budget_ms"`      // max ReactionGame dwell
	ReelBudget         int `json:"reel_budget_ms"`          // max Reeling dwell, timeout counts as fail
	NoProgressBudget   int `json:"no_progress_budget_ms"`   // watchdog before entering Recovering
	RecoveryRetryDelay int `json:"recovery_retry_delay_ms"` // spacing between recovery attempts
	MaxRecoveryRetries int `json:"max_recovery_retries"`

	// Reaction minigame lane timing (ms).
	LaneDeadline   int `json:"lane_deadline_ms"`    // per-symbol input deadline from first sighting
	LaneRearmDelay int `json:"lane_rearm_delay_ms"` // refractory period after a confirmed symbol

	// Where the cast click lands, in reference coordinates.
	CastPoint image.Point `json:"cast_point"`
	// Offset from an exit_button match center to the continue-equivalent
	// control. The two buttons render in fixed slots at 1920x1080.
	ContinueOffset image.Point `json:"continue_offset"`

	Keys Keybinds `json:"keys"`

	DebugSnapshots bool `json:"debug_snapshots"`
}

// DefaultConfig returns the configuration tuned against live captures.
func DefaultConfig() *Config {
	return &Config{
		WindowTitle:  "Star Resonance",
		TemplateDir:  "images/1920x1080",
		TickInterval: 50,
		MatchStride:  2,
		Thresholds: map[string]float64{
			"default":        0.70,
			TagBiteIndicator: 0.80,
			TagArrowUp:       0.80,
			TagArrowDown:     0.80,
			TagArrowLeft:     0.80,
			TagArrowRight:    0.80,
			TagContinue:      0.80,
			TagContinueHigh:  0.80,
			TagExit:          0.80,
			TagDefaultScreen: 0.90,
			TagBrokenPole:    0.90,
			TagUseRod:        0.90,
			TagCatchSuccess:  0.90,
			TagCatchFail:     0.90,
		},
		SettleDelay:        1000,
		CatchCooldown:      1500,
		ReactionBudget:     30000,
		ReelBudget:         15000,
		NoProgressBudget:   45000,
		RecoveryRetryDelay: 1000,
		MaxRecoveryRetries: 5,
		LaneDeadline:       1200,
		LaneRearmDelay:     300,
		CastPoint:          image.Pt(ReferenceWidth/2, ReferenceHeight/2),
		ContinueOffset:     image.Pt(-420, 0),
		Keys: Keybinds{
			StartKey: "f9",
			StopKey:  "f10",
			RodsKey:  "r",
			EscKey:   "esc",
			UpKey:    "up",
			DownKey:  "down",
			LeftKey:  "left",
			RightKey: "right",
		},
	}
}

// ThresholdFor returns the match threshold for a template tag, falling
// back to the "default" entry.
func (c *Config) ThresholdFor(tag string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.Thresholds[tag]; ok {
		return v
	}
	return c.Thresholds["default"]
}

// SetDebugSnapshots toggles per-tick detection snapshot dumps. Safe to
// call from the tray goroutine while the sampling loop runs.
func (c *Config) SetDebugSnapshots(enabled bool) {
	c.mu.Lock()
	c.DebugSnapshots = enabled
	c.mu.Unlock()
}

// DebugSnapshotsEnabled reports whether snapshot dumps are on.
func (c *Config) DebugSnapshotsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.DebugSnapshots
}

// normalize fills any zero-valued field with its default, so a sparse or
// hand-edited data.json still yields a runnable configuration.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.WindowTitle == "" {
		c.WindowTitle = def.WindowTitle
	}
	if c.TemplateDir == "" {
		c.TemplateDir = def.TemplateDir
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.MatchStride <= 0 {
		c.MatchStride = def.MatchStride
	}
	if len(c.Thresholds) == 0 {
		c.Thresholds = def.Thresholds
	}
	if _, ok := c.Thresholds["default"]; !ok {
		c.Thresholds["default"] = def.Thresholds["default"]
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = def.SettleDelay
	}
	if c.CatchCooldown <= 0 {
		c.CatchCooldown = def.CatchCooldown
	}
	if c.ReactionBudget <= 0 {
		c.ReactionBudget = def.ReactionBudget
	}
	if c.ReelBudget <= 0 {
		c.ReelBudget = def.ReelBudget
	}
	if c.NoProgressBudget <= 0 {
		c.NoProgressBudget = def.NoProgressBudget
	}
	if c.RecoveryRetryDelay <= 0 {
		c.RecoveryRetryDelay = def.RecoveryRetryDelay
	}
	if c.MaxRecoveryRetries <= 0 {
		c.MaxRecoveryRetries = def.MaxRecoveryRetries
	}
	if c.LaneDeadline <= 0 {
		c.LaneDeadline = def.LaneDeadline
	}
	if c.LaneRearmDelay <= 0 {
		c.LaneRearmDelay = def.LaneRearmDelay
	}
	if c.CastPoint == (image.Point{}) {
		c.CastPoint = def.CastPoint
	}
	if c.ContinueOffset == (image.Point{}) {
		c.ContinueOffset = def.ContinueOffset
	}
	if c.Keys.StartKey == "" {
		c.Keys.StartKey = def.Keys.StartKey
	}
	if c.Keys.StopKey == "" {
		c.Keys.StopKey = def.Keys.StopKey
	}
	if c.Keys.RodsKey == "" {
		c.Keys.RodsKey = def.Keys.RodsKey
	}
	if c.Keys.EscKey == "" {
		c.Keys.EscKey = def.Keys.EscKey
	}
	if c.Keys.UpKey == "" {
		c.Keys.UpKey = def.Keys.UpKey
	}
	if c.Keys.DownKey == "" {
		c.Keys.DownKey = def.Keys.DownKey
	}
	if c.Keys.LeftKey == "" {
		c.Keys.LeftKey = def.Keys.LeftKey
	}
	if c.Keys.RightKey == "" {
		c.Keys.RightKey = def.Keys.RightKey
	}
}
