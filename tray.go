// Package main - tray.go
//
// System tray surface: live status line, start/stop, the debug snapshot
// toggle and quit. The tray is the process's main loop; quitting it shuts
// the bot down.
package main

import (
	"fmt"
	"time"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog/log"
)

// TrayApp owns the tray menu and its update loop.
type TrayApp struct {
	cfg    *Config
	ctrl   *Controller
	onQuit func()
}

// NewTrayApp builds the tray surface. onQuit runs when the user picks
// Quit, before the process exits.
func NewTrayApp(cfg *Config, ctrl *Controller, onQuit func()) *TrayApp {
	return &TrayApp{cfg: cfg, ctrl: ctrl, onQuit: onQuit}
}

// Run blocks until the tray exits.
func (t *TrayApp) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit tears the tray down, which ends Run and triggers the exit hook.
func (t *TrayApp) Quit() {
	systray.Quit()
}

func (t *TrayApp) onReady() {
	systray.SetTitle("Fishing Bot")
	systray.SetTooltip("Fishing Bot")

	status := systray.AddMenuItem("idle", "Current state")
	status.Disable()
	statsLine := systray.AddMenuItem("no session", "Session statistics")
	statsLine.Disable()
	systray.AddSeparator()

	start := systray.AddMenuItem(fmt.Sprintf("Start (%s)", t.cfg.Keys.StartKey), "Start fishing")
	stop := systray.AddMenuItem(fmt.Sprintf("Stop (%s)", t.cfg.Keys.StopKey), "Stop fishing")
	systray.AddSeparator()

	snaps := systray.AddMenuItemCheckbox("Debug snapshots", "Dump annotated detection frames", t.cfg.DebugSnapshotsEnabled())
	systray.AddSeparator()
	quit := systray.AddMenuItem("Quit", "Exit the bot")

	SafeGo(func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			view := t.ctrl.CurrentStatus()
			status.SetTitle(statusTitle(view))
			statsLine.SetTitle(statsTitle(view.Stats))
		}
	})

	SafeGo(func() {
		for {
			select {
			case <-start.ClickedCh:
				t.ctrl.OnStart()
			case <-stop.ClickedCh:
				t.ctrl.OnStop()
			case <-snaps.ClickedCh:
				if snaps.Checked() {
					snaps.Uncheck()
					t.cfg.SetDebugSnapshots(false)
				} else {
					snaps.Check()
					t.cfg.SetDebugSnapshots(true)
				}
			case <-quit.ClickedCh:
				systray.Quit()
				return
			}
		}
	})
}

func (t *TrayApp) onExit() {
	log.Info().Msg("tray exiting")
	t.ctrl.OnStop()
	if t.onQuit != nil {
		t.onQuit()
	}
}

func statusTitle(v StatusView) string {
	if v.Fatal != "" {
		return fmt.Sprintf("error: %s", v.Fatal)
	}
	if !v.Running {
		return "idle"
	}
	return v.State
}

func statsTitle(s SessionStatsView) string {
	if s.CatchCount == 0 && s.MissCount == 0 {
		return "no catches yet"
	}
	return fmt.Sprintf("%d caught, %d missed, %d xp, %s",
		s.CatchCount, s.MissCount, s.XP, FormatDuration(s.Elapsed))
}
