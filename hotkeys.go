// Package main - hotkeys.go
//
// Global hotkeys: start and stop work while the game has focus, without
// touching the tray. Runs on its own goroutine for the process lifetime.
package main

import (
	hook "github.com/robotn/gohook"
	"github.com/rs/zerolog/log"
)

// RunHotkeys registers the start/stop hotkeys and blocks processing
// events. Call under SafeGo.
func RunHotkeys(cfg *Config, ctrl *Controller) {
	hook.Register(hook.KeyDown, []string{cfg.Keys.StartKey}, func(e hook.Event) {
		log.Info().Str("key", cfg.Keys.StartKey).Msg("start hotkey")
		ctrl.OnStart()
	})
	hook.Register(hook.KeyDown, []string{cfg.Keys.StopKey}, func(e hook.Event) {
		log.Info().Str("key", cfg.Keys.StopKey).Msg("stop hotkey")
		ctrl.OnStop()
	})

	s := hook.Start()
	defer hook.End()
	<-hook.Process(s)
}
