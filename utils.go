// Package main - utils.go
//
// Small helpers shared across the bot: performance timing, panic-safe
// goroutines and formatting.
package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Timer provides performance timing functionality for loop diagnostics.
type Timer struct {
	name      string
	startTime time.Time
}

// NewTimer creates and starts a new timer with the given name.
func NewTimer(name string) *Timer {
	return &Timer{name: name, startTime: time.Now()}
}

// Elapsed returns the elapsed time since timer creation.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.startTime)
}

// Log logs the elapsed time with the timer name at debug level.
func (t *Timer) Log() {
	log.Debug().Str("timer", t.name).Dur("elapsed", t.Elapsed()).Msg("timer")
}

// FormatDuration formats a duration into a human-readable string like
// "1h 12m 3s", used by the tray status line.
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// msDur converts a millisecond config value to a time.Duration.
func msDur(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// SafeGo runs a function in a goroutine with panic recovery. A panic in a
// background worker must not take down the whole bot.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("panic recovered in goroutine")
			}
		}()
		fn()
	}()
}
