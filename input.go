// Package main - input.go
//
// Input emission. Decisions produce InputCommand values; the emitter
// turns them into OS-level key and mouse events aimed at the attached
// game window. Keeping the command layer separate lets the state machine
// and lane resolver run against a recording fake in tests.
package main

import (
	"fmt"
	"image"
	"time"

	"github.com/go-vgo/robotgo"
)

// CommandKind enumerates the input primitives the bot uses.
type CommandKind int

const (
	CmdPress CommandKind = iota // tap a key
	CmdClick                    // left click at a reference point
	CmdHold                     // hold a key for a duration
)

func (k CommandKind) String() string {
	switch k {
	case CmdPress:
		return "press"
	case CmdClick:
		return "click"
	case CmdHold:
		return "hold"
	}
	return "unknown"
}

// InputCommand is one input action. X and Y are reference coordinates
// for clicks; Key and Duration apply to key commands.
type InputCommand struct {
	Kind     CommandKind
	Key      string
	X, Y     int
	Duration time.Duration
}

func (c InputCommand) String() string {
	switch c.Kind {
	case CmdClick:
		return fmt.Sprintf("click(%d,%d)", c.X, c.Y)
	case CmdHold:
		return fmt.Sprintf("hold(%s,%s)", c.Key, c.Duration)
	}
	return fmt.Sprintf("press(%s)", c.Key)
}

// Press builds a key tap command.
func Press(key string) InputCommand {
	return InputCommand{Kind: CmdPress, Key: key}
}

// Click builds a left-click command at a reference point.
func Click(x, y int) InputCommand {
	return InputCommand{Kind: CmdClick, X: x, Y: y}
}

// Hold builds a key hold command.
func Hold(key string, d time.Duration) InputCommand {
	return InputCommand{Kind: CmdHold, Key: key, Duration: d}
}

// InputEmitter delivers input commands to the game.
type InputEmitter interface {
	Emit(cmd InputCommand) error
}

// RobotgoEmitter sends real OS input. Clicks are translated from
// reference to screen coordinates through the attached window.
type RobotgoEmitter struct {
	window *GameWindow
}

// NewRobotgoEmitter returns an emitter bound to the located window.
func NewRobotgoEmitter(window *GameWindow) *RobotgoEmitter {
	return &RobotgoEmitter{window: window}
}

// Rebind points the emitter at a freshly located window, used after a
// recovery re-attach.
func (e *RobotgoEmitter) Rebind(window *GameWindow) {
	e.window = window
}

// Emit executes one command against the game window.
func (e *RobotgoEmitter) Emit(cmd InputCommand) error {
	switch cmd.Kind {
	case CmdPress:
		return robotgo.KeyTap(cmd.Key)

	case CmdHold:
		if err := robotgo.KeyDown(cmd.Key); err != nil {
			return err
		}
		robotgo.MilliSleep(int(cmd.Duration.Milliseconds()))
		return robotgo.KeyUp(cmd.Key)

	case CmdClick:
		if e.window == nil {
			return fmt.Errorf("no window bound for click")
		}
		p := e.window.ToScreen(image.Pt(cmd.X, cmd.Y))
		robotgo.Move(p.X, p.Y)
		// Small settle so the game registers the cursor before the press.
		robotgo.MilliSleep(20)
		robotgo.Click("left", false)
		return nil
	}
	return fmt.Errorf("unknown command kind %d", cmd.Kind)
}
