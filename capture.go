// Package main - capture.go
//
// Frame acquisition. A FrameSource captures a pixel region of the game
// window on demand; the screen-backed implementation locates the window,
// enforces the fixed reference resolution and retries transient capture
// failures a bounded number of times before surfacing a CaptureError.
package main

import (
	"fmt"
	"image"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"
)

// Frame is a rectangular pixel buffer captured from the game window.
// Region is expressed in reference coordinates (window-relative). A frame
// is immutable once captured and owned by the matching step that consumes
// it; it is not retained across ticks.
type Frame struct {
	Img        *image.RGBA
	Region     image.Rectangle
	CapturedAt time.Time

	gray []float64 // lazily built luma plane, see matcher.go
}

// CaptureError reports that the game window could not be captured. It is
// fatal to the current run: silently retrying against a missing window
// risks pressing input into the wrong target.
type CaptureError struct {
	Reason string
	Err    error
}

func (e *CaptureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capture failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("capture failed: %s", e.Reason)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// FrameSource captures a region of the target window on demand.
type FrameSource interface {
	// Capture returns a frame whose region matches the requested
	// reference coordinates exactly; no implicit scaling.
	Capture(region image.Rectangle) (*Frame, error)
}

// GameWindow is the located target window on screen.
type GameWindow struct {
	Title string
	PID   int
	Rect  image.Rectangle // screen coordinates
}

// FindGameWindow locates the game window by title and validates the
// boundary preconditions: present, on the primary display, and sized to
// the reference resolution.
func FindGameWindow(title string) (*GameWindow, error) {
	ids, err := robotgo.FindIds(title)
	if err != nil || len(ids) == 0 {
		return nil, &CaptureError{Reason: fmt.Sprintf("window %q not found", title), Err: err}
	}

	pid := ids[0]
	x, y, w, h := robotgo.GetBounds(pid)
	if w == 0 || h == 0 {
		return nil, &CaptureError{Reason: fmt.Sprintf("window %q is minimized or has no surface", title)}
	}
	if w != ReferenceWidth || h != ReferenceHeight {
		return nil, &CaptureError{
			Reason: fmt.Sprintf("window is %dx%d, must be %dx%d", w, h, ReferenceWidth, ReferenceHeight),
		}
	}

	rect := image.Rect(x, y, x+w, y+h)
	if screenshot.NumActiveDisplays() == 0 || !rect.In(screenshot.GetDisplayBounds(0)) {
		return nil, &CaptureError{Reason: "window is not fully on the primary display"}
	}

	return &GameWindow{Title: title, PID: pid, Rect: rect}, nil
}

// Activate brings the game window to the foreground so emitted input
// lands in it.
func (w *GameWindow) Activate() error {
	return robotgo.ActivePid(w.PID)
}

// ToScreen translates a point from reference coordinates to screen
// coordinates.
func (w *GameWindow) ToScreen(p image.Point) image.Point {
	return p.Add(w.Rect.Min)
}

// ScreenSource captures frames from the located game window using the
// display framebuffer. Capture is bounded: a few quick retries for
// transient compositor hiccups, then a CaptureError.
type ScreenSource struct {
	cfg     *Config
	window  *GameWindow
	retries int
	delay   time.Duration
}

// NewScreenSource returns an unattached screen source. Attach must
// succeed before Capture is usable.
func NewScreenSource(cfg *Config) *ScreenSource {
	return &ScreenSource{cfg: cfg, retries: 3, delay: 100 * time.Millisecond}
}

// Attach (re)locates the game window and activates it.
func (s *ScreenSource) Attach() error {
	w, err := FindGameWindow(s.cfg.WindowTitle)
	if err != nil {
		return err
	}
	if err := w.Activate(); err != nil {
		return &CaptureError{Reason: "could not activate game window", Err: err}
	}
	s.window = w
	return nil
}

// Window returns the attached window, nil before Attach.
func (s *ScreenSource) Window() *GameWindow { return s.window }

// Capture grabs the requested reference-coordinate region of the window.
func (s *ScreenSource) Capture(region image.Rectangle) (*Frame, error) {
	if s.window == nil {
		return nil, &CaptureError{Reason: "no game window attached"}
	}
	if !region.In(image.Rect(0, 0, ReferenceWidth, ReferenceHeight)) {
		return nil, &CaptureError{Reason: fmt.Sprintf("region %v outside reference bounds", region)}
	}

	screenRect := region.Add(s.window.Rect.Min)

	var lastErr error
	for i := 0; i < s.retries; i++ {
		img, err := screenshot.CaptureRect(screenRect)
		if err == nil {
			return &Frame{Img: img, Region: region, CapturedAt: time.Now()}, nil
		}
		lastErr = err
		time.Sleep(s.delay)
	}
	return nil, &CaptureError{Reason: "screenshot failed after retries", Err: lastErr}
}
