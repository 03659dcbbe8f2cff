// Package main - helpers_test.go
//
// Shared test fixtures: synthetic frames and templates, recording fakes
// for the emitter, frame source and fish identifier.
package main

import (
	"image"
	"image/color"
	"sync"
	"time"
)

// noisePattern returns a small deterministic high-variance pattern. It
// is aperiodic, so shifted copies of it do not correlate with each other.
func noisePattern(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*97 + y*53 + x*y*29) % 251)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// flatFrame returns a frame of the given region filled with a uniform
// gray.
func flatFrame(region image.Rectangle, v uint8) *Frame {
	img := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = v
		img.Pix[i+1] = v
		img.Pix[i+2] = v
		img.Pix[i+3] = 255
	}
	return &Frame{Img: img, Region: region, CapturedAt: time.Unix(1000, 0)}
}

// stamp copies a pattern into the frame at the given frame-local offset.
func stamp(f *Frame, pat *image.RGBA, at image.Point) {
	b := pat.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			f.Img.SetRGBA(at.X+x, at.Y+y, pat.RGBAAt(x, y))
		}
	}
	f.gray = nil
}

// fakeEmitter records every command it is handed.
type fakeEmitter struct {
	mu   sync.Mutex
	cmds []InputCommand
	err  error
}

func (e *fakeEmitter) Emit(cmd InputCommand) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cmds = append(e.cmds, cmd)
	return e.err
}

func (e *fakeEmitter) commands() []InputCommand {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]InputCommand, len(e.cmds))
	copy(out, e.cmds)
	return out
}

// presses returns only the key-press commands.
func (e *fakeEmitter) presses() []InputCommand {
	var out []InputCommand
	for _, c := range e.commands() {
		if c.Kind == CmdPress {
			out = append(out, c)
		}
	}
	return out
}

// clicks returns only the click commands.
func (e *fakeEmitter) clicks() []InputCommand {
	var out []InputCommand
	for _, c := range e.commands() {
		if c.Kind == CmdClick {
			out = append(out, c)
		}
	}
	return out
}

// fixedIdentifier always reports the same fish.
type fixedIdentifier struct {
	name string
	conf float64
}

func (f *fixedIdentifier) Identify(*Frame) (string, float64) {
	return f.name, f.conf
}

// fakeSource serves a canned frame or error.
type fakeSource struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (s *fakeSource) Capture(region image.Rectangle) (*Frame, error) {
	s.mu.Lock()
	s.calls++
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return flatFrame(region, 100), nil
}

func (s *fakeSource) captureCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// obsWith builds an observation whose detections carry the given tags at
// a fixed location.
func obsWith(tags ...string) Observation {
	var ms []MatchResult
	for _, tag := range tags {
		ms = append(ms, MatchResult{
			Tag:        tag,
			Confidence: 0.95,
			Bounds:     image.Rect(100, 100, 140, 140),
		})
	}
	return Observation{Frame: flatFrame(image.Rect(0, 0, 200, 200), 100), Matches: ms}
}

// obsAt builds a single-detection observation with explicit bounds.
func obsAt(tag string, bounds image.Rectangle) Observation {
	return Observation{
		Frame: flatFrame(image.Rect(0, 0, 200, 200), 100),
		Matches: []MatchResult{
			{Tag: tag, Confidence: 0.95, Bounds: bounds},
		},
	}
}
