// Package main - debug.go
//
// Detection snapshots for threshold tuning. When enabled from the tray,
// each tick that produced detections is dumped as a half-scale PNG with
// match rectangles burned in.
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

var snapshotOutline = color.RGBA{R: 255, G: 40, B: 40, A: 255}

// SnapshotWriter dumps annotated detection frames to a directory.
type SnapshotWriter struct {
	dir string
}

// NewSnapshotWriter returns a writer targeting dir, created on first use.
func NewSnapshotWriter(dir string) *SnapshotWriter {
	return &SnapshotWriter{dir: dir}
}

// Write saves the frame with match rectangles drawn on it, downscaled to
// half size. Failures are logged and swallowed; snapshots are a tuning
// aid, not part of the control path.
func (w *SnapshotWriter) Write(f *Frame, matches []MatchResult) {
	if f == nil || len(matches) == 0 {
		return
	}

	annotated := cloneRGBA(f.Img)
	for _, m := range matches {
		r := m.Bounds.Sub(f.Region.Min)
		drawRect(annotated, r, snapshotOutline)
	}

	half := image.NewRGBA(image.Rect(0, 0, annotated.Bounds().Dx()/2, annotated.Bounds().Dy()/2))
	draw.ApproxBiLinear.Scale(half, half.Bounds(), annotated, annotated.Bounds(), draw.Src, nil)

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		log.Error().Err(err).Msg("snapshot dir create failed")
		return
	}
	name := fmt.Sprintf("detect_%s.png", f.CapturedAt.Format("20060102_150405.000"))
	out, err := os.Create(filepath.Join(w.dir, name))
	if err != nil {
		log.Error().Err(err).Msg("snapshot create failed")
		return
	}
	defer out.Close()
	if err := png.Encode(out, half); err != nil {
		log.Error().Err(err).Msg("snapshot encode failed")
	}
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// drawRect draws a one-pixel rectangle outline clipped to the image.
func drawRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}
