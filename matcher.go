// Package main - matcher.go
//
// Template matching over captured frames. Scores are zero-mean normalized
// cross-correlation on the grayscale plane, which makes them robust to
// uniform brightness shifts and comparable across templates. Matching is
// pure computation: same frame and candidates in, same result out.
package main

import (
	"image"
	"math"
	"time"
)

// MatchResult is one accepted template detection. Bounds are in reference
// coordinates regardless of which sub-region was scanned.
type MatchResult struct {
	Tag        string
	Confidence float64
	Bounds     image.Rectangle
	At         time.Time
}

// Center returns the center point of the match bounds.
func (m *MatchResult) Center() image.Point {
	return image.Pt((m.Bounds.Min.X+m.Bounds.Max.X)/2, (m.Bounds.Min.Y+m.Bounds.Max.Y)/2)
}

// TemplateMatcher scans frames for template occurrences. Every candidate
// position is evaluated; the stride thins the template pixels sampled
// during the scan, and the winning position is rescored against the full
// template. Skipping scan positions instead would let a peak at an
// off-grid offset go unseen entirely.
type TemplateMatcher struct {
	stride int
}

// NewTemplateMatcher returns a matcher sampling every stride-th template
// pixel during the scan. Stride one scores at full resolution throughout.
func NewTemplateMatcher(stride int) *TemplateMatcher {
	if stride < 1 {
		stride = 1
	}
	return &TemplateMatcher{stride: stride}
}

// MatchBest scores every candidate against the frame and returns the best
// detection that clears its own template's threshold, or nil when none
// does. Ties go to the earlier candidate, so callers encode priority in
// the order they pass.
func (m *TemplateMatcher) MatchBest(f *Frame, candidates []*Template) *MatchResult {
	var best *MatchResult
	for _, t := range candidates {
		score, at := m.Score(f, t)
		if score < t.Threshold {
			continue
		}
		if best == nil || score > best.Confidence {
			best = &MatchResult{
				Tag:        t.Tag,
				Confidence: score,
				Bounds:     image.Rect(at.X, at.Y, at.X+t.W, at.Y+t.H),
				At:         f.CapturedAt,
			}
		}
	}
	return best
}

// MatchAll returns every candidate that clears its threshold, in candidate
// order. Used by the sampling loop to hand the state machine a full
// observation per tick.
func (m *TemplateMatcher) MatchAll(f *Frame, candidates []*Template) []MatchResult {
	var out []MatchResult
	for _, t := range candidates {
		score, at := m.Score(f, t)
		if score < t.Threshold {
			continue
		}
		out = append(out, MatchResult{
			Tag:        t.Tag,
			Confidence: score,
			Bounds:     image.Rect(at.X, at.Y, at.X+t.W, at.Y+t.H),
			At:         f.CapturedAt,
		})
	}
	return out
}

// Score returns the peak correlation of the template over the frame and
// the top-left corner of that peak in reference coordinates. Scores are
// in [-1, 1]; flat patches with no variance score zero.
func (m *TemplateMatcher) Score(f *Frame, t *Template) (float64, image.Point) {
	// Intersect the template's search hint with what the frame covers.
	search := f.Region
	if !t.Region.Empty() {
		search = search.Intersect(t.Region)
	}
	if search.Empty() || search.Dx() < t.W || search.Dy() < t.H {
		return 0, image.Point{}
	}

	gray := frameGray(f)
	fw := f.Region.Dx()

	// Scan window, in frame-local coordinates.
	x0 := search.Min.X - f.Region.Min.X
	y0 := search.Min.Y - f.Region.Min.Y
	x1 := x0 + search.Dx() - t.W
	y1 := y0 + search.Dy() - t.H

	sub := t.subsample(m.stride, fw)

	bestScore := math.Inf(-1)
	var bestX, bestY int
	for y := y0; y <= y1; y++ {
		base := y * fw
		for x := x0; x <= x1; x++ {
			if s := sub.scoreAt(gray, base+x); s > bestScore {
				bestScore, bestX, bestY = s, x, y
			}
		}
	}
	if math.IsInf(bestScore, -1) {
		return 0, image.Point{}
	}

	// The thinned scan locates the peak; the reported confidence comes
	// from the full template so thresholds mean the same at any stride.
	if m.stride > 1 {
		bestScore = nccAt(gray, fw, t, bestX, bestY)
	}

	return bestScore, image.Pt(bestX+f.Region.Min.X, bestY+f.Region.Min.Y)
}

// subsampledTemplate is a template restricted to every stride-th pixel,
// re-normalized over the sampled set, with frame offsets precomputed for
// one frame width.
type subsampledTemplate struct {
	offs []int
	vals []float64
	norm float64
}

// subsample builds the thinned view used for scanning. With stride one it
// degenerates to the full template.
func (t *Template) subsample(stride, fw int) *subsampledTemplate {
	var offs []int
	var vals []float64
	var sum float64
	for ty := 0; ty < t.H; ty += stride {
		for tx := 0; tx < t.W; tx += stride {
			offs = append(offs, ty*fw+tx)
			v := t.gray[ty*t.W+tx]
			vals = append(vals, v)
			sum += v
		}
	}

	// t.gray is zero-mean over the full grid, not over the sampled set.
	mean := sum / float64(len(vals))
	var sq float64
	for i := range vals {
		vals[i] -= mean
		sq += vals[i] * vals[i]
	}
	return &subsampledTemplate{offs: offs, vals: vals, norm: math.Sqrt(sq)}
}

// scoreAt computes the zero-mean correlation of the sampled template
// pixels against the frame patch starting at the given flat offset.
func (s *subsampledTemplate) scoreAt(gray []float64, base int) float64 {
	if s.norm == 0 {
		return 0
	}

	var sum float64
	for _, off := range s.offs {
		sum += gray[base+off]
	}
	mean := sum / float64(len(s.vals))

	var dot, patchSq float64
	for i, off := range s.offs {
		p := gray[base+off] - mean
		dot += p * s.vals[i]
		patchSq += p * p
	}
	if patchSq == 0 {
		return 0
	}
	return dot / (math.Sqrt(patchSq) * s.norm)
}

// nccAt computes the zero-mean normalized cross-correlation between the
// template and the frame patch whose top-left corner is (x, y) in
// frame-local coordinates.
func nccAt(gray []float64, fw int, t *Template, x, y int) float64 {
	if t.grayNorm == 0 {
		return 0
	}

	n := float64(t.W * t.H)

	var sum float64
	for ty := 0; ty < t.H; ty++ {
		row := (y+ty)*fw + x
		for tx := 0; tx < t.W; tx++ {
			sum += gray[row+tx]
		}
	}
	mean := sum / n

	var dot, patchSq float64
	ti := 0
	for ty := 0; ty < t.H; ty++ {
		row := (y+ty)*fw + x
		for tx := 0; tx < t.W; tx++ {
			p := gray[row+tx] - mean
			dot += p * t.gray[ti]
			patchSq += p * p
			ti++
		}
	}
	if patchSq == 0 {
		return 0
	}
	return dot / (math.Sqrt(patchSq) * t.grayNorm)
}

// frameGray converts the frame's RGBA buffer to a row-major luma plane.
// Built once per frame and cached; several templates are scored against
// the same capture each tick. Frames are only touched by the sampling
// goroutine, so the cache needs no lock.
func frameGray(f *Frame) []float64 {
	if f.gray != nil {
		return f.gray
	}

	b := f.Img.Bounds()
	w, h := b.Dx(), b.Dy()
	gray := make([]float64, w*h)

	i := 0
	for y := 0; y < h; y++ {
		off := f.Img.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			px := f.Img.Pix[off : off+3 : off+3]
			gray[i] = float64((77*uint32(px[0]) + 150*uint32(px[1]) + 29*uint32(px[2])) >> 8)
			off += 4
			i++
		}
	}
	f.gray = gray
	return gray
}
