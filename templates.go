// Package main - templates.go
//
// Template library: named reference patterns for the game-UI elements the
// bot recognizes. Templates are PNG files in the asset directory, one per
// tag, loaded once at startup and read-only afterwards. Thresholds come
// from configuration, region hints from the fixed 1920x1080 layout.
package main

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Search-region hints in reference coordinates. A zero rectangle means
// the whole frame. Restricting the scan keeps per-tick matching cheap and
// rejects look-alike pixels elsewhere on screen.
var defaultRegionHints = map[string]image.Rectangle{
	// Reaction minigame arrows render in the middle band of the screen.
	TagArrowUp:    image.Rect(576, 432, 1344, 648),
	TagArrowDown:  image.Rect(576, 432, 1344, 648),
	TagArrowLeft:  image.Rect(576, 432, 1344, 648),
	TagArrowRight: image.Rect(576, 432, 1344, 648),
	// Bite indicator pops near the bobber in the center of the view.
	TagBiteIndicator: image.Rect(480, 270, 1440, 810),
	// Post-catch buttons sit in the lower third.
	TagContinue:     image.Rect(960, 720, 1920, 1080),
	TagContinueHigh: image.Rect(960, 720, 1920, 1080),
	TagExit:         image.Rect(960, 720, 1920, 1080),
}

// Template is a named reference pattern with its match threshold. The
// grayscale plane and per-template normalization terms are precomputed at
// load time so the matcher's inner loop stays cheap.
type Template struct {
	Tag       string
	Threshold float64
	Region    image.Rectangle // search hint, zero = full frame
	W, H      int

	gray     []float64 // zero-mean luma, row-major
	grayNorm float64   // sqrt(sum(gray^2))
}

// NewTemplate builds a template from a decoded image. Exposed for tests
// and for asset collaborators that hand patterns over in memory.
func NewTemplate(tag string, img image.Image, threshold float64, region image.Rectangle) *Template {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	gray := make([]float64, w*h)

	var sum float64
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray[i] = luma(img.At(x, y).RGBA())
			sum += gray[i]
			i++
		}
	}

	// Zero-mean the pattern once; the matcher does the same per patch.
	mean := sum / float64(len(gray))
	var sq float64
	for i := range gray {
		gray[i] -= mean
		sq += gray[i] * gray[i]
	}

	return &Template{
		Tag:       tag,
		Threshold: threshold,
		Region:    region,
		W:         w,
		H:         h,
		gray:      gray,
		grayNorm:  math.Sqrt(sq),
	}
}

// luma converts premultiplied 16-bit RGBA to an 8-bit-scale luminance
// value using the standard integer weights.
func luma(r, g, b, _ uint32) float64 {
	return float64((77*(r>>8) + 150*(g>>8) + 29*(b>>8)) >> 8)
}

// TemplateLibrary holds all loaded templates keyed by tag.
type TemplateLibrary struct {
	templates map[string]*Template
}

// NewTemplateLibrary builds a library from already-constructed templates.
func NewTemplateLibrary(templates ...*Template) *TemplateLibrary {
	m := make(map[string]*Template, len(templates))
	for _, t := range templates {
		m[t.Tag] = t
	}
	return &TemplateLibrary{templates: m}
}

// LoadTemplateLibrary reads every PNG in dir; the file base name is the
// template tag. Missing assets are tolerated (the corresponding signal is
// simply never detected) but logged, so a half-populated asset folder is
// visible to the operator.
func LoadTemplateLibrary(dir string, cfg *Config) (*TemplateLibrary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read template dir %s: %w", dir, err)
	}

	lib := &TemplateLibrary{templates: make(map[string]*Template)}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		tag := strings.TrimSuffix(e.Name(), ".png")

		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("open template %s: %w", e.Name(), err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode template %s: %w", e.Name(), err)
		}

		lib.templates[tag] = NewTemplate(tag, img, cfg.ThresholdFor(tag), defaultRegionHints[tag])
		log.Debug().Str("tag", tag).
			Int("w", img.Bounds().Dx()).Int("h", img.Bounds().Dy()).
			Float64("threshold", cfg.ThresholdFor(tag)).
			Msg("template loaded")
	}

	if len(lib.templates) == 0 {
		log.Warn().Str("dir", dir).Msg("template directory contains no PNG assets")
	}
	return lib, nil
}

// Get returns the template for a tag, nil when absent.
func (l *TemplateLibrary) Get(tag string) *Template {
	return l.templates[tag]
}

// Candidates returns the templates for the given tags in the given order,
// skipping tags with no loaded asset. Order matters: the matcher breaks
// score ties in favor of earlier candidates.
func (l *TemplateLibrary) Candidates(tags ...string) []*Template {
	out := make([]*Template, 0, len(tags))
	for _, tag := range tags {
		if t := l.templates[tag]; t != nil {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of loaded templates.
func (l *TemplateLibrary) Len() int { return len(l.templates) }
