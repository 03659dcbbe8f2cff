// Package main - ocr.go
//
// Fish identification from the catch result screen. The fish name renders
// in a fixed slot at 1920x1080; that crop goes through Tesseract and the
// raw text is normalized into catalog id form.
package main

import (
	"bytes"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract"
	"github.com/rs/zerolog/log"
)

// Name label slot on the result screen, in reference coordinates.
var fishNameRect = image.Rect(1075, 712, 1651, 798)

// TesseractIdentifier reads the fish name off a result-screen frame.
type TesseractIdentifier struct {
	catalog *FishCatalog
}

// NewTesseractIdentifier returns an identifier that checks recognized
// names against the catalog.
func NewTesseractIdentifier(catalog *FishCatalog) *TesseractIdentifier {
	return &TesseractIdentifier{catalog: catalog}
}

// Identify crops the name slot, OCRs it and returns the normalized fish
// type. Confidence is high when the result is a known catalog entry,
// lower for readable-but-unknown text, zero when nothing was read.
func (t *TesseractIdentifier) Identify(f *Frame) (string, float64) {
	crop := fishNameRect.Intersect(f.Region)
	if crop.Empty() {
		return "", 0
	}
	sub := f.Img.SubImage(crop.Sub(f.Region.Min).Add(f.Img.Bounds().Min)).(*image.RGBA)

	var buf bytes.Buffer
	if err := png.Encode(&buf, sub); err != nil {
		log.Error().Err(err).Msg("fish name crop encode failed")
		return "", 0
	}

	client := gosseract.NewClient()
	defer client.Close()
	client.SetLanguage("eng")
	client.SetPageSegMode(gosseract.PSM_SINGLE_LINE)
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		log.Error().Err(err).Msg("ocr input failed")
		return "", 0
	}

	text, err := client.Text()
	if err != nil {
		log.Error().Err(err).Msg("ocr failed")
		return "", 0
	}

	name := normalizeFishName(text)
	if name == "" {
		return "", 0
	}
	if t.catalog != nil && t.catalog.Exists(name) {
		return name, 0.9
	}
	log.Debug().Str("raw", text).Str("normalized", name).Msg("ocr name not in catalog")
	return name, 0.5
}

// normalizeFishName converts OCR output to catalog id form: lowercase,
// spaces to underscores, decoration stripped.
func normalizeFishName(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "#", "")
	s = strings.Join(strings.Fields(s), "_")
	return strings.ToLower(s)
}
