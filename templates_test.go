// Package main - templates_test.go
package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTemplateDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, tag := range []string{TagBiteIndicator, TagArrowUp, "some_new_template"} {
		f, err := os.Create(filepath.Join(dir, tag+".png"))
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, noisePattern(8, 8)); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	// A stray non-PNG file must be ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadTemplateLibrary(t *testing.T) {
	cfg := DefaultConfig()
	lib, err := LoadTemplateLibrary(writeTemplateDir(t), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if lib.Len() != 3 {
		t.Fatalf("loaded %d templates, want 3", lib.Len())
	}

	bite := lib.Get(TagBiteIndicator)
	if bite == nil {
		t.Fatal("bite_indicator missing")
	}
	if bite.Threshold != 0.80 {
		t.Errorf("bite threshold = %.2f, want 0.80", bite.Threshold)
	}
	if bite.W != 8 || bite.H != 8 {
		t.Errorf("bite size = %dx%d, want 8x8", bite.W, bite.H)
	}
	if bite.Region.Empty() {
		t.Error("bite_indicator lost its region hint")
	}

	// Unknown tags pick up the default threshold and no hint.
	extra := lib.Get("some_new_template")
	if extra == nil {
		t.Fatal("some_new_template missing")
	}
	if extra.Threshold != 0.70 {
		t.Errorf("extra threshold = %.2f, want default 0.70", extra.Threshold)
	}
	if !extra.Region.Empty() {
		t.Errorf("extra template has region hint %v, want none", extra.Region)
	}
}

func TestLoadTemplateLibraryMissingDir(t *testing.T) {
	if _, err := LoadTemplateLibrary(filepath.Join(t.TempDir(), "nope"), DefaultConfig()); err == nil {
		t.Error("missing directory did not error")
	}
}

func TestCandidatesPreserveOrderAndSkipMissing(t *testing.T) {
	lib, err := LoadTemplateLibrary(writeTemplateDir(t), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	got := lib.Candidates(TagArrowUp, TagCatchSuccess, TagBiteIndicator)
	if len(got) != 2 {
		t.Fatalf("candidates = %d entries, want 2", len(got))
	}
	if got[0].Tag != TagArrowUp || got[1].Tag != TagBiteIndicator {
		t.Errorf("candidate order = [%s %s], want [arrow_up bite_indicator]", got[0].Tag, got[1].Tag)
	}
}
