package main

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"layer-composer/internal/document"
	"layer-composer/internal/export"
	"layer-composer/internal/layer"
	"layer-composer/pkg/geometry"
)

func writeScene(t *testing.T, dir string, withMissing bool) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 60, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	imgPath := filepath.Join(dir, "bg.png")
	f, err := os.Create(imgPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	bg := layer.NewImage(layer.BackgroundName, imgPath, img)
	bg.ID = "bg"
	layers := []layer.Layer{bg}
	if withMissing {
		missing := layer.NewImage("gone", filepath.Join(dir, "gone.png"), image.NewRGBA(image.Rect(0, 0, 10, 10)))
		missing.ID = "gone"
		layers = append(layers, missing)
	}

	doc := document.New("promo", geometry.NewSize(60, 30))
	doc.Slices = export.Grid{Rows: 1, Cols: 2}
	doc.SetLayers(layers)
	path := filepath.Join(dir, "promo.json")
	if err := doc.Save(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_WritesCompositeAndSlices(t *testing.T) {
	dir := t.TempDir()
	scene := writeScene(t, dir, false)
	out := filepath.Join(dir, "out")

	session, err := run(context.Background(), options{doc: scene, rows: 3, out: out})
	if err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	if got := session.Slices(); got != (export.Grid{Rows: 3, Cols: 2}) {
		t.Errorf("grid = %+v, want 3x2 (rows from flag, cols from scene)", got)
	}

	f, err := os.Open(filepath.Join(out, compositeName))
	if err != nil {
		t.Fatalf("composite missing: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode composite: %v", err)
	}
	if cfg.Width != 60 || cfg.Height != 30 {
		t.Errorf("composite is %dx%d", cfg.Width, cfg.Height)
	}

	for r := 0; r < 3; r++ {
		for c := 0; c < 2; c++ {
			if _, err := os.Stat(filepath.Join(out, export.TileName(r, c))); err != nil {
				t.Errorf("tile r%d c%d missing: %v", r, c, err)
			}
		}
	}
	html, err := os.ReadFile(filepath.Join(out, export.HTMLName))
	if err != nil {
		t.Fatalf("html missing: %v", err)
	}
	if n := strings.Count(string(html), "<img "); n != 6 {
		t.Errorf("html has %d images, want 6", n)
	}
}

func TestRun_PrefixSources(t *testing.T) {
	dir := t.TempDir()
	scene := writeScene(t, dir, false)
	out := filepath.Join(dir, "out")

	if _, err := run(context.Background(), options{doc: scene, out: out, prefix: "https://cdn.example.com/promo"}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	html, err := os.ReadFile(filepath.Join(out, export.HTMLName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), `src="https://cdn.example.com/promo/`+export.TileName(0, 0)+`"`) {
		t.Errorf("prefix not applied:\n%s", html)
	}
}

func TestRun_StrictFailsOnMissingImage(t *testing.T) {
	dir := t.TempDir()
	scene := writeScene(t, dir, true)

	_, err := run(context.Background(), options{doc: scene, out: filepath.Join(dir, "out"), strict: true})
	if !errors.Is(err, errBroken) {
		t.Fatalf("run() error = %v, want errBroken", err)
	}

	// Without strict the missing image renders as a placeholder.
	if _, err := run(context.Background(), options{doc: scene, out: filepath.Join(dir, "out")}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
}
