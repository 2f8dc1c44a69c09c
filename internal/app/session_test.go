package app

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"layer-composer/internal/config"
	"layer-composer/internal/export"
	"layer-composer/pkg/geometry"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestNewSession_Clean(t *testing.T) {
	s := NewSession(config.Default())
	if s.Modified() {
		t.Error("new session should not be modified")
	}
	if s.Path() != "" || s.Name() != "Untitled" {
		t.Errorf("path=%q name=%q", s.Path(), s.Name())
	}
	if got := s.Editor.Canvas(); got != geometry.NewSize(800, 600) {
		t.Errorf("canvas = %+v", got)
	}

	var events []bool
	s.On(EventModified, func(data interface{}) { events = append(events, data.(bool)) })
	s.Editor.AddRectangle("#ff0000")
	if !s.Modified() {
		t.Error("adding a layer should mark the session modified")
	}
	if len(events) != 1 || !events[0] {
		t.Errorf("modified events = %v", events)
	}
}

func TestSession_SaveAndReopen(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "hero.png")
	writePNG(t, imgPath, 120, 80)

	s := NewSession(config.Default())
	ctx := context.Background()
	if err := s.ImportBackground(ctx, imgPath); err != nil {
		t.Fatalf("ImportBackground() failed: %v", err)
	}
	if s.Name() != "hero" {
		t.Errorf("name = %q, want hero", s.Name())
	}
	s.Editor.AddText("Sale")
	if err := s.SetSlices(export.Grid{Rows: 2, Cols: 3}); err != nil {
		t.Fatalf("SetSlices() failed: %v", err)
	}

	sub := filepath.Join(dir, "scenes")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	saved, err := s.SaveScene(filepath.Join(sub, "banner"))
	if err != nil {
		t.Fatalf("SaveScene() failed: %v", err)
	}
	if filepath.Ext(saved) != SceneExt {
		t.Errorf("saved path %q lacks %s", saved, SceneExt)
	}
	if s.Modified() || s.Path() != saved {
		t.Errorf("after save: modified=%v path=%q", s.Modified(), s.Path())
	}

	other := NewSession(config.Default())
	var loaded string
	other.On(EventSceneLoaded, func(data interface{}) { loaded = data.(string) })
	if err := other.OpenScene(ctx, saved); err != nil {
		t.Fatalf("OpenScene() failed: %v", err)
	}
	if loaded != saved {
		t.Errorf("EventSceneLoaded path = %q", loaded)
	}
	if other.Modified() {
		t.Error("opened scene should be clean")
	}
	if got := other.Slices(); got != (export.Grid{Rows: 2, Cols: 3}) {
		t.Errorf("slices = %+v", got)
	}
	if got := other.Editor.Canvas(); got != geometry.NewSize(120, 80) {
		t.Errorf("canvas = %+v", got)
	}

	layers := other.Editor.Layers()
	if len(layers) != 2 {
		t.Fatalf("got %d layers, want 2", len(layers))
	}
	bg := layers[0]
	if bg.Broken || bg.Bitmap == nil {
		t.Fatal("background bitmap was not rehydrated")
	}
	if !filepath.IsAbs(bg.BitmapSource) {
		t.Errorf("editor source %q should be absolute", bg.BitmapSource)
	}

	// Saving elsewhere keeps the image reachable.
	moved, err := other.SaveScene(filepath.Join(dir, "moved.json"))
	if err != nil {
		t.Fatalf("SaveScene() failed: %v", err)
	}
	third := NewSession(config.Default())
	if err := third.OpenScene(ctx, moved); err != nil {
		t.Fatalf("OpenScene() failed: %v", err)
	}
	if third.Editor.Layers()[0].Broken {
		t.Error("image broken after saving to another directory")
	}
}

func TestSession_OpenMissing(t *testing.T) {
	s := NewSession(config.Default())
	err := s.OpenScene(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("OpenScene() error = %v, want not-exist", err)
	}
}

func TestSession_SetSlicesInvalid(t *testing.T) {
	s := NewSession(config.Default())
	if err := s.SetSlices(export.Grid{Rows: 0, Cols: 2}); !errors.Is(err, export.ErrInvalidGrid) {
		t.Errorf("SetSlices() error = %v", err)
	}
	if s.Modified() {
		t.Error("rejected grid should not modify the session")
	}
}

func TestSceneWatcher_ExternalWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewSceneWatcher(50 * time.Millisecond)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	changed := make(chan string, 1)
	w.OnChange(func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() failed: %v", err)
	}

	if err := os.WriteFile(path, []byte(`{"version":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changed:
		if got != path {
			t.Errorf("changed path = %q", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestSceneWatcher_CloseTwice(t *testing.T) {
	w, err := NewSceneWatcher(10 * time.Millisecond)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	if err := w.Watch(filepath.Join(t.TempDir(), "scene.json")); err != nil {
		t.Fatalf("Watch() failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
}
