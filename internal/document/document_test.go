package document

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"layer-composer/internal/bitmap"
	"layer-composer/internal/layer"
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

func TestSaveLoad_RelativeImages(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "photo.png")
	writePNG(t, imgPath, 30, 20)

	img := layer.NewImage("photo", imgPath, image.NewRGBA(image.Rect(0, 0, 30, 20)))
	img.ID = "img-1"
	rect := layer.NewRectangle(5, 5, 10, 10, "#00ff00")
	rect.ID = "rect-1"

	doc := New("banner", geometry.NewSize(300, 200))
	doc.SetLayers([]layer.Layer{img, rect})

	scene := filepath.Join(dir, "scene.json")
	if err := doc.Save(scene); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if doc.Layers[0].BitmapSource != imgPath {
		t.Error("Save() must not rewrite the in-memory document")
	}

	loaded, err := Load(scene)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := loaded.Layers[0].BitmapSource; got != "photo.png" {
		t.Errorf("stored source = %q, want relative path", got)
	}
	if loaded.Canvas.Size() != geometry.NewSize(300, 200) {
		t.Errorf("canvas = %+v", loaded.Canvas)
	}

	layers := loaded.Rehydrate(context.Background(), bitmap.NewFileLoader(BaseDir(scene)))
	if len(layers) != 2 {
		t.Fatalf("Rehydrate() returned %d layers", len(layers))
	}
	if layers[0].Bitmap == nil || layers[0].Broken {
		t.Error("image layer was not rehydrated")
	}
	if layers[1].Fill != "#00ff00" {
		t.Errorf("rectangle fill = %q", layers[1].Fill)
	}
}

func TestRehydrate_MissingImageIsBroken(t *testing.T) {
	doc := New("x", geometry.NewSize(10, 10))
	l := layer.NewImage("gone", "gone.png", nil)
	l.ID = "img"
	l.Width, l.Height = 5, 5
	doc.SetLayers([]layer.Layer{l})

	layers := doc.Rehydrate(context.Background(), bitmap.NewFileLoader(t.TempDir()))
	if len(layers) != 1 || !layers[0].Broken {
		t.Errorf("expected one broken layer, got %+v", layers)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"minimal", `{"version":1,"canvas":{"width":10,"height":10}}`, false},
		{"no version", `{"canvas":{"width":10,"height":10}}`, false},
		{"newer version", `{"version":99,"canvas":{"width":10,"height":10}}`, true},
		{"empty canvas", `{"version":1}`, true},
		{"garbage", `{`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (doc.Slices.Rows != 1 || doc.Slices.Cols != 1) {
				t.Errorf("default grid = %+v", doc.Slices)
			}
		})
	}

	_, err := Parse([]byte(`{"version":2,"canvas":{"width":1,"height":1}}`))
	if !errors.Is(err, ErrVersion) {
		t.Errorf("Parse() newer version error = %v, want ErrVersion", err)
	}
}
