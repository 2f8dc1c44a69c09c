package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"layer-composer/pkg/geometry"
)

func TestWriteDir(t *testing.T) {
	set, err := NewExporter(&gradientSurface{}).Slice(context.Background(), geometry.NewSize(40, 20), Grid{Rows: 1, Cols: 2})
	if err != nil {
		t.Fatalf("Slice() failed: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "out")
	if err := WriteDir(set, dir, false); err != nil {
		t.Fatalf("WriteDir() failed: %v", err)
	}
	for _, tile := range set.Tiles {
		data, err := os.ReadFile(filepath.Join(dir, tile.Name))
		if err != nil {
			t.Fatalf("tile %s not written: %v", tile.Name, err)
		}
		if !bytes.Equal(data, tile.Raster) {
			t.Errorf("tile %s content differs", tile.Name)
		}
	}
	html, err := os.ReadFile(filepath.Join(dir, HTMLName))
	if err != nil {
		t.Fatalf("html not written: %v", err)
	}
	if string(html) != set.HTML {
		t.Error("html content differs")
	}
}

func TestWriteDir_InlineSkipsTiles(t *testing.T) {
	e := NewExporter(&gradientSurface{})
	e.Source = DataURISource
	set, err := e.Slice(context.Background(), geometry.NewSize(10, 10), Grid{Rows: 1, Cols: 1})
	if err != nil {
		t.Fatalf("Slice() failed: %v", err)
	}

	dir := t.TempDir()
	if err := WriteDir(set, dir, true); err != nil {
		t.Fatalf("WriteDir() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, TileName(0, 0))); !os.IsNotExist(err) {
		t.Errorf("inline export wrote tile file: %v", err)
	}
}
