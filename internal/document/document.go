// Package document provides scene file handling and persistence.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"layer-composer/internal/bitmap"
	"layer-composer/internal/config"
	"layer-composer/internal/export"
	"layer-composer/internal/history"
	"layer-composer/internal/layer"
	"layer-composer/pkg/geometry"
)

// CurrentVersion is the scene format version written by Save.
const CurrentVersion = 1

// ErrVersion is returned when a scene file was written by a newer format.
var ErrVersion = errors.New("unsupported scene version")

// File represents a scene file (.json).
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	Canvas Canvas `json:"canvas"`

	// Layers in paint order. Image layers reference their bitmap by
	// bitmapSource, relative to the scene file when it is a plain path.
	Layers []layer.Layer `json:"layers"`

	// Default slice grid for export
	Slices export.Grid `json:"slices,omitempty"`

	// Optional editor overrides
	Settings *config.Settings `json:"settings,omitempty"`
}

// Canvas is the composition's size in pixels.
type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size returns the canvas as a geometry size.
func (c Canvas) Size() geometry.Size {
	return geometry.NewSize(c.Width, c.Height)
}

// New creates a new scene file.
func New(name string, size geometry.Size) *File {
	now := time.Now()
	return &File{
		Version:  CurrentVersion,
		Name:     name,
		Created:  now,
		Modified: now,
		Canvas:   Canvas{Width: size.Width, Height: size.Height},
		Slices:   export.Grid{Rows: 1, Cols: 1},
	}
}

// Load loads a scene from a .json file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and checks a scene document.
func Parse(data []byte) (*File, error) {
	var doc File
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	if doc.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, doc.Version)
	}
	if doc.Version == 0 {
		doc.Version = CurrentVersion
	}
	if doc.Canvas.Width <= 0 || doc.Canvas.Height <= 0 {
		return nil, fmt.Errorf("scene canvas must have a positive size, got %vx%v", doc.Canvas.Width, doc.Canvas.Height)
	}
	if doc.Slices.Rows < 1 {
		doc.Slices.Rows = 1
	}
	if doc.Slices.Cols < 1 {
		doc.Slices.Cols = 1
	}
	return &doc, nil
}

// Save saves the scene to a file, storing image paths relative to it.
func (d *File) Save(path string) error {
	d.Modified = time.Now()
	d.Version = CurrentVersion

	out := *d
	out.Layers = make([]layer.Layer, len(d.Layers))
	for i, l := range d.Layers {
		l.BitmapSource = relativeSource(path, l.BitmapSource)
		out.Layers[i] = l
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SetLayers replaces the scene's layers with the given editor state.
func (d *File) SetLayers(layers []layer.Layer) {
	d.Layers = make([]layer.Layer, len(layers))
	copy(d.Layers, layers)
	for i := range d.Layers {
		d.Layers[i].Bitmap = nil
	}
	d.Modified = time.Now()
}

// Rehydrate returns the scene's layers with their bitmaps loaded in
// parallel. Records that fail validation are dropped; images that fail to
// load are kept and marked broken.
func (d *File) Rehydrate(ctx context.Context, loader bitmap.Loader) []layer.Layer {
	return history.Restore(ctx, loader, history.NewSnapshot(d.Layers))
}

// BaseDir returns the directory relative image paths resolve against.
func BaseDir(scenePath string) string {
	dir, err := filepath.Abs(filepath.Dir(scenePath))
	if err != nil {
		return filepath.Dir(scenePath)
	}
	return dir
}

func relativeSource(scenePath, source string) string {
	if !filepath.IsAbs(source) {
		return source
	}
	rel, err := filepath.Rel(BaseDir(scenePath), source)
	if err != nil {
		return source
	}
	return rel
}
