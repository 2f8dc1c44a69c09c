// Package export rasterizes the composed canvas, either as one image or as
// an R x C grid of tiles stitched back together by an HTML table.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"layer-composer/pkg/geometry"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrInvalidGrid is returned when rows or cols is below one.
var ErrInvalidGrid = errors.New("export: rows and cols must be at least 1")

// ErrGridTooFine is returned when a grid has more rows or cols than the
// canvas has pixels, which would leave empty tiles.
var ErrGridTooFine = errors.New("export: grid is finer than the canvas")

// Surface renders a region of the composed canvas at 1:1 scale.
type Surface interface {
	RenderRegion(ctx context.Context, x, y, w, h int) (image.Image, error)
}

// Grid is the row/column partition of the canvas.
type Grid struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Validate checks that both dimensions are usable.
func (g Grid) Validate() error {
	if g.Rows < 1 || g.Cols < 1 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidGrid, g.Rows, g.Cols)
	}
	return nil
}

// ValidateFor checks the grid against a canvas size: every tile must be at
// least one pixel in both directions.
func (g Grid) ValidateFor(canvas geometry.Size) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if canvas.Width < float64(g.Cols) || canvas.Height < float64(g.Rows) {
		return fmt.Errorf("%w: %dx%d on a %gx%g canvas", ErrGridTooFine, g.Rows, g.Cols, canvas.Width, canvas.Height)
	}
	return nil
}

// Tile is one cell of a slice set.
type Tile struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
	Raster []byte `json:"-"`
}

// SliceSet is the exporter's output: tiles in row-major order plus the
// table markup that reassembles them.
type SliceSet struct {
	ID    string `json:"id"`
	Grid  Grid   `json:"grid"`
	Tiles []Tile `json:"tiles"`
	HTML  string `json:"html"`
}

// Tile returns the tile at (row, col), or nil.
func (s *SliceSet) Tile(row, col int) *Tile {
	if row < 0 || col < 0 || row >= s.Grid.Rows || col >= s.Grid.Cols {
		return nil
	}
	return &s.Tiles[row*s.Grid.Cols+col]
}

// Exporter turns a Surface into rasters.
type Exporter struct {
	Surface Surface
	Source  SourceFunc
}

// NewExporter creates an exporter whose tile images reference file names.
func NewExporter(surface Surface) *Exporter {
	return &Exporter{Surface: surface, Source: FileSource}
}

// Boundaries splits length into n spans whose edges are rounded the same way
// everywhere, so adjacent tiles share an edge and the spans sum to the total.
func Boundaries(length float64, n int) []int {
	edges := make([]int, n+1)
	for i := 0; i <= n; i++ {
		edges[i] = int(math.Round(float64(i) * length / float64(n)))
	}
	return edges
}

// Composite renders the whole canvas as a single PNG.
func (e *Exporter) Composite(ctx context.Context, canvas geometry.Size) ([]byte, error) {
	w, h := int(math.Round(canvas.Width)), int(math.Round(canvas.Height))
	img, err := e.Surface.RenderRegion(ctx, 0, 0, w, h)
	if err != nil {
		return nil, fmt.Errorf("render canvas: %w", err)
	}
	return encode(img)
}

// Slice partitions the canvas into grid cells and renders each one.
func (e *Exporter) Slice(ctx context.Context, canvas geometry.Size, grid Grid) (*SliceSet, error) {
	if err := grid.ValidateFor(canvas); err != nil {
		return nil, err
	}

	xs := Boundaries(canvas.Width, grid.Cols)
	ys := Boundaries(canvas.Height, grid.Rows)

	set := &SliceSet{
		ID:    uuid.NewString(),
		Grid:  grid,
		Tiles: make([]Tile, 0, grid.Rows*grid.Cols),
	}
	for r := 0; r < grid.Rows; r++ {
		for c := 0; c < grid.Cols; c++ {
			t := Tile{
				Row:    r,
				Col:    c,
				X:      xs[c],
				Y:      ys[r],
				Width:  xs[c+1] - xs[c],
				Height: ys[r+1] - ys[r],
				Name:   TileName(r, c),
			}
			img, err := e.Surface.RenderRegion(ctx, t.X, t.Y, t.Width, t.Height)
			if err != nil {
				return nil, fmt.Errorf("render tile %d,%d: %w", r, c, err)
			}
			if t.Raster, err = encode(img); err != nil {
				return nil, fmt.Errorf("encode tile %d,%d: %w", r, c, err)
			}
			set.Tiles = append(set.Tiles, t)
		}
	}

	source := e.Source
	if source == nil {
		source = FileSource
	}
	html, err := Table(set, source)
	if err != nil {
		return nil, err
	}
	set.HTML = html

	logrus.WithFields(logrus.Fields{
		"slice_set": set.ID,
		"rows":      grid.Rows,
		"cols":      grid.Cols,
		"width":     canvas.Width,
		"height":    canvas.Height,
	}).Debug("Sliced canvas")
	return set, nil
}

// TileName is the file name a tile is written under.
func TileName(row, col int) string {
	return fmt.Sprintf("slice_r%d_c%d.png", row+1, col+1)
}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
