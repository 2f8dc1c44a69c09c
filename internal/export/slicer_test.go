package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"layer-composer/pkg/geometry"
)

// gradientSurface colours each pixel by its canvas coordinates so tiles can
// be checked against the region they claim to cover.
type gradientSurface struct {
	calls []image.Rectangle
}

func (g *gradientSurface) RenderRegion(_ context.Context, x, y, w, h int) (image.Image, error) {
	g.calls = append(g.calls, image.Rect(x, y, x+w, y+h))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			img.SetRGBA(px, py, color.RGBA{R: uint8(x + px), G: uint8(y + py), A: 255})
		}
	}
	return img, nil
}

type failingSurface struct{}

func (failingSurface) RenderRegion(context.Context, int, int, int, int) (image.Image, error) {
	return nil, errors.New("boom")
}

func TestBoundaries(t *testing.T) {
	tests := []struct {
		length float64
		n      int
		want   []int
	}{
		{100, 1, []int{0, 100}},
		{100, 4, []int{0, 25, 50, 75, 100}},
		{100, 3, []int{0, 33, 67, 100}},
		{10.5, 2, []int{0, 5, 11}},
	}
	for _, tt := range tests {
		got := Boundaries(tt.length, tt.n)
		if len(got) != len(tt.want) {
			t.Fatalf("Boundaries(%v, %d) = %v, want %v", tt.length, tt.n, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Boundaries(%v, %d) = %v, want %v", tt.length, tt.n, got, tt.want)
				break
			}
		}
	}
}

func TestSlice_CoversCanvasWithoutGaps(t *testing.T) {
	grids := []Grid{{1, 1}, {2, 3}, {3, 7}, {4, 4}}
	canvas := geometry.NewSize(100, 61)

	for _, g := range grids {
		surf := &gradientSurface{}
		set, err := NewExporter(surf).Slice(context.Background(), canvas, g)
		if err != nil {
			t.Fatalf("Slice(%v) failed: %v", g, err)
		}
		if len(set.Tiles) != g.Rows*g.Cols {
			t.Fatalf("Slice(%v): got %d tiles, want %d", g, len(set.Tiles), g.Rows*g.Cols)
		}

		covered := make([]int, 100*61)
		for i, tile := range set.Tiles {
			if tile.Row != i/g.Cols || tile.Col != i%g.Cols {
				t.Errorf("tile %d out of row-major order: row %d col %d", i, tile.Row, tile.Col)
			}
			for y := tile.Y; y < tile.Y+tile.Height; y++ {
				for x := tile.X; x < tile.X+tile.Width; x++ {
					covered[y*100+x]++
				}
			}
		}
		for i, n := range covered {
			if n != 1 {
				t.Fatalf("Slice(%v): pixel %d covered %d times", g, i, n)
			}
		}
	}
}

func TestSlice_TileRasterMatchesRegion(t *testing.T) {
	set, err := NewExporter(&gradientSurface{}).Slice(context.Background(), geometry.NewSize(40, 30), Grid{Rows: 2, Cols: 2})
	if err != nil {
		t.Fatalf("Slice() failed: %v", err)
	}

	tile := set.Tile(1, 1)
	if tile == nil {
		t.Fatal("Tile(1, 1) = nil")
	}
	img, err := png.Decode(bytes.NewReader(tile.Raster))
	if err != nil {
		t.Fatalf("decode tile: %v", err)
	}
	if b := img.Bounds(); b.Dx() != tile.Width || b.Dy() != tile.Height {
		t.Fatalf("tile raster is %v, want %dx%d", b, tile.Width, tile.Height)
	}
	got := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA)
	if int(got.R) != tile.X || int(got.G) != tile.Y {
		t.Errorf("tile origin pixel = %v, want canvas (%d,%d)", got, tile.X, tile.Y)
	}
}

func TestSlice_InvalidGrid(t *testing.T) {
	for _, g := range []Grid{{0, 1}, {1, 0}, {-1, 2}} {
		_, err := NewExporter(&gradientSurface{}).Slice(context.Background(), geometry.NewSize(10, 10), g)
		if !errors.Is(err, ErrInvalidGrid) {
			t.Errorf("Slice(%v) error = %v, want ErrInvalidGrid", g, err)
		}
	}
}

func TestSlice_GridFinerThanCanvas(t *testing.T) {
	tests := []struct {
		canvas geometry.Size
		grid   Grid
		ok     bool
	}{
		{geometry.NewSize(3, 10), Grid{Rows: 2, Cols: 4}, false},
		{geometry.NewSize(10, 2), Grid{Rows: 3, Cols: 1}, false},
		{geometry.NewSize(4, 3), Grid{Rows: 3, Cols: 4}, true},
	}
	for _, tt := range tests {
		set, err := NewExporter(&gradientSurface{}).Slice(context.Background(), tt.canvas, tt.grid)
		if !tt.ok {
			if !errors.Is(err, ErrGridTooFine) {
				t.Errorf("Slice(%v on %v) error = %v, want ErrGridTooFine", tt.grid, tt.canvas, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Slice(%v on %v) failed: %v", tt.grid, tt.canvas, err)
		}
		for _, tile := range set.Tiles {
			if tile.Width < 1 || tile.Height < 1 || len(tile.Raster) == 0 {
				t.Errorf("tile %s is empty: %dx%d", tile.Name, tile.Width, tile.Height)
			}
		}
	}
}

func TestSlice_SurfaceError(t *testing.T) {
	_, err := NewExporter(failingSurface{}).Slice(context.Background(), geometry.NewSize(10, 10), Grid{1, 1})
	if err == nil {
		t.Error("expected surface error to propagate")
	}
}

func TestSlice_HTMLTable(t *testing.T) {
	set, err := NewExporter(&gradientSurface{}).Slice(context.Background(), geometry.NewSize(90, 40), Grid{Rows: 2, Cols: 3})
	if err != nil {
		t.Fatalf("Slice() failed: %v", err)
	}

	html := set.HTML
	for _, want := range []string{`border="0"`, `cellpadding="0"`, `cellspacing="0"`, "display:block"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q:\n%s", want, html)
		}
	}
	if n := strings.Count(html, "<tr>"); n != 2 {
		t.Errorf("got %d rows, want 2", n)
	}
	if n := strings.Count(html, "<img "); n != 6 {
		t.Errorf("got %d images, want 6", n)
	}
	first := strings.Index(html, TileName(0, 0))
	last := strings.Index(html, TileName(1, 2))
	if first < 0 || last < 0 || first > last {
		t.Errorf("tiles not in row-major order:\n%s", html)
	}
	if !strings.Contains(html, `width="30" height="20"`) {
		t.Errorf("img not sized to tile:\n%s", html)
	}
}

func TestSlice_InlineSources(t *testing.T) {
	e := NewExporter(&gradientSurface{})
	e.Source = DataURISource

	set, err := e.Slice(context.Background(), geometry.NewSize(10, 10), Grid{1, 1})
	if err != nil {
		t.Fatalf("Slice() failed: %v", err)
	}
	if !strings.Contains(set.HTML, `src="data:image/png;base64,`) {
		t.Errorf("expected inlined tile, got:\n%s", set.HTML)
	}
}

func TestComposite(t *testing.T) {
	surf := &gradientSurface{}
	raw, err := NewExporter(surf).Composite(context.Background(), geometry.NewSize(20, 10))
	if err != nil {
		t.Fatalf("Composite() failed: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode composite: %v", err)
	}
	if cfg.Width != 20 || cfg.Height != 10 {
		t.Errorf("composite is %dx%d, want 20x10", cfg.Width, cfg.Height)
	}
}

func TestPrefixSource(t *testing.T) {
	src := PrefixSource("https://cdn.example.com/mail/")
	if got := src(Tile{Name: "a.png"}); got != "https://cdn.example.com/mail/a.png" {
		t.Errorf("PrefixSource = %q", got)
	}
}
