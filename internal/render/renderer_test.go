package render

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"layer-composer/internal/layer"
	"layer-composer/pkg/geometry"
)

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -3 && d <= 3
}

func assertColor(t *testing.T, img image.Image, x, y int, want color.RGBA) {
	t.Helper()
	got := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	if !near(got.R, want.R) || !near(got.G, want.G) || !near(got.B, want.B) || !near(got.A, want.A) {
		t.Errorf("pixel (%d,%d): got %v, want %v", x, y, got, want)
	}
}

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func TestRender_Rectangle(t *testing.T) {
	r := layer.NewRectangle(10, 10, 20, 20, "#ff0000")
	s := NewScene([]layer.Layer{r}, geometry.NewSize(50, 50), nil)

	img, err := s.Render(context.Background())
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	assertColor(t, img, 15, 15, red)
	assertColor(t, img, 5, 5, color.RGBA{})
}

func TestRenderRegion_Offsets(t *testing.T) {
	r := layer.NewRectangle(30, 30, 10, 10, "blue")
	s := NewScene([]layer.Layer{r}, geometry.NewSize(100, 100), nil)

	img, err := s.RenderRegion(context.Background(), 25, 25, 20, 20)
	if err != nil {
		t.Fatalf("RenderRegion() failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("region size: got %v", b)
	}
	assertColor(t, img, 8, 8, blue)
	assertColor(t, img, 2, 2, color.RGBA{})
}

func TestRender_HiddenLayerSkipped(t *testing.T) {
	r := layer.NewRectangle(0, 0, 10, 10, "red")
	r.Visible = false
	s := NewScene([]layer.Layer{r}, geometry.NewSize(10, 10), nil)

	img, _ := s.Render(context.Background())
	assertColor(t, img, 5, 5, color.RGBA{})
}

func TestRender_PaintOrder(t *testing.T) {
	bottom := layer.NewRectangle(0, 0, 10, 10, "red")
	top := layer.NewRectangle(0, 0, 10, 10, "blue")
	s := NewScene([]layer.Layer{bottom, top}, geometry.NewSize(10, 10), nil)

	img, _ := s.Render(context.Background())
	assertColor(t, img, 5, 5, blue)
}

func TestRender_ImageCrop(t *testing.T) {
	bmp := image.NewRGBA(image.Rect(0, 0, 40, 20))
	draw.Draw(bmp, image.Rect(0, 0, 20, 20), &image.Uniform{C: red}, image.Point{}, draw.Src)
	draw.Draw(bmp, image.Rect(20, 0, 40, 20), &image.Uniform{C: blue}, image.Point{}, draw.Src)

	l := layer.NewImage("photo", "mem", bmp)
	l.Crop = geometry.Crop{X: 20, Y: 0, Width: 20, Height: 20}
	l.Width, l.Height = 20, 20

	s := NewScene([]layer.Layer{l}, geometry.NewSize(20, 20), nil)
	img, _ := s.Render(context.Background())
	assertColor(t, img, 10, 10, blue)
}

func TestRender_BrokenImagePlaceholder(t *testing.T) {
	l := layer.NewImage("photo", "gone.png", nil)
	l.Width, l.Height = 10, 10
	l.Broken = true

	s := NewScene([]layer.Layer{l}, geometry.NewSize(10, 10), nil)
	img, _ := s.Render(context.Background())
	assertColor(t, img, 5, 5, brokenFill)
}

func TestRender_Circle(t *testing.T) {
	c := layer.NewCircle(20, 20, 10, "#0000ff")
	s := NewScene([]layer.Layer{c}, geometry.NewSize(40, 40), nil)

	img, _ := s.Render(context.Background())
	assertColor(t, img, 20, 20, blue)
	assertColor(t, img, 11, 11, color.RGBA{})
	assertColor(t, img, 2, 2, color.RGBA{})
}

func TestRender_TextDrawsInk(t *testing.T) {
	txt := layer.NewText("Hello", 0, 0, 24)
	txt.BoxWidth = 100
	s := NewScene([]layer.Layer{txt}, geometry.NewSize(100, 40), nil)

	img, err := s.Render(context.Background())
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	inked := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 100; x++ {
			if img.RGBAAt(x, y).A > 0 {
				inked++
			}
		}
	}
	if inked == 0 {
		t.Error("text layer drew nothing")
	}
}

func TestRender_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScene([]layer.Layer{layer.NewRectangle(0, 0, 5, 5, "red")}, geometry.NewSize(10, 10), nil)
	if _, err := s.Render(ctx); err == nil {
		t.Error("Render() should fail on canceled context")
	}
}

func TestTextHeight_Wraps(t *testing.T) {
	f := NewFonts()
	l := layer.NewText("one two three four five six seven", 0, 0, 16)
	l.BoxWidth = 60

	h, err := f.TextHeight(l)
	if err != nil {
		t.Fatalf("TextHeight() failed: %v", err)
	}
	if h <= 16*layer.LineHeight {
		t.Errorf("expected wrapped text taller than one line, got %v", h)
	}
}
