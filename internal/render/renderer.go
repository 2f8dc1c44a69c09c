// Package render rasterizes a composed layer scene. It is the default
// implementation of the "render region to image" capability the exporter
// depends on.
package render

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"

	"layer-composer/internal/layer"
	"layer-composer/pkg/colorutil"
	"layer-composer/pkg/geometry"

	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// brokenFill paints image layers whose bitmap failed to load.
var brokenFill = color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}

// Scene is an ordered set of layers on a fixed-size canvas.
type Scene struct {
	Layers     []layer.Layer
	Size       geometry.Size
	Background color.Color // nil leaves the canvas transparent
	Fonts      *Fonts
}

// NewScene creates a scene with a shared font cache.
func NewScene(layers []layer.Layer, size geometry.Size, fonts *Fonts) *Scene {
	if fonts == nil {
		fonts = NewFonts()
	}
	return &Scene{Layers: layers, Size: size, Fonts: fonts}
}

// Bounds returns the integer canvas rectangle.
func (s *Scene) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(math.Round(s.Size.Width)), int(math.Round(s.Size.Height)))
}

// Render produces the whole canvas.
func (s *Scene) Render(ctx context.Context) (*image.RGBA, error) {
	b := s.Bounds()
	return s.renderRect(ctx, b)
}

// RenderRegion rasterizes the w x h canvas region at (x, y) at 1:1 scale.
func (s *Scene) RenderRegion(ctx context.Context, x, y, w, h int) (image.Image, error) {
	return s.renderRect(ctx, image.Rect(x, y, x+w, y+h))
}

func (s *Scene) renderRect(ctx context.Context, region image.Rectangle) (*image.RGBA, error) {
	// The result is addressed from (0,0); region.Min maps to the origin.
	dst := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	if s.Background != nil {
		draw.Draw(dst, dst.Bounds(), &image.Uniform{C: s.Background}, image.Point{}, draw.Src)
	}

	origin := geometry.Point2D{X: float64(region.Min.X), Y: float64(region.Min.Y)}
	view := geometry.NewRect(origin.X, origin.Y, float64(region.Dx()), float64(region.Dy()))
	for _, l := range s.Layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !l.Visible {
			continue
		}
		// Text height depends on wrapping, so only fixed-size layers are culled.
		if l.Type != layer.TypeText && !l.Bounds().Intersects(view) {
			continue
		}
		s.paintLayer(dst, l, origin)
	}
	return dst, nil
}

// placement maps layer-local coordinates (origin at the layer's anchor, y
// down) to destination pixels.
func placement(l layer.Layer, origin geometry.Point2D) geometry.AffineTransform {
	return geometry.Translation(l.X-origin.X, l.Y-origin.Y).
		Compose(geometry.RotationDegrees(l.Rotation))
}

func aff3(t geometry.AffineTransform) f64.Aff3 {
	return f64.Aff3{t.A, t.B, t.TX, t.C, t.D, t.TY}
}

func (s *Scene) paintLayer(dst *image.RGBA, l layer.Layer, origin geometry.Point2D) {
	switch l.Type {
	case layer.TypeImage:
		s.paintImage(dst, l, origin)
	case layer.TypeRectangle:
		fill := colorutil.Premultiply(colorutil.ParseOr(l.Fill, colorutil.Black))
		paintShape(dst, l, origin, rectMask(l.Width, l.Height), fill, 0)
	case layer.TypeCircle:
		fill := colorutil.Premultiply(colorutil.ParseOr(l.Fill, colorutil.Black))
		paintShape(dst, l, origin, circleMask(l.Radius), fill, -l.Radius)
	case layer.TypeText:
		s.paintText(dst, l, origin)
	}
}

func (s *Scene) paintImage(dst *image.RGBA, l layer.Layer, origin geometry.Point2D) {
	if l.Bitmap == nil {
		paintShape(dst, l, origin, rectMask(l.Width, l.Height), brokenFill, 0)
		return
	}

	b := l.Bitmap.Bounds()
	crop := l.Crop
	if crop.IsZero() {
		crop = geometry.FullCrop(float64(b.Dx()), float64(b.Dy()))
	}
	crop = crop.Clamp(float64(b.Dx()), float64(b.Dy()))

	sr := image.Rect(
		b.Min.X+int(math.Floor(crop.X)),
		b.Min.Y+int(math.Floor(crop.Y)),
		b.Min.X+int(math.Ceil(crop.X+crop.Width)),
		b.Min.Y+int(math.Ceil(crop.Y+crop.Height)),
	).Intersect(b)
	if sr.Empty() {
		return
	}

	// Source pixels -> crop space -> display size -> canvas
	s2d := placement(l, origin).
		Compose(geometry.Scale(l.Width/crop.Width, l.Height/crop.Height)).
		Compose(geometry.Translation(-(float64(b.Min.X) + crop.X), -(float64(b.Min.Y) + crop.Y)))

	xdraw.CatmullRom.Transform(dst, aff3(s2d), l.Bitmap, sr, xdraw.Over, nil)
}

// paintShape fills mask with c, mapping the mask's origin to the layer
// anchor shifted by offset on both axes (circles are centre-anchored).
func paintShape(dst *image.RGBA, l layer.Layer, origin geometry.Point2D, mask *image.Alpha, c color.RGBA, offset float64) {
	if mask == nil {
		return
	}
	if l.Rotation == 0 && offset == 0 && isIntegral(l.X-origin.X) && isIntegral(l.Y-origin.Y) {
		pt := image.Pt(int(l.X-origin.X), int(l.Y-origin.Y))
		r := mask.Bounds().Add(pt)
		draw.DrawMask(dst, r, &image.Uniform{C: c}, image.Point{}, mask, image.Point{}, draw.Over)
		return
	}

	src := image.NewRGBA(mask.Bounds())
	draw.DrawMask(src, src.Bounds(), &image.Uniform{C: c}, image.Point{}, mask, image.Point{}, draw.Src)

	s2d := placement(l, origin).Compose(geometry.Translation(offset, offset))
	xdraw.ApproxBiLinear.Transform(dst, aff3(s2d), src, src.Bounds(), xdraw.Over, nil)
}

func isIntegral(v float64) bool {
	return v == math.Trunc(v)
}

func rectMask(w, h float64) *image.Alpha {
	iw, ih := int(math.Round(w)), int(math.Round(h))
	if iw <= 0 || ih <= 0 {
		return nil
	}
	m := image.NewAlpha(image.Rect(0, 0, iw, ih))
	draw.Draw(m, m.Bounds(), image.Opaque, image.Point{}, draw.Src)
	return m
}

// circleMask returns an anti-aliased disc of the given radius.
func circleMask(radius float64) *image.Alpha {
	size := int(math.Ceil(radius * 2))
	if size <= 0 {
		return nil
	}
	m := image.NewAlpha(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - radius
			dy := float64(y) + 0.5 - radius
			cover := geometry.Clamp(radius-math.Sqrt(dx*dx+dy*dy)+0.5, 0, 1)
			m.SetAlpha(x, y, color.Alpha{A: uint8(cover * 255)})
		}
	}
	return m
}

func (s *Scene) paintText(dst *image.RGBA, l layer.Layer, origin geometry.Point2D) {
	fonts := s.Fonts
	if fonts == nil {
		fonts = NewFonts()
	}
	face, err := fonts.Face(l.FontFamily, l.FontSize)
	if err != nil {
		logrus.WithError(err).WithField("layer_id", l.ID).Warn("Skipping text layer")
		return
	}

	lines := WrapText(face, l.Text, l.BoxWidth)
	lineH := l.FontSize * layer.LineHeight
	w := int(math.Ceil(l.BoxWidth))
	h := int(math.Ceil(float64(len(lines)) * lineH))
	if w <= 0 || h <= 0 {
		return
	}

	src := image.NewRGBA(image.Rect(0, 0, w, h))
	fill := colorutil.Premultiply(colorutil.ParseOr(l.Fill, colorutil.Black))
	m := face.Metrics()
	ascent := float64(m.Ascent) / 64
	glyphH := float64(m.Ascent+m.Descent) / 64

	d := &font.Drawer{Dst: src, Src: image.NewUniform(fill), Face: face}
	for i, line := range lines {
		x := 0.0
		switch l.Align {
		case layer.AlignCenter:
			x = (l.BoxWidth - measure(face, line)) / 2
		case layer.AlignRight:
			x = l.BoxWidth - measure(face, line)
		}
		baseline := float64(i)*lineH + (lineH-glyphH)/2 + ascent
		d.Dot = fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(baseline * 64)}
		d.DrawString(line)
	}

	if l.Rotation == 0 && isIntegral(l.X-origin.X) && isIntegral(l.Y-origin.Y) {
		pt := image.Pt(int(l.X-origin.X), int(l.Y-origin.Y))
		draw.Draw(dst, src.Bounds().Add(pt), src, image.Point{}, draw.Over)
		return
	}
	xdraw.ApproxBiLinear.Transform(dst, aff3(placement(l, origin)), src, src.Bounds(), xdraw.Over, nil)
}
