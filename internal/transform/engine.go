// Package transform turns raw move/scale/rotate gestures into new layer
// state, following each layer type's resize policy.
package transform

import (
	"math"

	"layer-composer/internal/config"
	"layer-composer/internal/layer"
	"layer-composer/pkg/geometry"
)

// Phase distinguishes continuous drag ticks from the final release.
type Phase int

const (
	Live   Phase = iota // Preview update, never recorded in history
	Commit              // Gesture finished, recorded in history
)

func (p Phase) String() string {
	if p == Commit {
		return "commit"
	}
	return "live"
}

// axisEpsilon is how close to 1 a scale factor must be to count as unchanged.
const axisEpsilon = 0.01

// Delta is a raw transform gesture relative to the layer's prior state.
// Zero scale factors mean "unchanged".
type Delta struct {
	DX, DY         float64
	ScaleX, ScaleY float64
	Rotation       float64 // Degrees, added to the current rotation
}

// Move returns a translation-only delta.
func Move(dx, dy float64) Delta {
	return Delta{DX: dx, DY: dy, ScaleX: 1, ScaleY: 1}
}

// Resize returns a scale-only delta.
func Resize(sx, sy float64) Delta {
	return Delta{ScaleX: sx, ScaleY: sy}
}

func (d Delta) scales() (float64, float64) {
	sx, sy := math.Abs(d.ScaleX), math.Abs(d.ScaleY)
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return sx, sy
}

// Engine applies deltas with the configured size floors.
type Engine struct {
	MinSize     float64
	MinFontSize float64
}

// NewEngine creates an engine using the settings' floors.
func NewEngine(s config.Settings) *Engine {
	return &Engine{MinSize: s.MinSize, MinFontSize: s.MinFontSize}
}

// Apply returns the layer after the delta. Position and rotation are applied
// to every type; scale is consumed into pixel dimensions and never stored.
func (e *Engine) Apply(l layer.Layer, d Delta) layer.Layer {
	l.X += d.DX
	l.Y += d.DY
	l.Rotation = geometry.NormalizeDegrees(l.Rotation + d.Rotation)

	sx, sy := d.scales()
	switch l.Type {
	case layer.TypeRectangle:
		l.Width = geometry.AtLeast(l.Width*sx, e.MinSize)
		l.Height = geometry.AtLeast(l.Height*sy, e.MinSize)
	case layer.TypeCircle:
		l.Radius = geometry.AtLeast(l.Radius*(sx+sy)/2, e.MinSize)
	case layer.TypeText:
		l = e.resizeText(l, sx, sy)
	case layer.TypeImage:
		l = e.resizeImage(l, sx, sy)
	}
	return l
}

func unchanged(s float64) bool {
	return math.Abs(s-1) <= axisEpsilon
}

// resizeText reflows on a pure horizontal drag, and scales the font on any
// other drag.
func (e *Engine) resizeText(l layer.Layer, sx, sy float64) layer.Layer {
	if unchanged(sx) && unchanged(sy) {
		return l
	}
	if unchanged(sy) {
		l.BoxWidth = geometry.AtLeast(l.BoxWidth*sx, e.MinSize)
		return l
	}

	avg := (sx + sy) / 2
	l.FontSize = geometry.AtLeast(l.FontSize*avg, e.MinFontSize)
	l.BoxWidth = geometry.AtLeast(l.BoxWidth*sx, e.MinSize)
	if l.Height > 0 {
		l.Height = geometry.AtLeast(l.Height*avg, l.FontSize*layer.LineHeight)
	}
	return l
}

// resizeImage updates the displayed size and, when the aspect ratio changes,
// re-crops the source so the image fills the new frame without distortion.
func (e *Engine) resizeImage(l layer.Layer, sx, sy float64) layer.Layer {
	prevAspect := 0.0
	if l.Height > 0 {
		prevAspect = l.Width / l.Height
	}

	l.Width = geometry.AtLeast(l.Width*sx, e.MinSize)
	l.Height = geometry.AtLeast(l.Height*sy, e.MinSize)

	if l.OriginalWidth <= 0 || l.OriginalHeight <= 0 {
		return l
	}
	if l.Crop.IsZero() {
		l.Crop = geometry.FullCrop(l.OriginalWidth, l.OriginalHeight)
	}

	newAspect := l.Width / l.Height
	if math.Abs(newAspect-prevAspect) > geometry.AspectEpsilon {
		l.Crop = geometry.FitCrop(l.OriginalWidth, l.OriginalHeight, newAspect)
	} else {
		l.Crop = l.Crop.Clamp(l.OriginalWidth, l.OriginalHeight)
	}
	return l
}

// Clamp enforces the size floors without applying a gesture. It is used on
// layers entering the store from outside (paste, documents).
func (e *Engine) Clamp(l layer.Layer) layer.Layer {
	switch l.Type {
	case layer.TypeRectangle, layer.TypeImage:
		l.Width = geometry.AtLeast(l.Width, e.MinSize)
		l.Height = geometry.AtLeast(l.Height, e.MinSize)
		if l.Type == layer.TypeImage && l.OriginalWidth > 0 && l.OriginalHeight > 0 {
			if l.Crop.IsZero() {
				l.Crop = geometry.FullCrop(l.OriginalWidth, l.OriginalHeight)
			}
			l.Crop = l.Crop.Clamp(l.OriginalWidth, l.OriginalHeight)
		}
	case layer.TypeCircle:
		l.Radius = geometry.AtLeast(l.Radius, e.MinSize)
	case layer.TypeText:
		l.FontSize = geometry.AtLeast(l.FontSize, e.MinFontSize)
		l.BoxWidth = geometry.AtLeast(l.BoxWidth, e.MinSize)
	}
	return l
}
