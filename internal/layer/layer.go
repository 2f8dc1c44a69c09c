// Package layer defines the composition's visual layers and the ordered
// store that owns them.
package layer

import (
	"fmt"
	"image"
	"math"

	"layer-composer/pkg/geometry"
)

// Type identifies the kind of visual a layer draws.
type Type string

const (
	TypeImage     Type = "image"
	TypeText      Type = "text"
	TypeRectangle Type = "rectangle"
	TypeCircle    Type = "circle"
)

// Valid reports whether t is a known layer type.
func (t Type) Valid() bool {
	switch t {
	case TypeImage, TypeText, TypeRectangle, TypeCircle:
		return true
	}
	return false
}

// BackgroundName is the reserved name of the initially loaded image.
const BackgroundName = "Background"

// Text alignment values.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// LineHeight is the text line height as a multiple of the font size.
const LineHeight = 1.2

// Layer is one visual element of the composition.
//
// Image, text and rectangle layers are positioned by their top-left corner;
// circles by their centre. Rotation (degrees, clockwise) pivots on (X, Y).
type Layer struct {
	ID       string  `json:"id"`
	Type     Type    `json:"type"`
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Radius   float64 `json:"radius,omitempty"`
	Visible  bool    `json:"visible"`
	Locked   bool    `json:"locked"`

	// Image payload. Bitmap is the live decoded handle and is never
	// serialized; BitmapSource is the surrogate it is reloaded from.
	Bitmap         image.Image   `json:"-"`
	BitmapSource   string        `json:"bitmapSource,omitempty"`
	OriginalWidth  float64       `json:"originalWidth,omitempty"`
	OriginalHeight float64       `json:"originalHeight,omitempty"`
	Crop           geometry.Crop `json:"crop,omitempty"`
	Broken         bool          `json:"broken,omitempty"`

	// Text payload
	Text       string  `json:"text,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	BoxWidth   float64 `json:"boxWidth,omitempty"`
	Align      string  `json:"align,omitempty"`

	// Shared by text, rectangle and circle
	Fill string `json:"fill,omitempty"`
}

// NewImage creates an image layer displaying the full bitmap at its native size.
func NewImage(name, source string, bitmap image.Image) Layer {
	l := Layer{
		Type:         TypeImage,
		Name:         name,
		Visible:      true,
		Bitmap:       bitmap,
		BitmapSource: source,
	}
	if bitmap != nil {
		b := bitmap.Bounds()
		l.OriginalWidth = float64(b.Dx())
		l.OriginalHeight = float64(b.Dy())
		l.Width = l.OriginalWidth
		l.Height = l.OriginalHeight
		l.Crop = geometry.FullCrop(l.OriginalWidth, l.OriginalHeight)
	}
	return l
}

// NewText creates a text layer.
func NewText(text string, x, y, fontSize float64) Layer {
	return Layer{
		Type:       TypeText,
		Name:       "Text",
		X:          x,
		Y:          y,
		Visible:    true,
		Text:       text,
		FontSize:   fontSize,
		FontFamily: "Go",
		Fill:       "#000000",
		BoxWidth:   200,
		Height:     fontSize * LineHeight,
		Align:      AlignLeft,
	}
}

// NewRectangle creates a filled rectangle layer.
func NewRectangle(x, y, width, height float64, fill string) Layer {
	return Layer{
		Type:    TypeRectangle,
		Name:    "Rectangle",
		X:       x,
		Y:       y,
		Width:   width,
		Height:  height,
		Visible: true,
		Fill:    fill,
	}
}

// NewCircle creates a filled circle layer centred on (x, y).
func NewCircle(x, y, radius float64, fill string) Layer {
	return Layer{
		Type:    TypeCircle,
		Name:    "Circle",
		X:       x,
		Y:       y,
		Radius:  radius,
		Visible: true,
		Fill:    fill,
	}
}

// IsBackground reports whether this is the initially loaded image.
func (l Layer) IsBackground() bool {
	return l.Type == TypeImage && l.Name == BackgroundName
}

// Size returns the layer's unrotated width and height.
func (l Layer) Size() geometry.Size {
	switch l.Type {
	case TypeCircle:
		return geometry.NewSize(l.Radius*2, l.Radius*2)
	case TypeText:
		h := l.Height
		if h <= 0 {
			h = l.FontSize * LineHeight
		}
		return geometry.NewSize(l.BoxWidth, h)
	default:
		return geometry.NewSize(l.Width, l.Height)
	}
}

// LocalRect returns the unrotated rectangle the layer occupies.
func (l Layer) LocalRect() geometry.Rect {
	s := l.Size()
	if l.Type == TypeCircle {
		return geometry.NewRect(l.X-l.Radius, l.Y-l.Radius, s.Width, s.Height)
	}
	return geometry.NewRect(l.X, l.Y, s.Width, s.Height)
}

// Bounds returns the axis-aligned bounding box of the layer on the canvas,
// accounting for rotation. Circles are rotation invariant.
func (l Layer) Bounds() geometry.Rect {
	r := l.LocalRect()
	if l.Type == TypeCircle || l.Rotation == 0 {
		return r
	}
	return geometry.RotatedBounds(r, l.Rotation, geometry.Point2D{X: l.X, Y: l.Y})
}

// Clone returns a copy of the layer. The bitmap handle is shared; it is
// treated as immutable once decoded.
func (l Layer) Clone() Layer {
	return l
}

// Validate reports why a layer record cannot be restored, or nil.
func (l Layer) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("layer has no id")
	}
	if !l.Type.Valid() {
		return fmt.Errorf("layer %s: unknown type %q", l.ID, l.Type)
	}
	bad := func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }
	if bad(l.X) || bad(l.Y) || bad(l.Rotation) {
		return fmt.Errorf("layer %s: non-finite position", l.ID)
	}

	switch l.Type {
	case TypeImage:
		if l.BitmapSource == "" {
			return fmt.Errorf("layer %s: image without bitmap source", l.ID)
		}
		if l.Width <= 0 || l.Height <= 0 {
			return fmt.Errorf("layer %s: image has no size", l.ID)
		}
	case TypeText:
		if l.FontSize <= 0 {
			return fmt.Errorf("layer %s: text has no font size", l.ID)
		}
	case TypeRectangle:
		if l.Width <= 0 || l.Height <= 0 {
			return fmt.Errorf("layer %s: rectangle has no size", l.ID)
		}
	case TypeCircle:
		if l.Radius <= 0 {
			return fmt.Errorf("layer %s: circle has no radius", l.ID)
		}
	}
	return nil
}
