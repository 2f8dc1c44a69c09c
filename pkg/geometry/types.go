// Package geometry provides basic geometric types used throughout the composer.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add offsets p by other.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Rect is an axis-aligned rectangle in canvas units.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect creates a new Rect.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

func (r Rect) Left() float64    { return r.X }
func (r Rect) Right() float64   { return r.X + r.Width }
func (r Rect) Top() float64     { return r.Y }
func (r Rect) Bottom() float64  { return r.Y + r.Height }
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// Center returns the center point of the rectangle.
func (r Rect) Center() Point2D {
	return Point2D{X: r.CenterX(), Y: r.CenterY()}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point2D) bool {
	return p.X >= r.X && p.X <= r.Right() &&
		p.Y >= r.Y && p.Y <= r.Bottom()
}

// Intersects reports whether the interiors of r and other overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.Right() && r.Right() > other.X &&
		r.Y < other.Bottom() && r.Bottom() > other.Y
}

// Size represents a 2D size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewSize creates a new Size.
func NewSize(width, height float64) Size {
	return Size{Width: width, Height: height}
}

// AffineTransform represents a 2x3 affine transformation matrix.
// [a b tx]
// [c d ty]
type AffineTransform struct {
	A, B, TX float64
	C, D, TY float64
}

// Translation returns a translation transform.
func Translation(tx, ty float64) AffineTransform {
	return AffineTransform{A: 1, D: 1, TX: tx, TY: ty}
}

// RotationDegrees rotates around the origin. Positive angles turn
// clockwise on screen, where y points down.
func RotationDegrees(degrees float64) AffineTransform {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	return AffineTransform{A: cos, B: -sin, C: sin, D: cos}
}

// Scale returns a scaling transform.
func Scale(sx, sy float64) AffineTransform {
	return AffineTransform{A: sx, D: sy}
}

// Apply applies the transform to a point.
func (t AffineTransform) Apply(p Point2D) Point2D {
	return Point2D{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// Compose returns this transform composed with another (this * other).
func (t AffineTransform) Compose(other AffineTransform) AffineTransform {
	return AffineTransform{
		A:  t.A*other.A + t.B*other.C,
		B:  t.A*other.B + t.B*other.D,
		TX: t.A*other.TX + t.B*other.TY + t.TX,
		C:  t.C*other.A + t.D*other.C,
		D:  t.C*other.B + t.D*other.D,
		TY: t.C*other.TX + t.D*other.TY + t.TY,
	}
}

// Inverse returns the inverse transform, if it exists.
func (t AffineTransform) Inverse() (AffineTransform, bool) {
	det := t.A*t.D - t.B*t.C
	if math.Abs(det) < 1e-10 {
		return AffineTransform{}, false
	}

	invDet := 1.0 / det
	return AffineTransform{
		A:  t.D * invDet,
		B:  -t.B * invDet,
		TX: (t.B*t.TY - t.D*t.TX) * invDet,
		C:  -t.C * invDet,
		D:  t.A * invDet,
		TY: (t.C*t.TX - t.A*t.TY) * invDet,
	}, true
}

// Dense returns the transform as a 3x3 homogeneous gonum matrix.
func (t AffineTransform) Dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		t.A, t.B, t.TX,
		t.C, t.D, t.TY,
		0, 0, 1,
	})
}

// TransformedBounds returns the axis-aligned bounding box of r after applying t.
// All four corners are mapped in a single matrix product.
func TransformedBounds(r Rect, t AffineTransform) Rect {
	corners := mat.NewDense(3, 4, []float64{
		r.Left(), r.Right(), r.Right(), r.Left(),
		r.Top(), r.Top(), r.Bottom(), r.Bottom(),
		1, 1, 1, 1,
	})

	var out mat.Dense
	out.Mul(t.Dense(), corners)

	xs := mat.Row(nil, 0, &out)
	ys := mat.Row(nil, 1, &out)
	minX, maxX := floats.Min(xs), floats.Max(xs)
	minY, maxY := floats.Min(ys), floats.Max(ys)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// RotatedBounds returns the bounding box of r rotated by degrees around pivot.
func RotatedBounds(r Rect, degrees float64, pivot Point2D) Rect {
	if math.Mod(degrees, 360) == 0 {
		return r
	}
	t := Translation(pivot.X, pivot.Y).
		Compose(RotationDegrees(degrees)).
		Compose(Translation(-pivot.X, -pivot.Y))
	return TransformedBounds(r, t)
}
