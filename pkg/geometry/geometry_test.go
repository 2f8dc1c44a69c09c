package geometry

import (
	"math"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRotatedBounds(t *testing.T) {
	r := NewRect(0, 0, 10, 20)
	if got := RotatedBounds(r, 360, Point2D{}); got != r {
		t.Errorf("full turn changed bounds: %+v", got)
	}

	b := RotatedBounds(r, 90, Point2D{})
	if !near(b.Width, 20) || !near(b.Height, 10) {
		t.Errorf("90 degree bounds = %+v, want 20x10", b)
	}

	sq := RotatedBounds(NewRect(0, 0, 10, 10), 45, Point2D{X: 5, Y: 5})
	want := 10 * math.Sqrt2
	if !near(sq.Width, want) || !near(sq.Height, want) {
		t.Errorf("45 degree bounds = %+v, want %v square", sq, want)
	}
	if !near(sq.CenterX(), 5) || !near(sq.CenterY(), 5) {
		t.Errorf("rotation about centre moved it: %+v", sq.Center())
	}
}

func TestAffineInverse(t *testing.T) {
	tr := Translation(3, -4).Compose(RotationDegrees(30)).Compose(Scale(2, 0.5))
	inv, ok := tr.Inverse()
	if !ok {
		t.Fatal("transform should be invertible")
	}
	p := Point2D{X: 7, Y: 11}
	back := inv.Apply(tr.Apply(p))
	if !near(back.X, p.X) || !near(back.Y, p.Y) {
		t.Errorf("round trip = %+v, want %+v", back, p)
	}
	if _, ok := Scale(0, 1).Inverse(); ok {
		t.Error("degenerate scale should not invert")
	}
}

func TestFitCrop(t *testing.T) {
	tests := []struct {
		name   string
		aspect float64
		want   Crop
	}{
		{"square view trims width", 1, Crop{X: 25, Y: 0, Width: 50, Height: 50}},
		{"wide view trims height", 4, Crop{X: 0, Y: 12.5, Width: 100, Height: 25}},
		{"same aspect keeps everything", 2, Crop{Width: 100, Height: 50}},
		{"invalid aspect keeps everything", 0, Crop{Width: 100, Height: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitCrop(100, 50, tt.aspect)
			if got != tt.want {
				t.Errorf("FitCrop() = %+v, want %+v", got, tt.want)
			}
			if !got.Within(100, 50) {
				t.Errorf("crop %+v escapes source", got)
			}
		})
	}
}

func TestCropClamp(t *testing.T) {
	c := Crop{X: 90, Y: -5, Width: 30, Height: 500}.Clamp(100, 50)
	want := Crop{X: 70, Y: 0, Width: 30, Height: 50}
	if c != want {
		t.Errorf("Clamp() = %+v, want %+v", c, want)
	}
}

func TestScalarHelpers(t *testing.T) {
	if got := AtLeast(math.NaN(), 5); got != 5 {
		t.Errorf("AtLeast(NaN) = %v", got)
	}
	if got := ZoomThreshold(5, 2); got != 2.5 {
		t.Errorf("ZoomThreshold(5, 2) = %v", got)
	}
	if got := ZoomThreshold(5, 0); got != 5 {
		t.Errorf("ZoomThreshold(5, 0) = %v", got)
	}
	if got := SnapToGrid(29, 20); got != 20 {
		t.Errorf("SnapToGrid(29, 20) = %v", got)
	}
	if got := SnapToGrid(31, 20); got != 40 {
		t.Errorf("SnapToGrid(31, 20) = %v", got)
	}
	if got := NormalizeDegrees(-90); got != 270 {
		t.Errorf("NormalizeDegrees(-90) = %v", got)
	}
	if got := NormalizeDegrees(720); got != 0 {
		t.Errorf("NormalizeDegrees(720) = %v", got)
	}
}
