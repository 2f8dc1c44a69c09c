package geometry

import "math"

// AspectEpsilon is the smallest aspect-ratio change treated as a reshape
// rather than a proportional resize.
const AspectEpsilon = 0.01

// Crop is the visible sub-rectangle of a source bitmap, in source pixels.
type Crop struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FullCrop returns a crop covering the whole source.
func FullCrop(srcW, srcH float64) Crop {
	return Crop{Width: srcW, Height: srcH}
}

// Aspect returns width/height, or 0 for a degenerate crop.
func (c Crop) Aspect() float64 {
	if c.Height <= 0 {
		return 0
	}
	return c.Width / c.Height
}

// IsZero reports whether no crop has been set.
func (c Crop) IsZero() bool {
	return c.Width == 0 && c.Height == 0
}

// Clamp forces the crop inside a srcW x srcH source.
func (c Crop) Clamp(srcW, srcH float64) Crop {
	if srcW <= 0 || srcH <= 0 {
		return Crop{}
	}
	c.Width = Clamp(c.Width, 1, srcW)
	c.Height = Clamp(c.Height, 1, srcH)
	c.X = Clamp(c.X, 0, srcW-c.Width)
	c.Y = Clamp(c.Y, 0, srcH-c.Height)
	return c
}

// Within reports whether the crop lies inside a srcW x srcH source.
func (c Crop) Within(srcW, srcH float64) bool {
	const eps = 1e-9
	return c.X >= -eps && c.Y >= -eps &&
		c.X+c.Width <= srcW+eps && c.Y+c.Height <= srcH+eps
}

// FitCrop computes the centered crop of a srcW x srcH source that fills a
// viewport of the given aspect. A viewport wider than the source keeps the
// full source width and trims height; a taller one keeps the full height.
func FitCrop(srcW, srcH, viewAspect float64) Crop {
	if srcW <= 0 || srcH <= 0 || viewAspect <= 0 || math.IsInf(viewAspect, 0) {
		return FullCrop(srcW, srcH)
	}

	srcAspect := srcW / srcH
	var c Crop
	if viewAspect > srcAspect {
		c.Width = srcW
		c.Height = srcW / viewAspect
		c.Y = (srcH - c.Height) / 2
	} else {
		c.Height = srcH
		c.Width = srcH * viewAspect
		c.X = (srcW - c.Width) / 2
	}
	return c.Clamp(srcW, srcH)
}
