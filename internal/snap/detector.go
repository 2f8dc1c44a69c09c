package snap

import (
	"math"
	"strconv"

	"layer-composer/internal/config"
	"layer-composer/pkg/geometry"
)

// Target is a sibling layer the moving box can align to.
type Target struct {
	ID     string
	Name   string
	Bounds geometry.Rect
}

// Options configures a detection pass.
type Options struct {
	Threshold     float64 // Screen units; divided by Zoom
	Zoom          float64
	SameSizeDelta float64
	GridEnabled   bool
	GridSize      float64
	Canvas        geometry.Size
}

// OptionsFrom builds detection options from editor settings.
func OptionsFrom(s config.Settings, canvas geometry.Size, zoom float64) Options {
	return Options{
		Threshold:     s.SnapThreshold,
		Zoom:          zoom,
		SameSizeDelta: s.SameSizeDelta,
		GridEnabled:   s.GridEnabled,
		GridSize:      s.GridSize,
		Canvas:        canvas,
	}
}

// Result is the outcome of a detection pass.
type Result struct {
	Position geometry.Point2D // Snapped top-left of the moving box
	Offset   geometry.Point2D // Position minus the input box origin
	Guides   []Guide
}

// candidate is one potential alignment on a single axis.
type candidate struct {
	offset float64 // Amount to add to the moving box
	dist   float64
	guide  Guide
}

// axis tracks the best candidate on one axis. Ties keep the earlier
// candidate, so evaluation order (canvas first, then targets in paint order)
// is the tie-break.
type axis struct {
	best  *candidate
	found []Guide
}

func (a *axis) consider(moving, target float64, threshold float64, g Guide) {
	offset := target - moving
	dist := math.Abs(offset)
	if dist > threshold {
		return
	}
	off := offset
	g.SnapOffset = &off
	a.found = append(a.found, g)
	if a.best == nil || dist < a.best.dist {
		a.best = &candidate{offset: offset, dist: dist, guide: g}
	}
}

// Detect compares the moving box against the canvas and the targets and
// returns the snapped position with every guide that fired. Alignment
// snapping is per axis, nearest candidate wins. With the grid enabled the
// final position is rounded to the grid, overriding alignment.
func Detect(moving geometry.Rect, targets []Target, opts Options) Result {
	threshold := geometry.ZoomThreshold(opts.Threshold, opts.Zoom)
	var xs, ys axis

	if opts.Canvas.Width > 0 && opts.Canvas.Height > 0 {
		cw, ch := opts.Canvas.Width, opts.Canvas.Height

		xs.consider(moving.CenterX(), cw/2, threshold, Guide{Orientation: Vertical, Position: cw / 2, Label: "Center", Kind: KindCanvasCenter})
		ys.consider(moving.CenterY(), ch/2, threshold, Guide{Orientation: Horizontal, Position: ch / 2, Label: "Center", Kind: KindCanvasCenter})

		xs.consider(moving.Left(), 0, threshold, Guide{Orientation: Vertical, Position: 0, Label: "0", Kind: KindCanvasEdge})
		xs.consider(moving.Right(), cw, threshold, Guide{Orientation: Vertical, Position: cw, Label: formatUnits(cw), Kind: KindCanvasEdge})
		ys.consider(moving.Top(), 0, threshold, Guide{Orientation: Horizontal, Position: 0, Label: "0", Kind: KindCanvasEdge})
		ys.consider(moving.Bottom(), ch, threshold, Guide{Orientation: Horizontal, Position: ch, Label: formatUnits(ch), Kind: KindCanvasEdge})
	}

	var info []Guide
	for _, t := range targets {
		b := t.Bounds
		v := func(pos float64, label string, kind Kind) Guide {
			return Guide{Orientation: Vertical, Position: pos, Label: label, Kind: kind, TargetID: t.ID}
		}
		h := func(pos float64, label string, kind Kind) Guide {
			return Guide{Orientation: Horizontal, Position: pos, Label: label, Kind: kind, TargetID: t.ID}
		}

		// Like edges and centres
		xs.consider(moving.Left(), b.Left(), threshold, v(b.Left(), "Left", KindEdge))
		xs.consider(moving.Right(), b.Right(), threshold, v(b.Right(), "Right", KindEdge))
		xs.consider(moving.CenterX(), b.CenterX(), threshold, v(b.CenterX(), "Center", KindCenter))
		ys.consider(moving.Top(), b.Top(), threshold, h(b.Top(), "Top", KindEdge))
		ys.consider(moving.Bottom(), b.Bottom(), threshold, h(b.Bottom(), "Bottom", KindEdge))
		ys.consider(moving.CenterY(), b.CenterY(), threshold, h(b.CenterY(), "Middle", KindCenter))

		// Edges against the opposite box's centre
		xs.consider(moving.Left(), b.CenterX(), threshold, v(b.CenterX(), "Left to center", KindEdgeCenter))
		xs.consider(moving.Right(), b.CenterX(), threshold, v(b.CenterX(), "Right to center", KindEdgeCenter))
		xs.consider(moving.CenterX(), b.Left(), threshold, v(b.Left(), "Center to left", KindEdgeCenter))
		xs.consider(moving.CenterX(), b.Right(), threshold, v(b.Right(), "Center to right", KindEdgeCenter))
		ys.consider(moving.Top(), b.CenterY(), threshold, h(b.CenterY(), "Top to middle", KindEdgeCenter))
		ys.consider(moving.Bottom(), b.CenterY(), threshold, h(b.CenterY(), "Bottom to middle", KindEdgeCenter))
		ys.consider(moving.CenterY(), b.Top(), threshold, h(b.Top(), "Middle to top", KindEdgeCenter))
		ys.consider(moving.CenterY(), b.Bottom(), threshold, h(b.Bottom(), "Middle to bottom", KindEdgeCenter))

		// Informational only
		if opts.SameSizeDelta > 0 {
			if math.Abs(moving.Width-b.Width) < opts.SameSizeDelta {
				info = append(info, Guide{Orientation: Horizontal, Position: b.Bottom(), Label: "Same width " + formatUnits(b.Width), Kind: KindSameSize, TargetID: t.ID})
			}
			if math.Abs(moving.Height-b.Height) < opts.SameSizeDelta {
				info = append(info, Guide{Orientation: Vertical, Position: b.Right(), Label: "Same height " + formatUnits(b.Height), Kind: KindSameSize, TargetID: t.ID})
			}
		}
	}

	pos := geometry.Point2D{X: moving.X, Y: moving.Y}
	if xs.best != nil {
		pos.X += xs.best.offset
	}
	if ys.best != nil {
		pos.Y += ys.best.offset
	}

	guides := make([]Guide, 0, len(xs.found)+len(ys.found)+len(info)+2)
	guides = append(guides, xs.found...)
	guides = append(guides, ys.found...)
	guides = append(guides, info...)

	if opts.GridEnabled && opts.GridSize > 0 {
		gx := geometry.SnapToGrid(pos.X, opts.GridSize)
		gy := geometry.SnapToGrid(pos.Y, opts.GridSize)
		offX, offY := gx-moving.X, gy-moving.Y
		guides = append(guides,
			Guide{Orientation: Vertical, Position: gx, SnapOffset: &offX, Label: "Grid", Kind: KindGrid},
			Guide{Orientation: Horizontal, Position: gy, SnapOffset: &offY, Label: "Grid", Kind: KindGrid},
		)
		pos = geometry.Point2D{X: gx, Y: gy}
	}

	return Result{
		Position: pos,
		Offset:   geometry.Point2D{X: pos.X - moving.X, Y: pos.Y - moving.Y},
		Guides:   guides,
	}
}

func formatUnits(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
