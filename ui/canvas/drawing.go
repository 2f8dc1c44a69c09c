// Package canvas provides drawing primitives for the editor canvas.
package canvas

import (
	"image"
	"image/color"
	"math"

	"layer-composer/internal/export"
	"layer-composer/internal/layer"
	"layer-composer/internal/snap"
	"layer-composer/pkg/geometry"
)

// digitPatterns contains 3x5 pixel patterns for digits 0-9.
// Each digit is represented as 5 rows of 3 bits.
var digitPatterns = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111}, // 0
	{0b010, 0b110, 0b010, 0b010, 0b111}, // 1
	{0b111, 0b001, 0b111, 0b100, 0b111}, // 2
	{0b111, 0b001, 0b111, 0b001, 0b111}, // 3
	{0b101, 0b101, 0b111, 0b001, 0b001}, // 4
	{0b111, 0b100, 0b111, 0b001, 0b111}, // 5
	{0b111, 0b100, 0b111, 0b101, 0b111}, // 6
	{0b111, 0b001, 0b001, 0b001, 0b001}, // 7
	{0b111, 0b101, 0b111, 0b101, 0b111}, // 8
	{0b111, 0b101, 0b111, 0b001, 0b111}, // 9
}

// letterPatterns contains 3x5 pixel patterns for guide label characters.
var letterPatterns = map[rune][5]uint8{
	'A': {0b010, 0b101, 0b111, 0b101, 0b101},
	'B': {0b110, 0b101, 0b110, 0b101, 0b110},
	'C': {0b011, 0b100, 0b100, 0b100, 0b011},
	'D': {0b110, 0b101, 0b101, 0b101, 0b110},
	'E': {0b111, 0b100, 0b110, 0b100, 0b111},
	'F': {0b111, 0b100, 0b110, 0b100, 0b100},
	'G': {0b011, 0b100, 0b101, 0b101, 0b011},
	'H': {0b101, 0b101, 0b111, 0b101, 0b101},
	'I': {0b111, 0b010, 0b010, 0b010, 0b111},
	'J': {0b001, 0b001, 0b001, 0b101, 0b010},
	'K': {0b101, 0b101, 0b110, 0b101, 0b101},
	'L': {0b100, 0b100, 0b100, 0b100, 0b111},
	'M': {0b101, 0b111, 0b101, 0b101, 0b101},
	'N': {0b101, 0b111, 0b111, 0b101, 0b101},
	'O': {0b010, 0b101, 0b101, 0b101, 0b010},
	'P': {0b110, 0b101, 0b110, 0b100, 0b100},
	'Q': {0b010, 0b101, 0b101, 0b111, 0b011},
	'R': {0b110, 0b101, 0b110, 0b101, 0b101},
	'S': {0b011, 0b100, 0b010, 0b001, 0b110},
	'T': {0b111, 0b010, 0b010, 0b010, 0b010},
	'U': {0b101, 0b101, 0b101, 0b101, 0b111},
	'V': {0b101, 0b101, 0b101, 0b101, 0b010},
	'W': {0b101, 0b101, 0b101, 0b111, 0b101},
	'X': {0b101, 0b101, 0b010, 0b101, 0b101},
	'Y': {0b101, 0b101, 0b010, 0b010, 0b010},
	'Z': {0b111, 0b001, 0b010, 0b100, 0b111},
	'.': {0b000, 0b000, 0b000, 0b000, 0b010},
	'-': {0b000, 0b000, 0b111, 0b000, 0b000},
	' ': {0b000, 0b000, 0b000, 0b000, 0b000},
}

func charPattern(ch rune) [5]uint8 {
	if ch >= '0' && ch <= '9' {
		return digitPatterns[ch-'0']
	}
	if ch >= 'a' && ch <= 'z' {
		ch = ch - 'a' + 'A'
	}
	return letterPatterns[ch]
}

// drawLabel draws text in the 3x5 pixel font on a filled box with its
// top-left corner at (x, y).
func drawLabel(output *image.RGBA, label string, x, y int, fg, bg color.RGBA, scale int) {
	if label == "" {
		return
	}
	if scale < 1 {
		scale = 1
	}
	runes := []rune(label)
	w := len(runes)*4*scale + scale
	h := 7 * scale
	fillRect(output, image.Rect(x, y, x+w, y+h), bg)

	bounds := output.Bounds()
	for i, ch := range runes {
		pattern := charPattern(ch)
		cx := x + scale + i*4*scale
		for row := 0; row < 5; row++ {
			for c := 0; c < 3; c++ {
				if pattern[row]&(1<<(2-c)) == 0 {
					continue
				}
				for dy := 0; dy < scale; dy++ {
					for dx := 0; dx < scale; dx++ {
						px := cx + c*scale + dx
						py := y + scale + row*scale + dy
						if image.Pt(px, py).In(bounds) {
							output.SetRGBA(px, py, fg)
						}
					}
				}
			}
		}
	}
}

func fillRect(output *image.RGBA, r image.Rectangle, col color.RGBA) {
	r = r.Intersect(output.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			output.SetRGBA(x, y, col)
		}
	}
}

// drawLine draws a line with the given thickness. dash > 0 draws a dashed
// line with dash-pixel segments.
func drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness, dash int) {
	dx := math.Abs(float64(x2 - x1))
	dy := math.Abs(float64(y2 - y1))
	steps := int(math.Max(dx, dy))
	if steps == 0 {
		steps = 1
	}
	half := thickness / 2
	bounds := output.Bounds()
	for i := 0; i <= steps; i++ {
		if dash > 0 && (i/dash)%2 == 1 {
			continue
		}
		t := float64(i) / float64(steps)
		x := int(math.Round(float64(x1) + t*float64(x2-x1)))
		y := int(math.Round(float64(y1) + t*float64(y2-y1)))
		for oy := -half; oy <= half; oy++ {
			for ox := -half; ox <= half; ox++ {
				if p := image.Pt(x+ox, y+oy); p.In(bounds) {
					output.SetRGBA(p.X, p.Y, col)
				}
			}
		}
	}
}

// drawCheckerboard fills output with the transparency pattern.
func drawCheckerboard(output *image.RGBA, style OverlayStyle) {
	b := output.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			output.SetRGBA(x, y, style.Checker[((x/checkerSize)+(y/checkerSize))%2])
		}
	}
}

// layerOutline returns the layer's corners in canvas units, following its
// rotation.
func layerOutline(l layer.Layer) [4]geometry.Point2D {
	r := l.LocalRect()
	corners := [4]geometry.Point2D{
		{X: r.Left(), Y: r.Top()},
		{X: r.Right(), Y: r.Top()},
		{X: r.Right(), Y: r.Bottom()},
		{X: r.Left(), Y: r.Bottom()},
	}
	if l.Rotation == 0 || l.Type == layer.TypeCircle {
		return corners
	}
	pivot := geometry.Point2D{X: l.X, Y: l.Y}
	rot := geometry.Translation(pivot.X, pivot.Y).
		Compose(geometry.RotationDegrees(l.Rotation)).
		Compose(geometry.Translation(-pivot.X, -pivot.Y))
	for i, c := range corners {
		corners[i] = rot.Apply(c)
	}
	return corners
}

// drawSelection outlines each selected layer.
func drawSelection(output *image.RGBA, layers []layer.Layer, zoom float64, style OverlayStyle) {
	for _, l := range layers {
		pts := layerOutline(l)
		for i := range pts {
			a, b := pts[i], pts[(i+1)%4]
			drawLine(output,
				int(a.X*zoom), int(a.Y*zoom),
				int(b.X*zoom), int(b.Y*zoom),
				style.Selection, 2, 0)
		}
		// Corner handles
		for _, p := range pts {
			x, y := int(p.X*zoom), int(p.Y*zoom)
			fillRect(output, image.Rect(x-3, y-3, x+4, y+4), style.Selection)
		}
	}
}

// drawGuides draws every active snap guide across the full canvas with its
// label.
func drawGuides(output *image.RGBA, guides []snap.Guide, zoom float64, style OverlayStyle) {
	b := output.Bounds()
	for _, g := range guides {
		pos := int(math.Round(g.Position * zoom))
		dash := 0
		if !g.Snaps() {
			dash = 4
		}
		switch g.Orientation {
		case snap.Vertical:
			drawLine(output, pos, b.Min.Y, pos, b.Max.Y-1, style.Guide, 1, dash)
			drawLabel(output, g.Label, pos+3, b.Min.Y+3, style.Label, style.Guide, 1)
		case snap.Horizontal:
			drawLine(output, b.Min.X, pos, b.Max.X-1, pos, style.Guide, 1, dash)
			drawLabel(output, g.Label, b.Min.X+3, pos+3, style.Label, style.Guide, 1)
		}
	}
}

// drawSlices draws the export grid using the same boundaries the exporter
// cuts along.
func drawSlices(output *image.RGBA, canvas geometry.Size, grid export.Grid, zoom float64, style OverlayStyle) {
	if grid.Validate() != nil || (grid.Rows == 1 && grid.Cols == 1) {
		return
	}
	b := output.Bounds()
	for _, x := range export.Boundaries(canvas.Width, grid.Cols) {
		px := int(math.Round(float64(x) * zoom))
		drawLine(output, px, b.Min.Y, px, b.Max.Y-1, style.Slice, 1, 6)
	}
	for _, y := range export.Boundaries(canvas.Height, grid.Rows) {
		py := int(math.Round(float64(y) * zoom))
		drawLine(output, b.Min.X, py, b.Max.X-1, py, style.Slice, 1, 6)
	}
}
