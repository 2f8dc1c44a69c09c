package canvas

import (
	"image/color"

	"layer-composer/pkg/colorutil"
)

// OverlayStyle holds the colors used for editor chrome drawn over the scene.
type OverlayStyle struct {
	Selection color.RGBA
	Guide     color.RGBA
	Slice     color.RGBA
	Label     color.RGBA
	Checker   [2]color.RGBA // Transparent-area checkerboard
}

// DefaultStyle is the overlay style used by new canvases.
var DefaultStyle = OverlayStyle{
	Selection: color.RGBA{R: 0x2E, G: 0x7D, B: 0xFF, A: 0xFF},
	Guide:     colorutil.GuideMagenta,
	Slice:     colorutil.SliceCyan,
	Label:     colorutil.White,
	Checker: [2]color.RGBA{
		{R: 0xCC, G: 0xCC, B: 0xCC, A: 0xFF},
		{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	},
}

const checkerSize = 8
