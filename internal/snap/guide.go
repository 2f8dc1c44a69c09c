// Package snap computes alignment guides and snapped positions while layers
// are dragged.
package snap

// Orientation of a guide line.
type Orientation string

const (
	Vertical   Orientation = "vertical"   // Constant x
	Horizontal Orientation = "horizontal" // Constant y
)

// Kind describes what produced a guide.
type Kind string

const (
	KindCanvasCenter Kind = "canvas-center"
	KindCanvasEdge   Kind = "canvas-edge"
	KindEdge         Kind = "edge"
	KindCenter       Kind = "center"
	KindEdgeCenter   Kind = "edge-center"
	KindSameSize     Kind = "same-size"
	KindGrid         Kind = "grid"
)

// Guide is a transient alignment line recomputed on every drag tick.
// SnapOffset is the correction applied to the moving box when this guide
// matched, and nil for informational guides.
type Guide struct {
	Orientation Orientation `json:"orientation"`
	Position    float64     `json:"position"`
	SnapOffset  *float64    `json:"snapOffset,omitempty"`
	Label       string      `json:"label"`
	Kind        Kind        `json:"kind"`
	TargetID    string      `json:"targetId,omitempty"`
}

// Snaps reports whether the guide moves the layer.
func (g Guide) Snaps() bool {
	return g.SnapOffset != nil
}
