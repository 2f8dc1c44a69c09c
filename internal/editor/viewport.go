package editor

import (
	"layer-composer/pkg/geometry"
)

// Zoom returns the view scale.
func (e *Editor) Zoom() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.zoom
}

// Pan returns the view offset in screen units.
func (e *Editor) Pan() geometry.Point2D {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pan
}

// SetZoom sets the view scale, clamped to [MinZoom, MaxZoom].
func (e *Editor) SetZoom(zoom float64) {
	e.mu.Lock()
	e.zoom = geometry.Clamp(zoom, MinZoom, MaxZoom)
	e.mu.Unlock()
	e.Emit(EventViewportChanged, nil)
}

// SetPan sets the view offset.
func (e *Editor) SetPan(p geometry.Point2D) {
	e.mu.Lock()
	e.pan = p
	e.mu.Unlock()
	e.Emit(EventViewportChanged, nil)
}

// ZoomAt changes the zoom keeping the canvas point under screen point p
// fixed, as a wheel zoom does.
func (e *Editor) ZoomAt(p geometry.Point2D, zoom float64) {
	e.mu.Lock()
	zoom = geometry.Clamp(zoom, MinZoom, MaxZoom)
	cx := (p.X - e.pan.X) / e.zoom
	cy := (p.Y - e.pan.Y) / e.zoom
	e.zoom = zoom
	e.pan = geometry.Point2D{X: p.X - cx*zoom, Y: p.Y - cy*zoom}
	e.mu.Unlock()
	e.Emit(EventViewportChanged, nil)
}

// ScreenToCanvas converts a host pointer position to canvas units.
func (e *Editor) ScreenToCanvas(p geometry.Point2D) geometry.Point2D {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return geometry.Point2D{X: (p.X - e.pan.X) / e.zoom, Y: (p.Y - e.pan.Y) / e.zoom}
}

// LayerAt returns the topmost visible layer whose bounds contain p.
func (e *Editor) LayerAt(p geometry.Point2D) (string, bool) {
	layers := e.store.Layers()
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if l.Visible && l.Bounds().Contains(p) {
			return l.ID, true
		}
	}
	return "", false
}
