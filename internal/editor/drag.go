package editor

import (
	"math"

	"layer-composer/internal/layer"
	"layer-composer/internal/snap"
	"layer-composer/internal/transform"
	"layer-composer/pkg/geometry"

	"github.com/sirupsen/logrus"
)

type dragState struct {
	primary    string
	ids        []string
	start      geometry.Point2D
	origins    map[string]geometry.Point2D
	background bool
	armed      bool // Background moved past the threshold
	moved      bool
}

// BeginDrag starts moving the layer under the pointer, together with the
// rest of the selection. at is in canvas units. Hidden and locked layers
// cannot be dragged. A layer outside the selection becomes the selection.
func (e *Editor) BeginDrag(id string, at geometry.Point2D) bool {
	l, ok := e.store.Get(id)
	if !ok || !l.Visible || l.Locked {
		return false
	}
	if !e.store.IsSelected(id) {
		e.store.SetSelection([]string{id}, false)
		e.Emit(EventSelectionChanged, e.store.SelectedIDs())
	}

	d := &dragState{
		primary:    id,
		start:      at,
		origins:    make(map[string]geometry.Point2D),
		background: l.IsBackground(),
	}
	for _, sel := range e.store.Selected() {
		if sel.Locked {
			continue
		}
		d.ids = append(d.ids, sel.ID)
		d.origins[sel.ID] = geometry.Point2D{X: sel.X, Y: sel.Y}
	}

	e.mu.Lock()
	e.drag = d
	e.mu.Unlock()

	e.Emit(EventDragStart, l.Type)
	return true
}

// Dragging reports whether a drag is in progress.
func (e *Editor) Dragging() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.drag != nil
}

// DragTo moves the dragged layers so the primary layer follows the pointer,
// snapping it to the canvas, its visible siblings and the grid. Each tick
// is a live update and is not recorded in history.
func (e *Editor) DragTo(at geometry.Point2D) snap.Result {
	e.mu.Lock()
	d := e.drag
	zoom := e.zoom
	settings := e.settings
	canvas := e.canvas
	e.mu.Unlock()
	if d == nil {
		return snap.Result{}
	}

	primary, ok := e.store.Get(d.primary)
	if !ok {
		e.cancelDrag()
		return snap.Result{}
	}

	dx, dy := at.X-d.start.X, at.Y-d.start.Y
	if d.background && !d.armed {
		if math.Hypot(dx, dy) < settings.BackgroundDragThreshold {
			return snap.Result{Position: geometry.Point2D{X: primary.X, Y: primary.Y}}
		}
		d.armed = true
	}

	origin := d.origins[d.primary]
	moving := primary
	moving.X, moving.Y = origin.X+dx, origin.Y+dy
	box := moving.Bounds()

	res := snap.Detect(box, e.snapTargets(d), snap.OptionsFrom(settings, canvas, zoom))
	dx += res.Offset.X
	dy += res.Offset.Y

	for _, id := range d.ids {
		o := d.origins[id]
		e.store.Update(id, func(l *layer.Layer) {
			l.X, l.Y = o.X+dx, o.Y+dy
		})
	}
	d.moved = true

	e.mu.Lock()
	e.guides = res.Guides
	e.mu.Unlock()

	e.changed()
	e.Emit(EventGuidesChanged, res.Guides)
	return res
}

// EndDrag finishes the drag, committing the final position and clearing
// guides.
func (e *Editor) EndDrag() {
	e.mu.Lock()
	d := e.drag
	e.drag = nil
	e.guides = nil
	e.mu.Unlock()
	if d == nil {
		return
	}

	if d.moved {
		e.mutate(func() bool { return true })
		logrus.WithFields(logrus.Fields{
			"layer_id": d.primary,
			"layers":   len(d.ids),
		}).Debug("Drag committed")
	}
	e.Emit(EventGuidesChanged, []snap.Guide(nil))
	e.Emit(EventDragEnd, d.primary)
}

// cancelDrag puts dragged layers back where they started.
func (e *Editor) cancelDrag() {
	e.mu.Lock()
	d := e.drag
	e.drag = nil
	e.guides = nil
	e.mu.Unlock()
	if d == nil {
		return
	}
	for _, id := range d.ids {
		o := d.origins[id]
		e.store.Update(id, func(l *layer.Layer) {
			l.X, l.Y = o.X, o.Y
		})
	}
	e.changed()
	e.Emit(EventGuidesChanged, []snap.Guide(nil))
	e.Emit(EventDragEnd, d.primary)
}

// snapTargets lists every visible layer that is neither selected nor
// being dragged.
func (e *Editor) snapTargets(d *dragState) []snap.Target {
	var targets []snap.Target
	for _, l := range e.store.Layers() {
		if !l.Visible || e.store.IsSelected(l.ID) {
			continue
		}
		if _, dragged := d.origins[l.ID]; dragged {
			continue
		}
		targets = append(targets, snap.Target{ID: l.ID, Name: l.Name, Bounds: l.Bounds()})
	}
	return targets
}

type gestureState struct {
	id     string
	origin layer.Layer
}

// Transform applies a resize/rotate/move gesture to a layer. Live deltas
// are relative to the layer as it was when the gesture began and are not
// recorded; a Commit delta finishes the gesture and records it. Locked and
// unknown layers are ignored.
func (e *Editor) Transform(id string, d transform.Delta, phase transform.Phase) bool {
	current, ok := e.store.Get(id)
	if !ok || current.Locked {
		return false
	}

	e.mu.Lock()
	g := e.gesture
	if g == nil || g.id != id {
		g = &gestureState{id: id, origin: current}
		e.gesture = g
	}
	if phase == transform.Commit {
		e.gesture = nil
	}
	e.mu.Unlock()

	next := e.fitText(e.engine.Apply(g.origin, d))
	update := func() bool {
		return e.store.Update(id, func(l *layer.Layer) {
			*l = next
		})
	}

	if phase == transform.Commit {
		return e.mutate(update)
	}
	update()
	e.changed()
	return true
}
