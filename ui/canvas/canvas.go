// Package canvas provides the interactive editor canvas with zoom, drag
// and snap guide display.
package canvas

import (
	"context"
	"image"
	"sync"

	"layer-composer/internal/editor"
	"layer-composer/internal/export"
	"layer-composer/internal/layer"
	"layer-composer/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
)

const zoomStep = 1.25

// EditorCanvas displays an editor's scene and turns pointer input into
// editor gestures.
type EditorCanvas struct {
	widget.BaseWidget

	ed    *editor.Editor
	style OverlayStyle

	// Display state
	raster  *fynecanvas.Raster
	imgSize fyne.Size

	mu     sync.Mutex
	scene  *image.RGBA // Last full-resolution render; nil when stale
	slices export.Grid

	// Interaction state
	dragging bool
	shift    bool

	// Container
	scroll  *zoomScroll
	content *interactiveContent

	// Fit to window
	fitToWindow    bool
	lastScrollSize fyne.Size

	// Callbacks
	onZoomChange func(zoom float64)
}

// zoomScroll is a widget that wraps a scroll container but intercepts wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *EditorCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *EditorCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Size returns the scroll container's size.
func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

// Refresh refreshes the scroll container.
func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

// Resize sets the size of the scroll container.
func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// interactiveContent wraps the raster to handle pointer events.
type interactiveContent struct {
	widget.BaseWidget
	canvas *EditorCanvas
	raster *fynecanvas.Raster
}

var (
	_ fyne.Draggable    = (*interactiveContent)(nil)
	_ fyne.Tappable     = (*interactiveContent)(nil)
	_ desktop.Mouseable = (*interactiveContent)(nil)
)

func newInteractiveContent(ec *EditorCanvas, raster *fynecanvas.Raster) *interactiveContent {
	ic := &interactiveContent{canvas: ec, raster: raster}
	ic.ExtendBaseWidget(ic)
	return ic
}

func (ic *interactiveContent) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(ic.raster)
}

func (ic *interactiveContent) MinSize() fyne.Size {
	return ic.raster.MinSize()
}

// toCanvas converts a widget-relative position to canvas units.
func (ic *interactiveContent) toCanvas(pos fyne.Position) geometry.Point2D {
	zoom := ic.canvas.ed.Zoom()
	return geometry.Point2D{X: float64(pos.X) / zoom, Y: float64(pos.Y) / zoom}
}

func (ic *interactiveContent) MouseDown(ev *desktop.MouseEvent) {
	ic.canvas.shift = ev.Modifier&fyne.KeyModifierShift != 0
}

func (ic *interactiveContent) MouseUp(*desktop.MouseEvent) {}

func (ic *interactiveContent) Dragged(ev *fyne.DragEvent) {
	ed := ic.canvas.ed
	at := ic.toCanvas(ev.Position)

	if !ic.canvas.dragging {
		start := ic.toCanvas(ev.Position.Subtract(ev.Dragged))
		id, ok := ed.LayerAt(start)
		if !ok || !ed.BeginDrag(id, start) {
			return
		}
		ic.canvas.dragging = true
	}
	ed.DragTo(at)
}

func (ic *interactiveContent) DragEnd() {
	if !ic.canvas.dragging {
		return
	}
	ic.canvas.dragging = false
	ic.canvas.ed.EndDrag()
}

func (ic *interactiveContent) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		ic.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		ic.canvas.ZoomOut()
	}
}

// Tapped selects the layer under the pointer; shift toggles it instead.
func (ic *interactiveContent) Tapped(ev *fyne.PointEvent) {
	ed := ic.canvas.ed
	id, ok := ed.LayerAt(ic.toCanvas(ev.Position))
	switch {
	case ok:
		ed.Select(ic.canvas.shift, id)
	case !ic.canvas.shift:
		ed.ClearSelection()
	}
}

// NewEditorCanvas creates a canvas bound to ed.
func NewEditorCanvas(ed *editor.Editor) *EditorCanvas {
	ec := &EditorCanvas{
		ed:      ed,
		style:   DefaultStyle,
		imgSize: fyne.NewSize(400, 300),
		slices:  export.Grid{Rows: 1, Cols: 1},
	}

	ec.raster = fynecanvas.NewRaster(ec.draw)
	ec.raster.ScaleMode = fynecanvas.ImageScalePixels
	ec.raster.SetMinSize(ec.imgSize)

	ec.content = newInteractiveContent(ec, ec.raster)
	ec.scroll = newZoomScroll(ec.content, ec)

	stale := func(interface{}) { ec.invalidate() }
	ed.On(editor.EventLayersChanged, stale)
	ed.On(editor.EventDocumentLoaded, stale)
	ed.On(editor.EventClosed, stale)
	ed.On(editor.EventSelectionChanged, func(interface{}) { ec.Refresh() })
	ed.On(editor.EventGuidesChanged, func(interface{}) { ec.Refresh() })
	ed.On(editor.EventViewportChanged, func(interface{}) { ec.updateContentSize() })

	ec.ExtendBaseWidget(ec)
	ec.updateContentSize()
	return ec
}

// Container returns the canvas container for embedding in layouts.
func (ec *EditorCanvas) Container() fyne.CanvasObject {
	return ec.scroll
}

// SetSlices sets the export grid drawn over the canvas.
func (ec *EditorCanvas) SetSlices(grid export.Grid) {
	ec.mu.Lock()
	ec.slices = grid
	ec.mu.Unlock()
	ec.Refresh()
}

// SetZoom sets the zoom level.
func (ec *EditorCanvas) SetZoom(zoom float64) {
	ec.ed.SetZoom(zoom)
	if ec.onZoomChange != nil {
		ec.onZoomChange(ec.ed.Zoom())
	}
}

// ZoomIn increases the zoom level.
func (ec *EditorCanvas) ZoomIn() {
	ec.SetZoom(ec.ed.Zoom() * zoomStep)
}

// ZoomOut decreases the zoom level.
func (ec *EditorCanvas) ZoomOut() {
	ec.SetZoom(ec.ed.Zoom() / zoomStep)
}

// FitToWindow adjusts zoom to fit the canvas in the visible area.
func (ec *EditorCanvas) FitToWindow() {
	size := ec.ed.Canvas()
	view := ec.scroll.Size()
	if size.Width <= 0 || size.Height <= 0 || view.Width <= 0 || view.Height <= 0 {
		return
	}
	zoom := float64(view.Width) / size.Width
	if zy := float64(view.Height) / size.Height; zy < zoom {
		zoom = zy
	}
	ec.SetZoom(zoom * 0.95)
}

// SetFitToWindow enables or disables auto-fit on resize.
func (ec *EditorCanvas) SetFitToWindow(fit bool) {
	ec.fitToWindow = fit
	if fit {
		ec.FitToWindow()
	}
}

// GetFitToWindow returns the current fit-to-window state.
func (ec *EditorCanvas) GetFitToWindow() bool {
	return ec.fitToWindow
}

// CheckResize auto-fits when the scroll container was resized and fitting
// is enabled.
func (ec *EditorCanvas) CheckResize(size fyne.Size) {
	if !ec.fitToWindow {
		return
	}
	if size.Width > 0 && size.Height > 0 && size != ec.lastScrollSize {
		ec.lastScrollSize = size
		ec.FitToWindow()
	}
}

// OnZoomChange sets a callback for zoom changes.
func (ec *EditorCanvas) OnZoomChange(callback func(zoom float64)) {
	ec.onZoomChange = callback
}

// Refresh redraws overlays over the cached scene.
func (ec *EditorCanvas) Refresh() {
	ec.raster.Refresh()
}

func (ec *EditorCanvas) invalidate() {
	ec.mu.Lock()
	ec.scene = nil
	ec.mu.Unlock()
	ec.updateContentSize()
}

// updateContentSize updates the content size based on canvas size and zoom.
func (ec *EditorCanvas) updateContentSize() {
	size := ec.ed.Canvas()
	zoom := ec.ed.Zoom()
	if size.Width <= 0 || size.Height <= 0 {
		ec.imgSize = fyne.NewSize(400, 300)
	} else {
		ec.imgSize = fyne.NewSize(float32(size.Width*zoom), float32(size.Height*zoom))
	}

	ec.raster.SetMinSize(ec.imgSize)
	ec.raster.Resize(ec.imgSize)
	if ec.content != nil {
		ec.content.Resize(ec.imgSize)
		ec.content.Refresh()
	}
	ec.raster.Refresh()
	if ec.scroll != nil {
		ec.scroll.Refresh()
	}
}

// render returns the scene at 1:1, re-rendering it when stale.
func (ec *EditorCanvas) render() *image.RGBA {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.scene != nil {
		return ec.scene
	}
	img, err := ec.ed.Scene().Render(context.Background())
	if err != nil {
		logrus.WithError(err).Warn("Failed to render scene")
		return nil
	}
	ec.scene = img
	return img
}

// draw is the raster drawing function.
func (ec *EditorCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	drawCheckerboard(output, ec.style)

	scene := ec.render()
	if scene == nil || w == 0 || h == 0 {
		return output
	}
	xdraw.ApproxBiLinear.Scale(output, output.Bounds(), scene, scene.Bounds(), xdraw.Over, nil)

	// Pixels per canvas unit; differs from zoom on high-DPI displays
	size := ec.ed.Canvas()
	if size.Width <= 0 {
		return output
	}
	scale := float64(w) / size.Width

	ec.mu.Lock()
	grid := ec.slices
	ec.mu.Unlock()
	drawSlices(output, size, grid, scale, ec.style)

	if ec.ed.HandlesVisible() {
		var selected []layer.Layer
		for _, id := range ec.ed.Selection() {
			if l, ok := ec.ed.Layer(id); ok {
				selected = append(selected, l)
			}
		}
		drawSelection(output, selected, scale, ec.style)
	}
	drawGuides(output, ec.ed.Guides(), scale, ec.style)
	return output
}

// CreateRenderer implements fyne.Widget.
func (ec *EditorCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &editorCanvasRenderer{canvas: ec}
}

type editorCanvasRenderer struct {
	canvas *EditorCanvas
}

func (r *editorCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.scroll.Resize(size)
	r.canvas.CheckResize(size)
}

func (r *editorCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *editorCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *editorCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.scroll}
}

func (r *editorCanvasRenderer) Destroy() {}
