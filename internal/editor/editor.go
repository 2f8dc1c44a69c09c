// Package editor runs one composition session: it routes user gestures
// through the transform engine and snap detector into the layer store,
// records committed states in history, and exports the result.
package editor

import (
	"context"
	"fmt"
	"math"
	"path"
	"strings"
	"sync"

	"layer-composer/internal/bitmap"
	"layer-composer/internal/config"
	"layer-composer/internal/history"
	"layer-composer/internal/layer"
	"layer-composer/internal/render"
	"layer-composer/internal/snap"
	"layer-composer/internal/transform"
	"layer-composer/pkg/geometry"

	"github.com/sirupsen/logrus"
)

// Zoom limits.
const (
	MinZoom = 0.1
	MaxZoom = 10
)

// Editor holds the state of one editing session.
type Editor struct {
	mu sync.RWMutex

	// gate orders committed mutations and history restores. A restore
	// holds it until its bitmaps are loaded and the store is replaced.
	gate sync.Mutex
	// imports keeps image appends in call order.
	imports sync.Mutex

	settings config.Settings
	canvas   geometry.Size

	store   *layer.Store
	history *history.Manager
	engine  *transform.Engine
	loader  bitmap.Loader
	fonts   *render.Fonts

	zoom float64
	pan  geometry.Point2D

	clipboard []layer.Layer
	guides    []snap.Guide
	drag      *dragState
	gesture   *gestureState

	handlesHidden bool

	// generation changes whenever the document is replaced or closed, so
	// restores that finish late can tell their result is stale.
	generation uint64
	closed     bool

	listeners map[EventType][]EventListener
}

// New creates an editor with an empty document.
func New(settings config.Settings, loader bitmap.Loader) *Editor {
	if err := settings.Validate(); err != nil {
		logrus.WithError(err).Warn("Invalid editor settings, using defaults")
		settings = config.Default()
	}
	return &Editor{
		settings:  settings,
		canvas:    geometry.NewSize(settings.CanvasWidth, settings.CanvasHeight),
		store:     layer.NewStore(),
		history:   history.NewManager(loader, settings.HistoryLimit),
		engine:    transform.NewEngine(settings),
		loader:    loader,
		fonts:     render.NewFonts(),
		zoom:      1,
		listeners: make(map[EventType][]EventListener),
	}
}

// Settings returns the session settings.
func (e *Editor) Settings() config.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// Canvas returns the canvas size.
func (e *Editor) Canvas() geometry.Size {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.canvas
}

// SetCanvas resizes the canvas.
func (e *Editor) SetCanvas(size geometry.Size) {
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	e.mu.Lock()
	e.canvas = size
	e.mu.Unlock()
	e.Emit(EventLayersChanged, nil)
}

// Layers returns the layers in paint order.
func (e *Editor) Layers() []layer.Layer {
	return e.store.Layers()
}

// Layer returns the layer with the given id.
func (e *Editor) Layer(id string) (layer.Layer, bool) {
	return e.store.Get(id)
}

// Selection returns the selected layer ids in selection order.
func (e *Editor) Selection() []string {
	return e.store.SelectedIDs()
}

// Guides returns the guides of the drag in progress.
func (e *Editor) Guides() []snap.Guide {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]snap.Guide(nil), e.guides...)
}

// HandlesVisible reports whether the host should draw transform handles.
func (e *Editor) HandlesVisible() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.handlesHidden
}

// CanUndo reports whether Undo would change anything.
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether Redo would change anything.
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// Scene returns a render description of the current document.
func (e *Editor) Scene() *render.Scene {
	return render.NewScene(e.store.Layers(), e.Canvas(), e.fonts)
}

// mutate runs fn under the mutation gate. When fn reports a change the
// store is recorded in history before the gate is released; listeners are
// notified afterwards. Every committed mutation funnels through here.
func (e *Editor) mutate(fn func() bool) bool {
	e.gate.Lock()
	ok := fn()
	cursor := -1
	if ok {
		cursor = e.record()
	}
	e.gate.Unlock()

	if ok {
		e.Emit(EventHistoryChanged, cursor)
		e.changed()
	}
	return ok
}

func (e *Editor) record() int {
	e.history.Commit(e.store.Layers())
	return e.history.Cursor()
}

func (e *Editor) changed() {
	e.Emit(EventLayersChanged, nil)
}

func (e *Editor) currentGeneration() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.generation
}

func (e *Editor) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

// LoadBackground starts a new document from the image at uri. The canvas
// takes the image's size, and store and history start over.
func (e *Editor) LoadBackground(ctx context.Context, uri string) error {
	if e.loader == nil {
		return fmt.Errorf("load background: no bitmap loader")
	}
	img, err := e.loader.Load(ctx, uri)
	if err != nil {
		e.Emit(EventLoadFailed, LoadFailure{Source: uri, Err: err})
		return fmt.Errorf("load background: %w", err)
	}

	b := img.Bounds()
	bg := layer.NewImage(layer.BackgroundName, uri, img)
	bg.ID = layer.NewID()
	cursor := e.replaceDocument(geometry.NewSize(float64(b.Dx()), float64(b.Dy())), []layer.Layer{bg})
	e.Emit(EventHistoryChanged, cursor)

	logrus.WithFields(logrus.Fields{
		"source": shorten(uri),
		"width":  b.Dx(),
		"height": b.Dy(),
	}).Info("Loaded background")
	e.Emit(EventDocumentLoaded, e.Canvas())
	e.changed()
	return nil
}

// NewDocument starts an empty document of the given size.
func (e *Editor) NewDocument(size geometry.Size) {
	e.OpenLayers(size, nil)
}

// OpenLayers replaces the document with already rehydrated layers, such as
// those read from a saved scene.
func (e *Editor) OpenLayers(size geometry.Size, layers []layer.Layer) {
	clamped := make([]layer.Layer, 0, len(layers))
	for _, l := range layers {
		if l.ID == "" {
			l.ID = layer.NewID()
		}
		clamped = append(clamped, e.engine.Clamp(l))
	}
	cursor := e.replaceDocument(size, clamped)
	e.Emit(EventHistoryChanged, cursor)
	e.Emit(EventDocumentLoaded, e.Canvas())
	e.changed()
}

// replaceDocument starts store and history over with layers as the only
// entry. It does not wait for the mutation gate: the generation bump makes
// any restore still loading drop its result.
func (e *Editor) replaceDocument(size geometry.Size, layers []layer.Layer) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.closed = false
	e.drag = nil
	e.gesture = nil
	e.guides = nil
	e.clipboard = nil
	if size.Width > 0 && size.Height > 0 {
		e.canvas = size
	}

	e.store.Reset()
	e.store.Replace(layers)
	e.history.Reset()
	return e.record()
}

// AddImages loads each source in turn and adds it as an image layer.
// Sources that fail to load are logged and skipped.
func (e *Editor) AddImages(ctx context.Context, uris ...string) []layer.Layer {
	e.imports.Lock()
	defer e.imports.Unlock()

	gen := e.currentGeneration()
	var added []layer.Layer
	for _, uri := range uris {
		if err := ctx.Err(); err != nil {
			break
		}
		if e.loader == nil {
			logrus.WithField("source", shorten(uri)).Warn("No bitmap loader, skipping image")
			continue
		}
		img, err := e.loader.Load(ctx, uri)
		if err != nil {
			logrus.WithError(err).WithField("source", shorten(uri)).Warn("Failed to load image")
			e.Emit(EventLoadFailed, LoadFailure{Source: uri, Err: err})
			continue
		}
		if e.currentGeneration() != gen || e.isClosed() {
			logrus.WithField("source", shorten(uri)).Debug("Dropping image loaded for a stale document")
			return added
		}
		l := e.addImage(layer.NewImage(imageName(uri), uri, img))
		added = append(added, l)
	}
	return added
}

// PasteImage adds an image layer from an encoded blob, such as clipboard
// contents. The blob is kept as a data URI so history can reload it.
func (e *Editor) PasteImage(blob []byte) (layer.Layer, error) {
	e.imports.Lock()
	defer e.imports.Unlock()

	img, err := bitmap.Decode(blob)
	if err != nil {
		logrus.WithError(err).Warn("Failed to decode pasted image")
		e.Emit(EventLoadFailed, LoadFailure{Source: "clipboard", Err: err})
		return layer.Layer{}, err
	}
	return e.addImage(layer.NewImage("Pasted image", bitmap.DataURI(blob), img)), nil
}

// addImage fits the layer inside the canvas, centres it and adds it.
func (e *Editor) addImage(l layer.Layer) layer.Layer {
	canvas := e.Canvas()
	maxW, maxH := canvas.Width*0.8, canvas.Height*0.8
	if l.Width > maxW || l.Height > maxH {
		f := math.Min(maxW/l.Width, maxH/l.Height)
		l.Width *= f
		l.Height *= f
	}
	l.X = (canvas.Width - l.Width) / 2
	l.Y = (canvas.Height - l.Height) / 2
	return e.add(l)
}

// add clamps, appends and selects a layer, then commits.
func (e *Editor) add(l layer.Layer) layer.Layer {
	if l.Name == layer.BackgroundName {
		l.Name = "Image"
	}
	l = e.fitText(e.engine.Clamp(l))
	e.mutate(func() bool {
		l = e.store.Add(l)
		return true
	})
	e.Emit(EventSelectionChanged, e.store.SelectedIDs())
	return l
}

// AddText adds a text layer near the canvas centre.
func (e *Editor) AddText(text string) layer.Layer {
	canvas := e.Canvas()
	l := layer.NewText(text, 0, 0, 24)
	l.X = (canvas.Width - l.BoxWidth) / 2
	l.Y = canvas.Height/2 - l.FontSize
	return e.add(l)
}

// AddRectangle adds a rectangle centred on the canvas.
func (e *Editor) AddRectangle(fill string) layer.Layer {
	canvas := e.Canvas()
	return e.add(layer.NewRectangle(canvas.Width/2-50, canvas.Height/2-50, 100, 100, fill))
}

// AddCircle adds a circle centred on the canvas.
func (e *Editor) AddCircle(fill string) layer.Layer {
	canvas := e.Canvas()
	return e.add(layer.NewCircle(canvas.Width/2, canvas.Height/2, 50, fill))
}

// Delete removes the given layers. Unknown ids are ignored.
func (e *Editor) Delete(ids ...string) int {
	var n int
	if !e.mutate(func() bool {
		n = e.store.Remove(ids...)
		return n > 0
	}) {
		return 0
	}
	e.Emit(EventSelectionChanged, e.store.SelectedIDs())
	return n
}

// DeleteSelected removes every selected layer.
func (e *Editor) DeleteSelected() int {
	return e.Delete(e.store.SelectedIDs()...)
}

// Reorder moves a layer one step in paint order.
func (e *Editor) Reorder(id string, dir layer.Direction) bool {
	return e.mutate(func() bool { return e.store.Reorder(id, dir) })
}

// BringToFront paints the layer above all others.
func (e *Editor) BringToFront(id string) bool {
	return e.mutate(func() bool { return e.store.BringToFront(id) })
}

// SendToBack paints the layer below all others.
func (e *Editor) SendToBack(id string) bool {
	return e.mutate(func() bool { return e.store.SendToBack(id) })
}

// Select replaces the selection, or toggles membership when additive.
func (e *Editor) Select(additive bool, ids ...string) {
	e.store.SetSelection(ids, additive)
	e.Emit(EventSelectionChanged, e.store.SelectedIDs())
}

// ClearSelection deselects everything.
func (e *Editor) ClearSelection() {
	e.store.ClearSelection()
	e.Emit(EventSelectionChanged, e.store.SelectedIDs())
}

// UpdateLayer edits a layer's properties. The result is clamped to the size
// floors; the id and type cannot change.
func (e *Editor) UpdateLayer(id string, fn func(*layer.Layer)) bool {
	return e.mutate(func() bool {
		return e.store.Update(id, func(l *layer.Layer) {
			typ := l.Type
			wasBackground := l.IsBackground()
			fn(l)
			l.Type = typ
			if l.Name == layer.BackgroundName && !wasBackground {
				l.Name = "Image"
			}
			*l = e.fitText(e.engine.Clamp(*l))
		})
	})
}

// SetVisible shows or hides a layer.
func (e *Editor) SetVisible(id string, visible bool) bool {
	return e.mutate(func() bool { return e.store.SetVisible(id, visible) })
}

// SetLocked locks or unlocks a layer.
func (e *Editor) SetLocked(id string, locked bool) bool {
	return e.mutate(func() bool { return e.store.SetLocked(id, locked) })
}

// Rename changes a layer's display name. The background name is reserved.
func (e *Editor) Rename(id, name string) bool {
	return e.mutate(func() bool {
		l, ok := e.store.Get(id)
		if !ok || (name == layer.BackgroundName && !l.IsBackground()) {
			return false
		}
		return e.store.Rename(id, name)
	})
}

// fitText recomputes a text layer's height from its wrapped lines.
func (e *Editor) fitText(l layer.Layer) layer.Layer {
	if l.Type != layer.TypeText {
		return l
	}
	h, err := e.fonts.TextHeight(l)
	if err != nil {
		logrus.WithError(err).WithField("layer_id", l.ID).Debug("Could not measure text")
		return l
	}
	l.Height = h
	return l
}

// Close ends the session. Pending restores are discarded when they finish.
func (e *Editor) Close() {
	e.mu.Lock()
	e.generation++
	e.closed = true
	e.drag = nil
	e.gesture = nil
	e.guides = nil
	e.clipboard = nil
	e.store.Reset()
	e.history.Reset()
	e.mu.Unlock()

	e.Emit(EventClosed, nil)
}

func imageName(uri string) string {
	if strings.HasPrefix(uri, "data:") {
		return "Pasted image"
	}
	base := path.Base(strings.ReplaceAll(uri, "\\", "/"))
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == "/" {
		return "Image"
	}
	return base
}

func shorten(s string) string {
	if len(s) <= 64 {
		return s
	}
	return s[:64] + "..."
}
