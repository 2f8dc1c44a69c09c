// Package app ties an editor to the scene file it was opened from.
package app

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"

	"layer-composer/internal/bitmap"
	"layer-composer/internal/config"
	"layer-composer/internal/document"
	"layer-composer/internal/editor"
	"layer-composer/internal/export"
	"layer-composer/internal/layer"
	"layer-composer/pkg/geometry"

	"github.com/sirupsen/logrus"
)

// SceneExt is the file extension used for saved scenes.
const SceneExt = ".json"

// Session holds the editor plus the scene bookkeeping around it: where the
// scene lives, whether it has unsaved changes and its slice grid.
type Session struct {
	mu sync.RWMutex

	Editor *editor.Editor

	files    *bitmap.FileLoader
	path     string
	name     string
	doc      *document.File
	slices   export.Grid
	modified bool

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies session events.
type EventType int

const (
	EventSceneLoaded EventType = iota
	EventSceneSaved
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewSession creates a session with an empty scene of the configured
// canvas size.
func NewSession(settings config.Settings) *Session {
	s := &Session{
		files:     bitmap.NewFileLoader(""),
		slices:    export.Grid{Rows: settings.SliceRows, Cols: settings.SliceCols},
		listeners: make(map[EventType][]EventListener),
	}
	s.Editor = editor.New(settings, bitmap.LoaderFunc(s.load))
	s.Editor.On(editor.EventHistoryChanged, func(interface{}) {
		s.SetModified(true)
	})
	s.NewScene(geometry.NewSize(settings.CanvasWidth, settings.CanvasHeight))
	return s
}

// load resolves bitmap sources against the current scene's directory.
func (s *Session) load(ctx context.Context, uri string) (image.Image, error) {
	s.mu.RLock()
	files := s.files
	s.mu.RUnlock()
	return files.Load(ctx, uri)
}

// On registers a listener for an event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit sends an event to all registered listeners.
func (s *Session) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := append([]EventListener(nil), s.listeners[event]...)
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Path returns the scene file path, or "" for an unsaved scene.
func (s *Session) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Name returns the scene's display name.
func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// Modified reports whether there are unsaved changes.
func (s *Session) Modified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// SetModified marks the scene as modified or clean.
func (s *Session) SetModified(modified bool) {
	s.mu.Lock()
	changed := s.modified != modified
	s.modified = modified
	s.mu.Unlock()
	if changed {
		s.Emit(EventModified, modified)
	}
}

// Slices returns the scene's slice grid.
func (s *Session) Slices() export.Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slices
}

// SetSlices changes the scene's slice grid. Invalid grids are rejected.
func (s *Session) SetSlices(grid export.Grid) error {
	if err := grid.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	changed := s.slices != grid
	s.slices = grid
	s.mu.Unlock()
	if changed {
		s.SetModified(true)
	}
	return nil
}

// NewScene discards the current scene and starts an empty one.
func (s *Session) NewScene(size geometry.Size) {
	s.mu.Lock()
	s.path = ""
	s.name = "Untitled"
	s.doc = nil
	s.files = bitmap.NewFileLoader("")
	s.mu.Unlock()

	s.Editor.NewDocument(size)
	s.SetModified(false)
	s.Emit(EventSceneLoaded, "")
}

// ImportBackground starts a new scene from an image file. The scene is
// unsaved until SaveScene is called.
func (s *Session) ImportBackground(ctx context.Context, path string) error {
	s.mu.Lock()
	s.path = ""
	s.name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s.doc = nil
	s.files = bitmap.NewFileLoader(filepath.Dir(path))
	s.mu.Unlock()

	if err := s.Editor.LoadBackground(ctx, path); err != nil {
		return err
	}
	s.SetModified(true)
	s.Emit(EventSceneLoaded, "")
	return nil
}

// OpenScene loads a scene file, rehydrates its bitmaps and hands the layers
// to the editor. Images that cannot be loaded stay in the scene as broken
// layers.
func (s *Session) OpenScene(ctx context.Context, path string) error {
	doc, err := document.Load(path)
	if err != nil {
		return fmt.Errorf("open scene %s: %w", path, err)
	}

	base := document.BaseDir(path)
	files := bitmap.NewFileLoader(base)
	layers := absoluteSources(base, doc.Rehydrate(ctx, files))
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.path = path
	s.name = doc.Name
	if s.name == "" {
		s.name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	s.doc = doc
	s.files = files
	s.slices = doc.Slices
	s.mu.Unlock()

	s.Editor.OpenLayers(doc.Canvas.Size(), layers)
	s.SetModified(false)

	broken := 0
	for _, l := range layers {
		if l.Broken {
			broken++
		}
	}
	logrus.WithFields(logrus.Fields{
		"path":   path,
		"layers": len(layers),
		"broken": broken,
	}).Info("Opened scene")

	s.Emit(EventSceneLoaded, path)
	return nil
}

// SaveScene writes the scene to path, adding the scene extension when it
// is missing. Image sources are stored relative to the scene file.
func (s *Session) SaveScene(path string) (string, error) {
	if filepath.Ext(path) != SceneExt {
		path += SceneExt
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}

	s.mu.RLock()
	doc := s.doc
	name := s.name
	grid := s.slices
	s.mu.RUnlock()

	if doc == nil {
		doc = document.New(name, s.Editor.Canvas())
	}
	doc.Name = name
	size := s.Editor.Canvas()
	doc.Canvas = document.Canvas{Width: size.Width, Height: size.Height}
	doc.Slices = grid
	doc.SetLayers(s.Editor.Layers())

	if err := doc.Save(path); err != nil {
		return "", fmt.Errorf("save scene %s: %w", path, err)
	}

	s.mu.Lock()
	s.path = path
	s.doc = doc
	s.files = bitmap.NewFileLoader(document.BaseDir(path))
	s.mu.Unlock()

	s.SetModified(false)
	s.Emit(EventSceneSaved, path)
	return path, nil
}

// absoluteSources resolves relative file sources against base, so the
// editor never depends on which directory the scene is saved to next.
func absoluteSources(base string, layers []layer.Layer) []layer.Layer {
	for i, l := range layers {
		src := l.BitmapSource
		if src == "" || filepath.IsAbs(src) || strings.Contains(src, ":") {
			continue
		}
		layers[i].BitmapSource = filepath.Join(base, src)
	}
	return layers
}
