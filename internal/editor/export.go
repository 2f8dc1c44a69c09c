package editor

import (
	"context"
	"fmt"

	"layer-composer/internal/export"
	"layer-composer/pkg/geometry"

	"github.com/sirupsen/logrus"
)

// prepareExport deselects, hides handles and resets the view, returning a
// func that puts everything back.
func (e *Editor) prepareExport() func() {
	selection := e.store.SelectedIDs()

	e.mu.Lock()
	zoom, pan := e.zoom, e.pan
	e.zoom, e.pan = 1, geometry.Point2D{}
	e.handlesHidden = true
	e.mu.Unlock()
	e.store.ClearSelection()

	return func() {
		e.store.SetSelection(selection, false)
		e.mu.Lock()
		e.zoom, e.pan = zoom, pan
		e.handlesHidden = false
		e.mu.Unlock()
	}
}

// Export renders the whole canvas as one PNG.
func (e *Editor) Export(ctx context.Context) ([]byte, error) {
	restore := e.prepareExport()
	defer restore()

	scene := e.Scene()
	raw, err := export.NewExporter(scene).Composite(ctx, scene.Size)
	if err != nil {
		return nil, fmt.Errorf("export canvas: %w", err)
	}
	e.Emit(EventExported, len(raw))
	return raw, nil
}

// Slice cuts the canvas into a rows x cols grid of tiles with an HTML table
// that reassembles them. source picks each tile's img src; nil references
// tiles by file name.
func (e *Editor) Slice(ctx context.Context, grid export.Grid, source export.SourceFunc) (*export.SliceSet, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	restore := e.prepareExport()
	defer restore()

	scene := e.Scene()
	exp := export.NewExporter(scene)
	if source != nil {
		exp.Source = source
	}
	set, err := exp.Slice(ctx, scene.Size, grid)
	if err != nil {
		return nil, fmt.Errorf("slice canvas: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"slice_set": set.ID,
		"tiles":     len(set.Tiles),
	}).Info("Exported slices")
	e.Emit(EventExported, set)
	return set, nil
}
