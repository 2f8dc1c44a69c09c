package editor

import (
	"context"

	"layer-composer/internal/layer"

	"github.com/sirupsen/logrus"
)

// Undo restores the previous committed state. Image bitmaps are reloaded
// before the store is replaced; if the document is replaced or closed while
// they load, the result is dropped. Restores and commits are applied one at
// a time in the order they take the mutation gate. Returns false when
// nothing changed.
func (e *Editor) Undo(ctx context.Context) bool {
	return e.restore(ctx, "undo", e.history.Undo)
}

// Redo re-applies the next committed state.
func (e *Editor) Redo(ctx context.Context) bool {
	return e.restore(ctx, "redo", e.history.Redo)
}

func (e *Editor) restore(ctx context.Context, op string, step func(context.Context) ([]layer.Layer, bool)) bool {
	if e.isClosed() {
		return false
	}
	e.cancelDrag()

	n, cursor, ok := e.applyStep(ctx, step)
	if !ok {
		return false
	}
	logrus.WithFields(logrus.Fields{
		"op":     op,
		"cursor": cursor,
		"layers": n,
	}).Debug("History restored")

	e.changed()
	e.Emit(EventSelectionChanged, e.store.SelectedIDs())
	e.Emit(EventHistoryChanged, cursor)
	return true
}

// applyStep moves the history cursor and replaces the store with the
// restored layers, holding the mutation gate throughout so no commit or
// other restore can land in between. The document generation is read
// once the gate is held, so a document replaced mid-load is detected.
func (e *Editor) applyStep(ctx context.Context, step func(context.Context) ([]layer.Layer, bool)) (n, cursor int, ok bool) {
	e.gate.Lock()
	defer e.gate.Unlock()

	gen := e.currentGeneration()
	layers, ok := step(ctx)
	if !ok {
		return 0, 0, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation != gen || e.closed {
		logrus.Debug("Dropping restore for a stale document")
		return 0, 0, false
	}
	e.gesture = nil
	e.store.Replace(layers)
	return len(layers), e.history.Cursor(), true
}
