package editor

import (
	"context"
	"strings"
)

// KeyEvent is a key press delivered by the host.
type KeyEvent struct {
	Key    string // Key name, e.g. "z", "Delete", "Escape"
	Ctrl   bool   // Control, or Command on macOS
	Shift  bool
	Alt    bool
	Repeat bool // Auto-repeat from a held key
}

// HandleKey runs the shortcut bound to ev. Returns true if the key was
// handled. Auto-repeated presses are ignored.
func (e *Editor) HandleKey(ctx context.Context, ev KeyEvent) bool {
	if ev.Repeat {
		return false
	}
	key := strings.ToLower(ev.Key)

	if ev.Ctrl {
		switch key {
		case "z":
			if ev.Shift {
				return e.Redo(ctx)
			}
			return e.Undo(ctx)
		case "y":
			return e.Redo(ctx)
		case "c":
			return e.Copy() > 0
		case "v":
			return len(e.Paste()) > 0
		case "d":
			return len(e.Duplicate()) > 0
		case "a":
			var ids []string
			for _, l := range e.store.Layers() {
				ids = append(ids, l.ID)
			}
			e.Select(false, ids...)
			return len(ids) > 0
		}
		return false
	}

	switch key {
	case "delete", "backspace":
		return e.DeleteSelected() > 0
	case "escape":
		if e.Dragging() {
			e.cancelDrag()
			return true
		}
		if len(e.store.SelectedIDs()) == 0 {
			return false
		}
		e.ClearSelection()
		return true
	case "g":
		e.ToggleGrid()
		return true
	}
	return false
}

// ToggleGrid switches grid snapping on or off.
func (e *Editor) ToggleGrid() bool {
	e.mu.Lock()
	e.settings.GridEnabled = !e.settings.GridEnabled
	on := e.settings.GridEnabled
	e.mu.Unlock()
	e.Emit(EventViewportChanged, nil)
	return on
}
