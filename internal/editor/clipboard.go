package editor

import (
	"layer-composer/internal/layer"
)

// Copy puts the selected layers in the copy buffer.
func (e *Editor) Copy() int {
	selected := e.store.Selected()
	if len(selected) == 0 {
		return 0
	}
	buf := make([]layer.Layer, len(selected))
	for i, l := range selected {
		buf[i] = l.Clone()
	}

	e.mu.Lock()
	e.clipboard = buf
	e.mu.Unlock()
	return len(buf)
}

// Paste adds the copy buffer as new layers, offset from the originals, and
// selects them. Each paste cascades further from the last.
func (e *Editor) Paste() []layer.Layer {
	e.mu.Lock()
	buf := e.clipboard
	offset := e.settings.PasteOffset
	if len(buf) > 0 {
		next := make([]layer.Layer, len(buf))
		for i, l := range buf {
			l.X += offset
			l.Y += offset
			next[i] = l
		}
		e.clipboard = next
	}
	e.mu.Unlock()

	return e.insertCopies(buf, offset)
}

// Duplicate copies the selection in place, offset, without touching the
// copy buffer.
func (e *Editor) Duplicate() []layer.Layer {
	return e.insertCopies(e.store.Selected(), e.Settings().PasteOffset)
}

func (e *Editor) insertCopies(src []layer.Layer, offset float64) []layer.Layer {
	if len(src) == 0 {
		return nil
	}
	added := make([]layer.Layer, 0, len(src))
	ids := make([]string, 0, len(src))
	e.mutate(func() bool {
		for _, l := range src {
			c := l.Clone()
			c.ID = ""
			c.X += offset
			c.Y += offset
			if c.Name == layer.BackgroundName {
				c.Name = layer.BackgroundName + " copy"
			}
			c.Locked = false
			c = e.store.Add(e.engine.Clamp(c))
			added = append(added, c)
			ids = append(ids, c.ID)
		}
		e.store.SetSelection(ids, false)
		return true
	})
	e.Emit(EventSelectionChanged, ids)
	return added
}
