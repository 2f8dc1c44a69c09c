package layer

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// Direction is a one-step z-order move.
type Direction int

const (
	Down Direction = iota // Towards the back (lower paint order)
	Up                    // Towards the front
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Store owns the ordered layer list and the active selection.
// Index 0 is painted first (bottom); the last layer is on top.
type Store struct {
	mu        sync.RWMutex
	layers    []Layer
	selection []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// NewID returns a fresh, time-ordered layer identifier.
func NewID() string {
	return ulid.Make().String()
}

// Len returns the number of layers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}

// Layers returns a copy of the layers in paint order.
func (s *Store) Layers() []Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Get returns the layer with the given id.
func (s *Store) Get(id string) (Layer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.layers[i], true
	}
	return Layer{}, false
}

// Index returns the paint-order position of id, or -1.
func (s *Store) Index(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id)
}

func (s *Store) indexOf(id string) int {
	for i := range s.layers {
		if s.layers[i].ID == id {
			return i
		}
	}
	return -1
}

// Add appends a layer on top of the paint order and selects it.
// A missing id is generated. The stored layer is returned.
func (s *Store) Add(l Layer) Layer {
	if l.ID == "" {
		l.ID = NewID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = append(s.layers, l)
	s.selection = []string{l.ID}
	return l
}

// Remove deletes the given layers and clears the selection.
// Returns the number of layers removed.
func (s *Store) Remove(ids ...string) int {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.layers[:0:0]
	for _, l := range s.layers {
		if !drop[l.ID] {
			kept = append(kept, l)
		}
	}
	removed := len(s.layers) - len(kept)
	s.layers = kept
	s.selection = nil
	return removed
}

// Reorder swaps a layer with its neighbour in the given direction.
// It is a no-op at the boundaries or for an unknown id.
func (s *Store) Reorder(id string, dir Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	j := i + 1
	if dir == Down {
		j = i - 1
	}
	if j < 0 || j >= len(s.layers) {
		return false
	}
	s.layers[i], s.layers[j] = s.layers[j], s.layers[i]
	return true
}

// BringToFront moves a layer to the top of the paint order.
func (s *Store) BringToFront(id string) bool {
	return s.moveTo(id, func(n int) int { return n - 1 })
}

// SendToBack moves a layer to the bottom of the paint order.
func (s *Store) SendToBack(id string) bool {
	return s.moveTo(id, func(int) int { return 0 })
}

func (s *Store) moveTo(id string, target func(n int) int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	j := target(len(s.layers))
	if i == j {
		return false
	}
	l := s.layers[i]
	s.layers = append(s.layers[:i], s.layers[i+1:]...)
	s.layers = append(s.layers[:j], append([]Layer{l}, s.layers[j:]...)...)
	return true
}

// Update applies fn to the layer with the given id. The layer's id cannot
// be changed by fn. Returns false if the id is unknown.
func (s *Store) Update(id string, fn func(*Layer)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	l := s.layers[i]
	fn(&l)
	l.ID = id
	s.layers[i] = l
	return true
}

// Replace swaps the whole layer list, pruning selection entries that no
// longer exist.
func (s *Store) Replace(layers []Layer) {
	next := make([]Layer, len(layers))
	copy(next, layers)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = next
	s.selection = s.liveOnly(s.selection)
}

// Reset removes every layer and clears the selection.
func (s *Store) Reset() {
	s.mu.Lock()
	s.layers = nil
	s.selection = nil
	s.mu.Unlock()
}

// SetVisible shows or hides a layer.
func (s *Store) SetVisible(id string, visible bool) bool {
	return s.Update(id, func(l *Layer) { l.Visible = visible })
}

// SetLocked locks or unlocks a layer.
func (s *Store) SetLocked(id string, locked bool) bool {
	return s.Update(id, func(l *Layer) { l.Locked = locked })
}

// Rename changes a layer's display label.
func (s *Store) Rename(id, name string) bool {
	return s.Update(id, func(l *Layer) { l.Name = name })
}

// SetSelection changes the selection. With additive set each id toggles its
// membership (shift-click); otherwise the selection is replaced. Ids that do
// not reference a live layer are ignored.
func (s *Store) SetSelection(ids []string, additive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids = s.liveOnly(ids)
	if !additive {
		s.selection = dedupe(ids)
		return
	}

	for _, id := range ids {
		if i := indexOfString(s.selection, id); i >= 0 {
			s.selection = append(s.selection[:i:i], s.selection[i+1:]...)
		} else {
			s.selection = append(s.selection, id)
		}
	}
}

// ClearSelection deselects everything.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.selection = nil
	s.mu.Unlock()
}

// SelectedIDs returns the selected ids in selection order.
func (s *Store) SelectedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.selection))
	copy(out, s.selection)
	return out
}

// Selected returns the selected layers in selection order.
func (s *Store) Selected() []Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Layer, 0, len(s.selection))
	for _, id := range s.selection {
		if i := s.indexOf(id); i >= 0 {
			out = append(out, s.layers[i])
		}
	}
	return out
}

// IsSelected reports whether id is part of the selection.
func (s *Store) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOfString(s.selection, id) >= 0
}

// liveOnly filters ids down to those present in the store. Callers hold mu.
func (s *Store) liveOnly(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if s.indexOf(id) >= 0 {
			out = append(out, id)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if indexOfString(out, id) < 0 {
			out = append(out, id)
		}
	}
	return out
}

func indexOfString(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
