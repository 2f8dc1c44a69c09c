package history

import (
	"context"
	"sync"

	"layer-composer/internal/bitmap"
	"layer-composer/internal/layer"

	"github.com/sirupsen/logrus"
)

// Manager is an append-only log of snapshots with a single cursor.
// Committing after an undo discards the redo tail.
type Manager struct {
	mu      sync.Mutex
	entries []Snapshot
	cursor  int // Index of the current entry; -1 when empty
	limit   int // Maximum entries kept; 0 = unbounded
	loader  bitmap.Loader
}

// NewManager creates an empty history. limit bounds the number of entries
// (0 keeps everything). loader rehydrates image layers on restore.
func NewManager(loader bitmap.Loader, limit int) *Manager {
	if limit < 0 {
		limit = 0
	}
	return &Manager{cursor: -1, limit: limit, loader: loader}
}

// Commit records the given layer state as the newest entry.
func (m *Manager) Commit(layers []layer.Layer) {
	snap := NewSnapshot(layers)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries[:m.cursor+1], snap)
	if m.limit > 0 && len(m.entries) > m.limit {
		drop := len(m.entries) - m.limit
		m.entries = append([]Snapshot(nil), m.entries[drop:]...)
	}
	m.cursor = len(m.entries) - 1

	logrus.WithFields(logrus.Fields{
		"entries": len(m.entries),
		"layers":  snap.Len(),
	}).Debug("History committed")
}

// Reset discards all entries.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.entries = nil
	m.cursor = -1
	m.mu.Unlock()
}

// Len returns the number of entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Cursor returns the index of the current entry, or -1 when empty.
func (m *Manager) Cursor() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor
}

// CanUndo reports whether an earlier entry exists.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor > 0
}

// CanRedo reports whether a later entry exists.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor >= 0 && m.cursor < len(m.entries)-1
}

// Current returns the snapshot at the cursor.
func (m *Manager) Current() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursor < 0 {
		return Snapshot{}, false
	}
	return m.entries[m.cursor], true
}

// Undo moves the cursor back one entry and returns its restored layers.
// At the earliest entry it is a no-op and ok is false.
func (m *Manager) Undo(ctx context.Context) (layers []layer.Layer, ok bool) {
	snap, ok := m.step(-1)
	if !ok {
		return nil, false
	}
	return Restore(ctx, m.loader, snap), true
}

// Redo moves the cursor forward one entry and returns its restored layers.
// At the latest entry it is a no-op and ok is false.
func (m *Manager) Redo(ctx context.Context) (layers []layer.Layer, ok bool) {
	snap, ok := m.step(1)
	if !ok {
		return nil, false
	}
	return Restore(ctx, m.loader, snap), true
}

func (m *Manager) step(delta int) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.cursor + delta
	if m.cursor < 0 || next < 0 || next >= len(m.entries) {
		return Snapshot{}, false
	}
	m.cursor = next
	return m.entries[next], true
}

// Restore turns a snapshot back into live layers. Records that fail
// validation are skipped. Every image record's bitmap is reloaded in
// parallel and Restore waits for all loads; a failed load leaves that layer
// without a bitmap and marks it Broken.
func Restore(ctx context.Context, loader bitmap.Loader, snap Snapshot) []layer.Layer {
	records := snap.Records()
	layers := make([]layer.Layer, 0, len(records))
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			logrus.WithError(err).Warn("Skipping corrupt history record")
			continue
		}
		rec.Broken = false
		layers = append(layers, rec)
	}

	var (
		uris    []string
		targets []int
	)
	for i, l := range layers {
		if l.Type == layer.TypeImage {
			uris = append(uris, l.BitmapSource)
			targets = append(targets, i)
		}
	}
	if len(uris) == 0 {
		return layers
	}

	if loader == nil {
		for _, i := range targets {
			layers[i].Broken = true
		}
		logrus.WithField("images", len(targets)).Warn("No bitmap loader; image layers restored without bitmaps")
		return layers
	}

	for n, res := range bitmap.LoadAll(ctx, loader, uris) {
		i := targets[n]
		if res.Err != nil {
			logrus.WithFields(logrus.Fields{
				"layer_id": layers[i].ID,
				"source":   truncate(res.URI, 64),
			}).WithError(res.Err).Warn("Failed to reload bitmap")
			layers[i].Broken = true
			continue
		}
		layers[i].Bitmap = res.Image
	}
	return layers
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
