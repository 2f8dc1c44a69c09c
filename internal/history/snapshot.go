// Package history keeps an undo/redo log of committed layer states.
package history

import (
	"encoding/json"
	"fmt"

	"layer-composer/internal/layer"
)

// Snapshot is an immutable, ordered copy of the layer list at one point in
// time. Image records carry only their bitmap source; live handles are
// never captured.
type Snapshot struct {
	records []layer.Layer
}

// NewSnapshot captures layers, dropping bitmap handles.
func NewSnapshot(layers []layer.Layer) Snapshot {
	records := make([]layer.Layer, len(layers))
	for i, l := range layers {
		l.Bitmap = nil
		records[i] = l
	}
	return Snapshot{records: records}
}

// Len returns the number of records.
func (s Snapshot) Len() int {
	return len(s.records)
}

// Records returns a copy of the serialized layers.
func (s Snapshot) Records() []layer.Layer {
	out := make([]layer.Layer, len(s.records))
	copy(out, s.records)
	return out
}

// MarshalJSON encodes the snapshot as a JSON array of layer records.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if s.records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.records)
}

// UnmarshalJSON decodes a JSON array of layer records.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var records []layer.Layer
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	*s = NewSnapshot(records)
	return nil
}
