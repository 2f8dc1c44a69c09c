package layer

import (
	"reflect"
	"testing"
)

func ids(layers []Layer) []string {
	out := make([]string, len(layers))
	for i, l := range layers {
		out[i] = l.ID
	}
	return out
}

func newTestStore(t *testing.T, names ...string) *Store {
	t.Helper()
	s := NewStore()
	for _, n := range names {
		l := NewRectangle(0, 0, 10, 10, "#fff")
		l.ID = n
		s.Add(l)
	}
	return s
}

func TestAdd_AppendsAndSelects(t *testing.T) {
	s := newTestStore(t, "a", "b")

	got := s.Add(NewCircle(5, 5, 10, "red"))
	if got.ID == "" {
		t.Fatal("Add() did not assign an id")
	}
	if len(got.ID) != 26 {
		t.Errorf("Add() id length: got %d, want 26", len(got.ID))
	}

	layers := s.Layers()
	if layers[len(layers)-1].ID != got.ID {
		t.Errorf("Add() did not append on top: %v", ids(layers))
	}
	if sel := s.SelectedIDs(); !reflect.DeepEqual(sel, []string{got.ID}) {
		t.Errorf("Add() selection: got %v, want [%s]", sel, got.ID)
	}
}

func TestRemove_ClearsSelection(t *testing.T) {
	s := newTestStore(t, "a", "b", "c")
	s.SetSelection([]string{"a", "c"}, false)

	if n := s.Remove("a", "missing"); n != 1 {
		t.Errorf("Remove() count: got %d, want 1", n)
	}
	if got := ids(s.Layers()); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Remove() order: got %v", got)
	}
	if len(s.SelectedIDs()) != 0 {
		t.Errorf("Remove() left selection %v", s.SelectedIDs())
	}
}

func TestReorder(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		dir     Direction
		want    []string
		changed bool
	}{
		{"up from bottom", "a", Up, []string{"b", "a", "c"}, true},
		{"down from top", "c", Down, []string{"a", "c", "b"}, true},
		{"up at top", "c", Up, []string{"a", "b", "c"}, false},
		{"down at bottom", "a", Down, []string{"a", "b", "c"}, false},
		{"unknown id", "zz", Up, []string{"a", "b", "c"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, "a", "b", "c")
			if changed := s.Reorder(tt.id, tt.dir); changed != tt.changed {
				t.Errorf("Reorder() changed: got %v, want %v", changed, tt.changed)
			}
			if got := ids(s.Layers()); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Reorder() order: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBringToFrontAndSendToBack(t *testing.T) {
	s := newTestStore(t, "a", "b", "c", "d")

	s.BringToFront("b")
	if got := ids(s.Layers()); !reflect.DeepEqual(got, []string{"a", "c", "d", "b"}) {
		t.Errorf("BringToFront() order: got %v", got)
	}
	s.SendToBack("d")
	if got := ids(s.Layers()); !reflect.DeepEqual(got, []string{"d", "a", "c", "b"}) {
		t.Errorf("SendToBack() order: got %v", got)
	}
	if s.SendToBack("d") {
		t.Error("SendToBack() on bottom layer should report no change")
	}
}

func TestSetSelection(t *testing.T) {
	s := newTestStore(t, "a", "b", "c")

	s.SetSelection([]string{"a"}, false)
	s.SetSelection([]string{"b"}, true)
	if got := s.SelectedIDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("additive select: got %v", got)
	}

	s.SetSelection([]string{"a"}, true)
	if got := s.SelectedIDs(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("additive toggle: got %v", got)
	}

	s.SetSelection([]string{"c", "ghost", "c"}, false)
	if got := s.SelectedIDs(); !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("replace select: got %v, want [c]", got)
	}
}

func TestUpdate_KeepsID(t *testing.T) {
	s := newTestStore(t, "a")

	ok := s.Update("a", func(l *Layer) {
		l.ID = "hijack"
		l.Fill = "#123456"
	})
	if !ok {
		t.Fatal("Update() returned false for live id")
	}
	l, _ := s.Get("a")
	if l.Fill != "#123456" {
		t.Errorf("Update() fill: got %q", l.Fill)
	}
	if s.Update("missing", func(*Layer) {}) {
		t.Error("Update() should report false for missing id")
	}
}

func TestReplace_PrunesSelection(t *testing.T) {
	s := newTestStore(t, "a", "b")
	s.SetSelection([]string{"a", "b"}, false)

	keep, _ := s.Get("b")
	s.Replace([]Layer{keep})

	if got := s.SelectedIDs(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("Replace() selection: got %v, want [b]", got)
	}
}

func TestFlags(t *testing.T) {
	s := newTestStore(t, "a")
	s.SetVisible("a", false)
	s.SetLocked("a", true)
	s.Rename("a", "Logo")

	l, _ := s.Get("a")
	if l.Visible || !l.Locked || l.Name != "Logo" {
		t.Errorf("flags not applied: %+v", l)
	}
}
