package snap

import (
	"testing"

	"layer-composer/pkg/geometry"
)

func baseOptions() Options {
	return Options{
		Threshold:     5,
		Zoom:          1,
		SameSizeDelta: 2,
		GridSize:      20,
		Canvas:        geometry.NewSize(800, 600),
	}
}

func countKind(guides []Guide, o Orientation, k Kind) int {
	n := 0
	for _, g := range guides {
		if g.Orientation == o && g.Kind == k {
			n++
		}
	}
	return n
}

func TestDetect_SnapsLeftEdgeExactly(t *testing.T) {
	sibling := Target{ID: "a", Bounds: geometry.NewRect(123.5, 400, 60, 60)}
	moving := geometry.NewRect(126.25, 50, 40, 40)

	res := Detect(moving, []Target{sibling}, baseOptions())
	if res.Position.X != 123.5 {
		t.Errorf("snapped x: got %v, want 123.5", res.Position.X)
	}
	if res.Position.Y != 50 {
		t.Errorf("y should be untouched: got %v", res.Position.Y)
	}
	if countKind(res.Guides, Vertical, KindEdge) != 1 {
		t.Errorf("expected one vertical edge guide, got %+v", res.Guides)
	}
}

func TestDetect_CenterAlignmentScenario(t *testing.T) {
	a := Target{ID: "a", Name: "A", Bounds: geometry.NewRect(100, 100, 200, 100)} // centre (200,150)
	moving := geometry.NewRect(153, 127, 100, 50)                                 // centre (203,152)

	res := Detect(moving, []Target{a}, baseOptions())

	want := geometry.Point2D{X: 200 - 50, Y: 150 - 25}
	if res.Position != want {
		t.Errorf("position: got %+v, want %+v", res.Position, want)
	}
	if countKind(res.Guides, Vertical, KindCenter) != 1 || countKind(res.Guides, Horizontal, KindCenter) != 1 {
		t.Errorf("expected vertical and horizontal centre guides, got %+v", res.Guides)
	}
	for _, g := range res.Guides {
		if g.Kind == KindCenter && !g.Snaps() {
			t.Errorf("centre guide should carry a snap offset: %+v", g)
		}
	}
}

func TestDetect_CanvasCenterAndEdges(t *testing.T) {
	opts := baseOptions()

	res := Detect(geometry.NewRect(352, 2, 100, 50), nil, opts)
	if res.Position.X != 350 {
		t.Errorf("canvas centre snap: got x=%v, want 350", res.Position.X)
	}
	if res.Position.Y != 0 {
		t.Errorf("canvas top snap: got y=%v, want 0", res.Position.Y)
	}

	var labels []string
	for _, g := range res.Guides {
		labels = append(labels, g.Label)
	}
	if len(labels) != 2 || labels[0] != "Center" || labels[1] != "0" {
		t.Errorf("labels: got %v, want [Center 0]", labels)
	}

	res = Detect(geometry.NewRect(697, 300, 100, 50), nil, opts)
	if res.Position.X != 700 {
		t.Errorf("right edge snap: got x=%v, want 700", res.Position.X)
	}
	if res.Guides[0].Label != "800" {
		t.Errorf("right edge label: got %q, want 800", res.Guides[0].Label)
	}
}

func TestDetect_NearestCandidateWins(t *testing.T) {
	far := Target{ID: "far", Bounds: geometry.NewRect(104, 400, 10, 10)}
	near := Target{ID: "near", Bounds: geometry.NewRect(101, 500, 10, 10)}
	moving := geometry.NewRect(100, 50, 40, 40)

	res := Detect(moving, []Target{far, near}, baseOptions())
	if res.Position.X != 101 {
		t.Errorf("nearest should win: got x=%v, want 101", res.Position.X)
	}
}

func TestDetect_TieKeepsEarliest(t *testing.T) {
	first := Target{ID: "first", Bounds: geometry.NewRect(98, 400, 10, 10)}
	second := Target{ID: "second", Bounds: geometry.NewRect(102, 500, 10, 10)}
	moving := geometry.NewRect(100, 50, 40, 40)

	res := Detect(moving, []Target{first, second}, baseOptions())
	if res.Position.X != 98 {
		t.Errorf("tie should keep first target: got x=%v, want 98", res.Position.X)
	}
}

func TestDetect_ZoomShrinksThreshold(t *testing.T) {
	sibling := Target{ID: "a", Bounds: geometry.NewRect(100, 400, 60, 60)}
	moving := geometry.NewRect(104, 50, 40, 40)

	opts := baseOptions()
	opts.Zoom = 2 // threshold 2.5
	res := Detect(moving, []Target{sibling}, opts)
	if res.Position.X != 104 {
		t.Errorf("zoomed threshold should not snap 4 units: got x=%v", res.Position.X)
	}
}

func TestDetect_GridOverridesAlignment(t *testing.T) {
	sibling := Target{ID: "a", Bounds: geometry.NewRect(103, 400, 60, 60)}
	moving := geometry.NewRect(105, 47, 40, 40)

	opts := baseOptions()
	opts.GridEnabled = true
	res := Detect(moving, []Target{sibling}, opts)
	if res.Position.X != 100 || res.Position.Y != 40 {
		t.Errorf("grid snap: got %+v, want (100,40)", res.Position)
	}
	if countKind(res.Guides, Vertical, KindGrid) != 1 {
		t.Errorf("expected grid guide, got %+v", res.Guides)
	}
}

func TestDetect_SameSizeIsInformational(t *testing.T) {
	sibling := Target{ID: "a", Bounds: geometry.NewRect(500, 400, 101, 30)}
	moving := geometry.NewRect(200, 100, 100, 80)

	res := Detect(moving, []Target{sibling}, baseOptions())
	if res.Position.X != 200 || res.Position.Y != 100 {
		t.Errorf("same-size must not move the box: got %+v", res.Position)
	}
	found := false
	for _, g := range res.Guides {
		if g.Kind == KindSameSize {
			found = true
			if g.Snaps() {
				t.Error("same-size guide carries a snap offset")
			}
		}
	}
	if !found {
		t.Error("expected a same-size guide")
	}
}

func TestDetect_NoMatchNoGuides(t *testing.T) {
	res := Detect(geometry.NewRect(200, 200, 50, 50), nil, baseOptions())
	if len(res.Guides) != 0 {
		t.Errorf("expected no guides, got %+v", res.Guides)
	}
	if res.Offset != (geometry.Point2D{}) {
		t.Errorf("expected zero offset, got %+v", res.Offset)
	}
}
