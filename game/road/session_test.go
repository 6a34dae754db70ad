package road

import (
	"reflect"
	"testing"

	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/placement"
	"github.com/wricardo/roadgrid/game/prefab"
	"github.com/wricardo/roadgrid/game/tiles"
)

type fixture struct {
	session *Session
	store   *placement.Store
	factory *placement.HeadlessFactory
	created []grid.Point
	removed []grid.Point
}

func newFixture(w, h int) *fixture {
	ts := tiles.DefaultTileSet()
	f := &fixture{factory: placement.NewHeadlessFactory()}
	f.store = placement.NewStore(grid.New(w, h), f.factory)
	f.session = NewSession(f.store, tiles.NewFixer(ts), prefab.Descriptor{Name: ts.DeadEnd, Tag: prefab.TagRoad})
	f.session.OnObjectCreated(func(st *placement.Structure) {
		f.created = append(f.created, st.Position)
	})
	f.session.OnObjectRemoved(func(st *placement.Structure) {
		f.removed = append(f.removed, st.Position)
	})
	return f
}

// drag performs a full pointer down, hold..., up sequence
func (f *fixture) drag(points ...grid.Point) {
	for _, p := range points {
		f.session.BeginOrContinue(p, false)
	}
	f.session.EndDrag()
}

func (f *fixture) tile(t *testing.T, p grid.Point) (string, int) {
	t.Helper()
	st, ok := f.store.Lookup(p)
	if !ok {
		t.Fatalf("No structure at %v", p)
	}
	return st.Prefab, st.Rotation
}

func pt(x, y int) grid.Point {
	return grid.Point{X: x, Y: y}
}

func TestSession_VerticalDrag(t *testing.T) {
	f := newFixture(10, 10)

	f.session.BeginOrContinue(pt(2, 2), false)
	if f.session.State() != Dragging {
		t.Fatalf("Expected Dragging, got %v", f.session.State())
	}
	if name, _ := f.tile(t, pt(2, 2)); name != "RoadDeadEnd" {
		t.Errorf("Expected staged dead-end, got %s", name)
	}

	f.session.BeginOrContinue(pt(2, 5), false)
	want := []grid.Point{pt(2, 5), pt(2, 4), pt(2, 3), pt(2, 2)}
	if got := f.session.Staged(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected staged %v, got %v", want, got)
	}
	for _, p := range want {
		if !f.store.IsTemp(p) || f.store.Grid().At(p) != grid.Road {
			t.Errorf("Expected staged road at %v", p)
		}
	}

	tests := []struct {
		p        grid.Point
		prefab   string
		rotation int
	}{
		{pt(2, 2), "RoadDeadEnd", 180},
		{pt(2, 3), "RoadStraight", 90},
		{pt(2, 4), "RoadStraight", 90},
		{pt(2, 5), "RoadDeadEnd", 0},
	}
	for _, tt := range tests {
		name, rot := f.tile(t, tt.p)
		if name != tt.prefab || rot != tt.rotation {
			t.Errorf("Tile at %v = %s/%d, want %s/%d", tt.p, name, rot, tt.prefab, tt.rotation)
		}
	}

	if len(f.created) != 0 {
		t.Errorf("Nothing should be committed before release, got %v", f.created)
	}

	committed := f.session.EndDrag()
	if len(committed) != 4 || len(f.created) != 4 {
		t.Errorf("Expected 4 creation notifications, got %d", len(f.created))
	}
	for _, p := range want {
		if !f.store.IsPermanent(p) {
			t.Errorf("Expected %v committed", p)
		}
	}
	if f.session.State() != Idle || f.session.Start() != grid.Invalid || len(f.session.Staged()) != 0 {
		t.Error("Session should be idle and empty after EndDrag")
	}
}

func TestSession_HoldRollsBackPreviousPath(t *testing.T) {
	f := newFixture(10, 10)

	f.session.BeginOrContinue(pt(0, 0), false)
	f.session.BeginOrContinue(pt(5, 0), false)
	f.session.BeginOrContinue(pt(0, 3), false)

	if f.store.Grid().IsRoad(pt(5, 0)) {
		t.Error("Cells from the superseded path should be rolled back")
	}
	if got := f.store.Grid().Count(grid.Road); got != 4 {
		t.Errorf("Expected 4 road cells, got %d", got)
	}
	if f.factory.Live() != 4 {
		t.Errorf("Expected 4 live models, got %d", f.factory.Live())
	}
}

func TestSession_AbortRestoresGrid(t *testing.T) {
	f := newFixture(10, 10)
	f.drag(pt(5, 0), pt(5, 2))
	before := f.store.Grid().Clone()
	beforeName, beforeRot := f.tile(t, pt(5, 1))

	f.session.BeginOrContinue(pt(4, 1), false)
	if name, rot := f.tile(t, pt(5, 1)); name != "ThreeWay" || rot != 0 {
		t.Errorf("Neighbour should become three-way while dragging, got %s/%d", name, rot)
	}
	f.session.BeginOrContinue(pt(2, 1), false)
	f.session.BeginOrContinue(pt(-1, 1), false)

	if f.session.State() != Idle {
		t.Errorf("Expected Idle after leaving the grid, got %v", f.session.State())
	}
	if !f.store.Grid().Equal(before) {
		t.Errorf("Grid changed by aborted drag:\n%v\nwant\n%v", f.store.Grid().Rows(), before.Rows())
	}
	if name, rot := f.tile(t, pt(5, 1)); name != beforeName || rot != beforeRot {
		t.Errorf("Neighbour tile = %s/%d, want %s/%d", name, rot, beforeName, beforeRot)
	}
	if len(f.created) != 3 {
		t.Errorf("Aborted drag must not commit, got %d notifications", len(f.created))
	}

	// Releasing after an abort does nothing
	if got := f.session.EndDrag(); got != nil {
		t.Errorf("EndDrag while idle should be a no-op, got %v", got)
	}
}

func TestSession_CrosswalkOnStagedCell(t *testing.T) {
	start := func(t *testing.T) *fixture {
		t.Helper()
		f := newFixture(6, 6)
		f.session.BeginOrContinue(pt(2, 2), false)
		f.session.BeginOrContinue(pt(2, 5), false)
		if on, ok := f.session.ToggleCrosswalk(pt(2, 4)); !on || !ok {
			t.Fatalf("Toggling a staged road should succeed, got on=%v ok=%v", on, ok)
		}
		return f
	}

	t.Run("survives holds along the same path", func(t *testing.T) {
		f := start(t)
		f.session.BeginOrContinue(pt(2, 5), false)
		if name, _ := f.tile(t, pt(2, 4)); name != "RoadStraightCrossWalk" {
			t.Errorf("Expected the crosswalk to persist across a hold, got %s", name)
		}
	})

	t.Run("abort clears the flag", func(t *testing.T) {
		f := start(t)
		f.session.BeginOrContinue(pt(-1, 5), false)

		if cw := f.store.Crosswalks(); len(cw) != 0 {
			t.Fatalf("Expected no crosswalks after abort, got %v", cw)
		}

		f.drag(pt(0, 4), pt(4, 4))
		if name, _ := f.tile(t, pt(2, 4)); name != "RoadStraight" {
			t.Errorf("New road over the aborted crosswalk should be plain, got %s", name)
		}
	})

	t.Run("forced restart clears the flag", func(t *testing.T) {
		f := start(t)
		f.session.BeginOrContinue(pt(0, 0), true)
		f.session.EndDrag()

		if f.store.IsCrosswalk(pt(2, 4)) {
			t.Error("Expected the abandoned drag's crosswalk to be cleared")
		}
	})

	t.Run("commit keeps only flags on the final path", func(t *testing.T) {
		f := start(t)
		f.session.BeginOrContinue(pt(2, 3), false)
		f.session.EndDrag()

		if f.store.IsCrosswalk(pt(2, 4)) {
			t.Error("Expected the flag off the committed path to be cleared")
		}

		f.session.BeginOrContinue(pt(3, 0), false)
		f.session.BeginOrContinue(pt(3, 2), false)
		f.session.ToggleCrosswalk(pt(3, 1))
		f.session.EndDrag()
		if !f.store.IsCrosswalk(pt(3, 1)) {
			t.Error("Expected a flag on a committed road to survive EndDrag")
		}
	})
}

func TestSession_IdleOutOfBoundsIsNoop(t *testing.T) {
	f := newFixture(3, 3)

	f.session.BeginOrContinue(pt(7, 7), false)
	if f.session.State() != Idle || f.store.Grid().Count(grid.Road) != 0 {
		t.Error("Out of bounds press while idle should do nothing")
	}
}

func TestSession_DragAcrossOccupiedCells(t *testing.T) {
	f := newFixture(8, 3)
	house := prefab.Descriptor{Name: "House", Tag: "Structure"}
	if _, err := f.store.PlacePermanent(pt(3, 1), house, grid.Structure, 0); err != nil {
		t.Fatal(err)
	}
	f.created = nil

	f.session.BeginOrContinue(pt(0, 1), false)
	f.session.BeginOrContinue(pt(6, 1), false)

	if !f.store.Grid().IsStructure(pt(3, 1)) {
		t.Error("Structure on the path must not be replaced")
	}
	for _, x := range []int{0, 1, 2, 4, 5, 6} {
		if !f.store.IsTemp(pt(x, 1)) {
			t.Errorf("Expected staged road at (%d,1)", x)
		}
	}
	if !reflect.DeepEqual(f.session.Pending()[:1], []grid.Point{pt(3, 1)}) {
		t.Errorf("Occupied cell should be pending, got %v", f.session.Pending())
	}
	if name, _ := f.tile(t, pt(3, 1)); name != "House" {
		t.Errorf("Structure was re-tiled to %s", name)
	}

	f.session.EndDrag()
	if len(f.created) != 6 {
		t.Errorf("Expected 6 committed roads, got %d", len(f.created))
	}
}

func TestSession_BeginOnExistingRoad(t *testing.T) {
	f := newFixture(6, 6)
	f.drag(pt(1, 1), pt(1, 3))

	f.session.BeginOrContinue(pt(1, 3), false)
	if f.store.IsTemp(pt(1, 3)) {
		t.Error("Existing road must not be staged again")
	}
	f.session.BeginOrContinue(pt(3, 3), false)
	f.session.EndDrag()

	if name, rot := f.tile(t, pt(1, 3)); name != "Corner" || rot != 180 {
		t.Errorf("Corner at (1,3) = %s/%d, want Corner/180", name, rot)
	}
	if len(f.created) != 5 {
		t.Errorf("Expected 5 notifications, got %d", len(f.created))
	}
}

func TestSession_LShapeCrosswalk(t *testing.T) {
	f := newFixture(6, 6)
	f.drag(pt(2, 3), pt(2, 2))
	f.drag(pt(2, 2), pt(3, 2))

	name, rot := f.tile(t, pt(2, 2))
	if name != "Corner" || rot != 90 {
		t.Fatalf("Expected Corner/90 at the bend, got %s/%d", name, rot)
	}

	on, ok := f.session.ToggleCrosswalk(pt(2, 2))
	if !ok || !on {
		t.Fatalf("Toggle should enable crosswalk, got on=%v ok=%v", on, ok)
	}
	if name, r := f.tile(t, pt(2, 2)); name != "CornerCrossWalk" || r != rot {
		t.Errorf("Expected CornerCrossWalk/%d, got %s/%d", rot, name, r)
	}

	f.session.ToggleCrosswalk(pt(2, 2))
	if name, r := f.tile(t, pt(2, 2)); name != "Corner" || r != rot {
		t.Errorf("Second toggle should revert to Corner/%d, got %s/%d", rot, name, r)
	}

	if _, ok := f.session.ToggleCrosswalk(pt(0, 0)); ok {
		t.Error("Toggling an empty cell should report not a road")
	}
}

func TestSession_PlaceThenRemove(t *testing.T) {
	f := newFixture(5, 5)
	p := pt(2, 2)
	f.drag(p)

	removed := f.session.RemoveRoad(p)
	if removed == nil {
		t.Fatal("Expected a removed structure")
	}
	g := f.store.Grid()
	if g.At(p) != grid.Empty || g.IsRoad(p) || g.IsStructure(p) {
		t.Error("Cell should be Empty and out of both index sets")
	}
	if !reflect.DeepEqual(f.removed, []grid.Point{p}) {
		t.Errorf("Expected removal notification for %v, got %v", p, f.removed)
	}

	if f.session.RemoveRoad(p) != nil || len(f.removed) != 1 {
		t.Error("Removing a free cell should be a no-op")
	}
}

func TestSession_RemoveRetilesNeighbours(t *testing.T) {
	f := newFixture(5, 5)
	f.drag(pt(0, 2), pt(4, 2))

	f.session.RemoveRoad(pt(2, 2))

	if name, rot := f.tile(t, pt(1, 2)); name != "RoadDeadEnd" || rot != 90 {
		t.Errorf("Left neighbour = %s/%d, want RoadDeadEnd/90", name, rot)
	}
	if name, rot := f.tile(t, pt(3, 2)); name != "RoadDeadEnd" || rot != 270 {
		t.Errorf("Right neighbour = %s/%d, want RoadDeadEnd/270", name, rot)
	}
}

func TestSession_ForceRestart(t *testing.T) {
	f := newFixture(6, 6)

	f.session.BeginOrContinue(pt(0, 0), false)
	f.session.BeginOrContinue(pt(3, 0), false)
	f.session.BeginOrContinue(pt(5, 5), true)

	if f.session.Start() != pt(5, 5) {
		t.Errorf("Forced restart should move the drag start, got %v", f.session.Start())
	}
	if got := f.store.TempPositions(); !reflect.DeepEqual(got, []grid.Point{pt(5, 5)}) {
		t.Errorf("Expected only the new start staged, got %v", got)
	}
}

func TestSession_ClearScene(t *testing.T) {
	f := newFixture(5, 5)
	f.drag(pt(0, 0), pt(0, 4))
	f.session.BeginOrContinue(pt(2, 2), false)

	f.session.ClearScene()

	if f.session.State() != Idle || f.store.Grid().Count(grid.Empty) != 25 {
		t.Error("ClearScene should leave an empty grid and an idle session")
	}
	if f.factory.Live() != 0 {
		t.Errorf("Expected no live models, got %d", f.factory.Live())
	}
}
