package tiles

import (
	"testing"

	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/placement"
	"github.com/wricardo/roadgrid/game/prefab"
)

const (
	R = grid.Road
	E = grid.Empty
	S = grid.Structure
	N = grid.None
)

func TestSelect_AllPatterns(t *testing.T) {
	// Every subset of road neighbours, in [Left, Up, Right, Down] order
	tests := []struct {
		name      string
		neighbors [4]grid.CellType
		shape     Shape
		rotation  int
	}{
		{"none", [4]grid.CellType{E, E, E, E}, DeadEnd, 0},
		{"left", [4]grid.CellType{R, E, E, E}, DeadEnd, 90},
		{"up", [4]grid.CellType{E, R, E, E}, DeadEnd, 180},
		{"right", [4]grid.CellType{E, E, R, E}, DeadEnd, 270},
		{"down", [4]grid.CellType{E, E, E, R}, DeadEnd, 0},
		{"left right", [4]grid.CellType{R, E, R, E}, Straight, 0},
		{"up down", [4]grid.CellType{E, R, E, R}, Straight, 90},
		{"up right", [4]grid.CellType{E, R, R, E}, Corner, 90},
		{"right down", [4]grid.CellType{E, E, R, R}, Corner, 180},
		{"down left", [4]grid.CellType{R, E, E, R}, Corner, 270},
		{"left up", [4]grid.CellType{R, R, E, E}, Corner, 0},
		{"missing right", [4]grid.CellType{R, R, E, R}, ThreeWay, 0},
		{"missing down", [4]grid.CellType{R, R, R, E}, ThreeWay, 90},
		{"missing left", [4]grid.CellType{E, R, R, R}, ThreeWay, 180},
		{"missing up", [4]grid.CellType{R, E, R, R}, ThreeWay, 270},
		{"all", [4]grid.CellType{R, R, R, R}, FourWay, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.neighbors, false)
			if got.Shape != tt.shape || got.Rotation != tt.rotation {
				t.Errorf("Select(%v) = %v/%d, want %v/%d", tt.neighbors, got.Shape, got.Rotation, tt.shape, tt.rotation)
			}

			// Crosswalk keeps shape; only three-way rotations move
			cw := Select(tt.neighbors, true)
			want := tt.rotation
			if tt.shape == ThreeWay {
				want = normalize(tt.rotation - 90)
			}
			if cw.Shape != tt.shape || cw.Rotation != want || !cw.Crosswalk {
				t.Errorf("Select(%v, crosswalk) = %+v, want %v/%d", tt.neighbors, cw, tt.shape, want)
			}
		})
	}
}

func TestSelect_ThreeWayCrosswalkOffset(t *testing.T) {
	tests := []struct {
		neighbors [4]grid.CellType
		want      int
	}{
		{[4]grid.CellType{R, R, E, R}, 270},
		{[4]grid.CellType{R, R, R, E}, 0},
		{[4]grid.CellType{E, R, R, R}, 90},
		{[4]grid.CellType{R, E, R, R}, 180},
	}
	for _, tt := range tests {
		if got := Select(tt.neighbors, true).Rotation; got != tt.want {
			t.Errorf("Select(%v, crosswalk).Rotation = %d, want %d", tt.neighbors, got, tt.want)
		}
	}
}

func TestSelect_IgnoresNonRoadNeighbours(t *testing.T) {
	plain := Select([4]grid.CellType{R, E, E, E}, false)
	mixed := Select([4]grid.CellType{R, S, N, S}, false)
	if plain != mixed {
		t.Errorf("Structures and out-of-bounds neighbours must not count, got %+v vs %+v", plain, mixed)
	}
}

func TestSelect_Deterministic(t *testing.T) {
	n := [4]grid.CellType{E, R, R, E}
	first := Select(n, true)
	for i := 0; i < 10; i++ {
		if got := Select(n, true); got != first {
			t.Fatalf("Run %d returned %+v, want %+v", i, got, first)
		}
	}
}

func TestTileSet_Prefab(t *testing.T) {
	ts := DefaultTileSet()

	tests := []struct {
		tile Tile
		want string
	}{
		{Tile{Shape: DeadEnd}, "RoadDeadEnd"},
		{Tile{Shape: DeadEnd, Crosswalk: true}, "RoadDeadEnd"},
		{Tile{Shape: Straight}, "RoadStraight"},
		{Tile{Shape: Straight, Crosswalk: true}, "RoadStraightCrossWalk"},
		{Tile{Shape: Corner, Crosswalk: true}, "CornerCrossWalk"},
		{Tile{Shape: ThreeWay}, "ThreeWay"},
		{Tile{Shape: FourWay, Crosswalk: true}, "FourWayCrossWalk"},
	}
	for _, tt := range tests {
		if got := ts.Prefab(tt.tile); got != tt.want {
			t.Errorf("Prefab(%+v) = %q, want %q", tt.tile, got, tt.want)
		}
	}

	if err := ts.Validate(); err != nil {
		t.Errorf("Default tile set should be valid: %v", err)
	}
	if err := (TileSet{}).Validate(); err == nil {
		t.Error("Expected error for empty tile set")
	}
	if len(ts.Descriptors()) != 9 {
		t.Errorf("Expected 9 descriptors, got %d", len(ts.Descriptors()))
	}
}

func TestFixer_Fix(t *testing.T) {
	s := placement.NewStore(grid.New(5, 5), nil)
	f := NewFixer(DefaultTileSet())
	road := prefab.Descriptor{Name: "RoadDeadEnd", Tag: prefab.TagRoad}

	// Horizontal line through (2,2)
	for x := 1; x <= 3; x++ {
		if err := s.PlaceTemp(grid.Point{X: x, Y: 2}, road, grid.Road); err != nil {
			t.Fatal(err)
		}
	}
	f.FixAll(s, s.TempPositions())

	mid, _ := s.Lookup(grid.Point{X: 2, Y: 2})
	if mid.Prefab != "RoadStraight" || mid.Rotation != 0 {
		t.Errorf("Middle cell = %s/%d, want RoadStraight/0", mid.Prefab, mid.Rotation)
	}
	left, _ := s.Lookup(grid.Point{X: 1, Y: 2})
	if left.Prefab != "RoadDeadEnd" || left.Rotation != 270 {
		t.Errorf("Left end = %s/%d, want RoadDeadEnd/270", left.Prefab, left.Rotation)
	}

	s.ToggleCrosswalk(grid.Point{X: 2, Y: 2})
	f.Fix(s, grid.Point{X: 2, Y: 2})
	if mid.Prefab != "RoadStraightCrossWalk" || mid.Rotation != 0 {
		t.Errorf("Crosswalk cell = %s/%d, want RoadStraightCrossWalk/0", mid.Prefab, mid.Rotation)
	}

	t.Run("skips non-road cells", func(t *testing.T) {
		house := prefab.Descriptor{Name: "House", Tag: "Structure"}
		st, err := s.PlacePermanent(grid.Point{X: 0, Y: 0}, house, grid.Structure, 0)
		if err != nil {
			t.Fatal(err)
		}
		f.Fix(s, st.Position)
		if st.Prefab != "House" {
			t.Errorf("Structure was re-tiled to %s", st.Prefab)
		}
		f.Fix(s, grid.Point{X: 9, Y: 9})
	})
}

func TestFixer_Committed(t *testing.T) {
	s := placement.NewStore(grid.New(5, 5), nil)
	f := NewFixer(DefaultTileSet())
	road := prefab.Descriptor{Name: "RoadDeadEnd", Tag: prefab.TagRoad}

	for _, p := range []grid.Point{{X: 2, Y: 2}, {X: 2, Y: 3}} {
		if _, err := s.PlacePermanent(p, road, grid.Road, 0); err != nil {
			t.Fatal(err)
		}
	}
	for _, p := range []grid.Point{{X: 1, Y: 2}, {X: 3, Y: 2}} {
		if err := s.PlaceTemp(p, road, grid.Road); err != nil {
			t.Fatal(err)
		}
	}
	center := grid.Point{X: 2, Y: 2}
	f.Fix(s, center)

	live, _ := s.Lookup(center)
	if live.Prefab != "ThreeWay" {
		t.Errorf("Live tile = %s, want ThreeWay", live.Prefab)
	}

	// Staged cells left and right count as empty, leaving only the road above
	want := Select([4]grid.CellType{E, R, E, E}, false)
	name, rotation := f.Committed(s, center)
	if name != "RoadDeadEnd" || rotation != want.Rotation {
		t.Errorf("Committed = %s/%d, want RoadDeadEnd/%d", name, rotation, want.Rotation)
	}
}
