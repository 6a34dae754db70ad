package tiles

import (
	"fmt"

	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/placement"
	"github.com/wricardo/roadgrid/game/prefab"
)

// TileSet names the prefab used for each shape, plain and crosswalk.
// Dead-ends have no crosswalk form.
type TileSet struct {
	DeadEnd           string `json:"dead_end" yaml:"dead_end"`
	Straight          string `json:"straight" yaml:"straight"`
	StraightCrosswalk string `json:"straight_crosswalk" yaml:"straight_crosswalk"`
	Corner            string `json:"corner" yaml:"corner"`
	CornerCrosswalk   string `json:"corner_crosswalk" yaml:"corner_crosswalk"`
	ThreeWay          string `json:"three_way" yaml:"three_way"`
	ThreeWayCrosswalk string `json:"three_way_crosswalk" yaml:"three_way_crosswalk"`
	FourWay           string `json:"four_way" yaml:"four_way"`
	FourWayCrosswalk  string `json:"four_way_crosswalk" yaml:"four_way_crosswalk"`
}

// DefaultTileSet returns the stock road prefab names
func DefaultTileSet() TileSet {
	return TileSet{
		DeadEnd:           "RoadDeadEnd",
		Straight:          "RoadStraight",
		StraightCrosswalk: "RoadStraightCrossWalk",
		Corner:            "Corner",
		CornerCrosswalk:   "CornerCrossWalk",
		ThreeWay:          "ThreeWay",
		ThreeWayCrosswalk: "ThreeWayCrossWalk",
		FourWay:           "FourWay",
		FourWayCrosswalk:  "FourWayCrossWalk",
	}
}

// Prefab returns the prefab name for a selected tile
func (ts TileSet) Prefab(t Tile) string {
	switch t.Shape {
	case Straight:
		return pick(t.Crosswalk, ts.StraightCrosswalk, ts.Straight)
	case Corner:
		return pick(t.Crosswalk, ts.CornerCrosswalk, ts.Corner)
	case ThreeWay:
		return pick(t.Crosswalk, ts.ThreeWayCrosswalk, ts.ThreeWay)
	case FourWay:
		return pick(t.Crosswalk, ts.FourWayCrosswalk, ts.FourWay)
	default:
		return ts.DeadEnd
	}
}

// Names returns every prefab name in the set
func (ts TileSet) Names() []string {
	return []string{
		ts.DeadEnd,
		ts.Straight, ts.StraightCrosswalk,
		ts.Corner, ts.CornerCrosswalk,
		ts.ThreeWay, ts.ThreeWayCrosswalk,
		ts.FourWay, ts.FourWayCrosswalk,
	}
}

// Validate checks every slot is named
func (ts TileSet) Validate() error {
	for i, name := range ts.Names() {
		if name == "" {
			return fmt.Errorf("tile set slot %d has no prefab name", i)
		}
	}
	return nil
}

// Descriptors returns road-tagged prefab descriptors for every tile in the set
func (ts TileSet) Descriptors() []prefab.Descriptor {
	seen := make(map[string]bool)
	var out []prefab.Descriptor
	for _, name := range ts.Names() {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, prefab.Descriptor{Name: name, Tag: prefab.TagRoad})
	}
	return out
}

// Fixer re-tiles road cells in a placement store
type Fixer struct {
	Tiles TileSet
}

// NewFixer creates a fixer using ts
func NewFixer(ts TileSet) *Fixer {
	return &Fixer{Tiles: ts}
}

// Fix selects the tile for pos from its live neighbours and crosswalk flag
// and swaps it into the store. Cells that are not roads are left alone.
func (f *Fixer) Fix(s *placement.Store, pos grid.Point) {
	g := s.Grid()
	if !g.ContainsPoint(pos) || g.At(pos) != grid.Road {
		return
	}

	tile := Select(g.NeighborTypes(pos.X, pos.Y), s.IsCrosswalk(pos))
	s.SwapModel(pos, f.Tiles.Prefab(tile), tile.Rotation)
}

// Committed returns the prefab and rotation the road at pos has in the
// committed scene, treating staged neighbours as empty
func (f *Fixer) Committed(s *placement.Store, pos grid.Point) (string, int) {
	g := s.Grid()
	types := g.NeighborTypes(pos.X, pos.Y)
	for i, n := range g.Neighbors(pos.X, pos.Y) {
		if n != grid.Invalid && s.IsTemp(n) {
			types[i] = grid.Empty
		}
	}
	tile := Select(types, s.IsCrosswalk(pos))
	return f.Tiles.Prefab(tile), tile.Rotation
}

// FixAll runs Fix over every position
func (f *Fixer) FixAll(s *placement.Store, positions []grid.Point) {
	for _, pos := range positions {
		f.Fix(s, pos)
	}
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
