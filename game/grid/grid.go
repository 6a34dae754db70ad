package grid

import (
	"fmt"
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// Grid is a dense width x height array of cell types plus road and
// structure index sets kept in sync with every write.
type Grid struct {
	width      int
	height     int
	cells      []CellType
	roads      mapset.Set[Point]
	structures mapset.Set[Point]
}

// New creates an empty grid of the given size
func New(width, height int) *Grid {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("grid: invalid size %dx%d", width, height))
	}
	return &Grid{
		width:      width,
		height:     height,
		cells:      make([]CellType, width*height),
		roads:      mapset.New[Point](),
		structures: mapset.New[Point](),
	}
}

// Width returns the number of columns
func (g *Grid) Width() int {
	return g.width
}

// Height returns the number of rows
func (g *Grid) Height() int {
	return g.height
}

// Contains reports whether x,y lies inside the grid
func (g *Grid) Contains(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// ContainsPoint reports whether p lies inside the grid
func (g *Grid) ContainsPoint(p Point) bool {
	return g.Contains(p.X, p.Y)
}

// Get returns the type stored at x,y. It panics when x,y is out of bounds;
// use Contains first.
func (g *Grid) Get(x, y int) CellType {
	return g.cells[g.index(x, y)]
}

// At is Get for a Point
func (g *Grid) At(p Point) CellType {
	return g.Get(p.X, p.Y)
}

// Set stores t at x,y and updates the road and structure index sets
func (g *Grid) Set(x, y int, t CellType) {
	if t == None {
		panic("grid: CellType None cannot be stored")
	}
	i := g.index(x, y)
	p := Point{X: x, Y: y}

	switch t {
	case Road:
		g.structures.Remove(p)
		g.roads.Put(p)
	case Structure:
		g.roads.Remove(p)
		g.structures.Put(p)
	default:
		g.roads.Remove(p)
		g.structures.Remove(p)
	}
	g.cells[i] = t
}

// SetPoint is Set for a Point
func (g *Grid) SetPoint(p Point, t CellType) {
	g.Set(p.X, p.Y, t)
}

// Neighbors returns the four neighbours of x,y in [Left, Up, Right, Down]
// order, with Invalid for any neighbour outside the grid.
func (g *Grid) Neighbors(x, y int) [4]Point {
	candidates := [4]Point{
		{X: x - 1, Y: y}, // Left
		{X: x, Y: y + 1}, // Up
		{X: x + 1, Y: y}, // Right
		{X: x, Y: y - 1}, // Down
	}

	var out [4]Point
	for i, c := range candidates {
		if g.Contains(c.X, c.Y) {
			out[i] = c
		} else {
			out[i] = Invalid
		}
	}
	return out
}

// NeighborTypes returns the types of the four neighbours of x,y, using None
// for neighbours outside the grid.
func (g *Grid) NeighborTypes(x, y int) [4]CellType {
	var out [4]CellType
	for i, p := range g.Neighbors(x, y) {
		if p == Invalid {
			out[i] = None
			continue
		}
		out[i] = g.cells[g.index(p.X, p.Y)]
	}
	return out
}

// NeighborsOfType returns the in-bounds neighbours of x,y whose live type is t,
// in neighbour order.
func (g *Grid) NeighborsOfType(x, y int, t CellType) []Point {
	var out []Point
	for _, p := range g.Neighbors(x, y) {
		if p == Invalid {
			continue
		}
		if g.cells[g.index(p.X, p.Y)] == t {
			out = append(out, p)
		}
	}
	return out
}

// Clear resets every cell to Empty and empties both index sets
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = Empty
	}
	g.roads = mapset.New[Point]()
	g.structures = mapset.New[Point]()
}

// Roads returns the road index set as a sorted slice
func (g *Grid) Roads() []Point {
	return sortedPoints(g.roads)
}

// Structures returns the structure index set as a sorted slice
func (g *Grid) Structures() []Point {
	return sortedPoints(g.structures)
}

// IsRoad reports whether p is indexed as a road
func (g *Grid) IsRoad(p Point) bool {
	return g.roads.Has(p)
}

// IsStructure reports whether p is indexed as a structure
func (g *Grid) IsStructure(p Point) bool {
	return g.structures.Has(p)
}

// Count returns how many cells currently hold t
func (g *Grid) Count(t CellType) int {
	switch t {
	case Road:
		return g.roads.Size()
	case Structure:
		return g.structures.Size()
	case Empty:
		return len(g.cells) - g.roads.Size() - g.structures.Size()
	default:
		return 0
	}
}

// Rows renders the grid as text, top row (highest Y) first
func (g *Grid) Rows() []string {
	rows := make([]string, 0, g.height)
	for y := g.height - 1; y >= 0; y-- {
		row := make([]byte, g.width)
		for x := 0; x < g.width; x++ {
			row[x] = g.cells[g.index(x, y)].Char()
		}
		rows = append(rows, string(row))
	}
	return rows
}

// Clone returns a deep copy of the grid
func (g *Grid) Clone() *Grid {
	c := New(g.width, g.height)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if t := g.Get(x, y); t != Empty {
				c.Set(x, y, t)
			}
		}
	}
	return c
}

// Equal reports whether both grids have the same size and cell types
func (g *Grid) Equal(o *Grid) bool {
	if g.width != o.width || g.height != o.height {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

func (g *Grid) index(x, y int) int {
	if !g.Contains(x, y) {
		panic(fmt.Sprintf("grid: (%d,%d) out of bounds %dx%d", x, y, g.width, g.height))
	}
	return y*g.width + x
}

func sortedPoints(s mapset.Set[Point]) []Point {
	out := make([]Point, 0, s.Size())
	s.Each(func(p Point) {
		out = append(out, p)
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Less(out[j])
	})
	return out
}
