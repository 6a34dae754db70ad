package grid

import "fmt"

// CellType represents what occupies a grid cell
type CellType int

const (
	Empty CellType = iota
	Road
	Structure

	// None is only reported for neighbours outside the grid; it is never stored.
	None
)

// String returns the lower-case name of the cell type
func (c CellType) String() string {
	switch c {
	case Empty:
		return "empty"
	case Road:
		return "road"
	case Structure:
		return "structure"
	case None:
		return "none"
	default:
		return fmt.Sprintf("celltype(%d)", int(c))
	}
}

// Char returns the single character used in text renderings of the grid
func (c CellType) Char() byte {
	switch c {
	case Road:
		return 'R'
	case Structure:
		return 'S'
	case Empty:
		return '.'
	default:
		return '?'
	}
}

// Neighbour slots returned by Neighbors and NeighborTypes.
const (
	Left = iota
	Up
	Right
	Down
)

// Point represents x,y grid coordinates
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Invalid stands in for neighbours outside the grid. It is never in bounds.
var Invalid = Point{X: -1, Y: -1}

// String formats the point as "(x,y)"
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Less orders points row by row, used to make snapshots deterministic
func (p Point) Less(o Point) bool {
	if p.Y != o.Y {
		return p.Y < o.Y
	}
	return p.X < o.X
}
