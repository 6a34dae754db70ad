// Package tiles picks the road tile for a cell from its live neighbourhood.
//
// Select is a pure function of the four neighbour cell types, in the grid's
// fixed [Left, Up, Right, Down] order, and the cell's crosswalk flag. The
// Fixer applies the chosen tile through the placement store.
//
// Shapes by Road neighbour count:
//
//	0 or 1  dead-end    faces the single neighbour (left 90, up 180, right 270, down 0)
//	2       straight    0 for the left/right axis, 90 for the up/down axis
//	2       corner      up+right 90, right+down 180, down+left 270, left+up 0
//	3       three-way   by missing side: right 0, down 90, left 180, up 270
//	4       four-way    0
//
// A three-way crosswalk tile is turned a further -90 degrees to line the
// crosswalk mesh up with the through road.
package tiles

import (
	"github.com/wricardo/roadgrid/game/grid"
)

// Shape is the road tile shape
type Shape int

const (
	DeadEnd Shape = iota
	Straight
	Corner
	ThreeWay
	FourWay
)

// String returns the string representation of a shape
func (s Shape) String() string {
	switch s {
	case DeadEnd:
		return "dead-end"
	case Straight:
		return "straight"
	case Corner:
		return "corner"
	case ThreeWay:
		return "three-way"
	case FourWay:
		return "four-way"
	default:
		return "unknown"
	}
}

// ThreeWayCrosswalkOffset is added to the three-way rotation on crosswalk cells
const ThreeWayCrosswalkOffset = -90

// Tile is the outcome of Select
type Tile struct {
	Shape     Shape
	Rotation  int // degrees in [0, 360)
	Crosswalk bool
}

var (
	deadEndRotation  = [4]int{grid.Left: 90, grid.Up: 180, grid.Right: 270, grid.Down: 0}
	threeWayRotation = [4]int{grid.Right: 0, grid.Down: 90, grid.Left: 180, grid.Up: 270}
)

// Select chooses the tile for a road cell
func Select(neighbors [4]grid.CellType, crosswalk bool) Tile {
	var road [4]bool
	count := 0
	for i, t := range neighbors {
		if t == grid.Road {
			road[i] = true
			count++
		}
	}

	tile := Tile{Crosswalk: crosswalk}
	switch count {
	case 0, 1:
		tile.Shape = DeadEnd
		for dir, ok := range road {
			if ok {
				tile.Rotation = deadEndRotation[dir]
			}
		}
	case 2:
		switch {
		case road[grid.Left] && road[grid.Right]:
			tile.Shape = Straight
		case road[grid.Up] && road[grid.Down]:
			tile.Shape = Straight
			tile.Rotation = 90
		default:
			tile.Shape = Corner
			tile.Rotation = cornerRotation(road)
		}
	case 3:
		tile.Shape = ThreeWay
		for dir, ok := range road {
			if !ok {
				tile.Rotation = threeWayRotation[dir]
			}
		}
		if crosswalk {
			tile.Rotation = normalize(tile.Rotation + ThreeWayCrosswalkOffset)
		}
	default:
		tile.Shape = FourWay
	}
	return tile
}

func cornerRotation(road [4]bool) int {
	switch {
	case road[grid.Up] && road[grid.Right]:
		return 90
	case road[grid.Right] && road[grid.Down]:
		return 180
	case road[grid.Down] && road[grid.Left]:
		return 270
	default:
		return 0
	}
}

func normalize(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
