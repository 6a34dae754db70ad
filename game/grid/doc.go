// Package grid provides the cell storage for the road editor.
//
// A Grid is a fixed-size rectangle of cells, each holding one CellType.
// Alongside the dense cell array the grid keeps two index sets, one with
// every Road cell and one with every Structure cell. Both sets are updated
// on every write so callers can enumerate roads or structures without
// scanning the whole rectangle.
//
// Coordinates:
//
// Cells are addressed by Point{X, Y} with 0 <= X < width and
// 0 <= Y < height. Neighbour queries always return four entries in the
// fixed order [Left, Up, Right, Down], where Up is +Y. Neighbours that fall
// outside the grid are reported as the Invalid sentinel point and, when
// asking for types, as CellType None. The tile selector's rotation tables
// are indexed by this order, so it must not change.
//
// Usage:
//
//	g := grid.New(10, 10)
//	g.Set(2, 2, grid.Road)
//
//	for _, p := range g.NeighborsOfType(2, 3, grid.Road) {
//		fmt.Println(p)
//	}
package grid
