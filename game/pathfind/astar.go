// Package pathfind finds shortest paths across a grid's 4-connected topology.
package pathfind

import (
	"github.com/zyedidia/generic/heap"

	"github.com/wricardo/roadgrid/game/grid"
)

// Heuristic estimates the remaining cost from p to goal
type Heuristic func(p, goal grid.Point) int

// Manhattan is the admissible |dx| + |dy| estimate
func Manhattan(p, goal grid.Point) int {
	return abs(goal.X-p.X) + abs(goal.Y-p.Y)
}

// LegacyManhattan compares the goal's X against both coordinates of p.
// It is kept so older scenes can be re-drawn with identical drag paths; it is
// not admissible and may return a longer path than Manhattan.
func LegacyManhattan(p, goal grid.Point) int {
	return abs(goal.X-p.X) + abs(goal.X-p.Y)
}

// Options tune a search. The zero value searches every in-bounds cell with
// the Manhattan heuristic.
type Options struct {
	Heuristic Heuristic
	// Passable reports whether a cell may be entered. Nil means every cell.
	Passable func(p grid.Point) bool
}

type node struct {
	point    grid.Point
	cost     int
	priority int
	seq      int
}

// FindPath runs A* from start to goal with default options. The returned
// path is ordered from goal back to start and includes both endpoints; it is
// empty when the goal cannot be reached.
func FindPath(g *grid.Grid, start, goal grid.Point) []grid.Point {
	return FindPathWith(g, start, goal, Options{})
}

// FindPathWith runs A* with the given options. Every step costs 1; ties on
// cost+heuristic are broken by discovery order.
func FindPathWith(g *grid.Grid, start, goal grid.Point, opts Options) []grid.Point {
	if !g.ContainsPoint(start) || !g.ContainsPoint(goal) {
		return []grid.Point{}
	}
	h := opts.Heuristic
	if h == nil {
		h = Manhattan
	}

	frontier := heap.New(func(a, b node) bool {
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.seq < b.seq
	})

	cost := map[grid.Point]int{start: 0}
	parents := map[grid.Point]grid.Point{}
	seq := 0
	frontier.Push(node{point: start, cost: 0, priority: 0, seq: seq})

	for frontier.Size() > 0 {
		current, _ := frontier.Pop()
		if current.cost > cost[current.point] {
			// superseded by a cheaper entry
			continue
		}

		if current.point == goal {
			return reconstruct(parents, start, goal)
		}

		for _, next := range g.Neighbors(current.point.X, current.point.Y) {
			if next == grid.Invalid {
				continue
			}
			if opts.Passable != nil && !opts.Passable(next) {
				continue
			}

			newCost := current.cost + 1
			if known, ok := cost[next]; ok && newCost >= known {
				continue
			}
			cost[next] = newCost
			parents[next] = current.point
			seq++
			frontier.Push(node{
				point:    next,
				cost:     newCost,
				priority: newCost + h(next, goal),
				seq:      seq,
			})
		}
	}

	return []grid.Point{}
}

// Reverse returns a copy of path in the opposite order
func Reverse(path []grid.Point) []grid.Point {
	out := make([]grid.Point, len(path))
	for i, p := range path {
		out[len(path)-1-i] = p
	}
	return out
}

func reconstruct(parents map[grid.Point]grid.Point, start, goal grid.Point) []grid.Point {
	path := []grid.Point{goal}
	for current := goal; current != start; {
		current = parents[current]
		path = append(path, current)
	}
	return path
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
