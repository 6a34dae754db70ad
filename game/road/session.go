// Package road turns pointer events into staged and committed road cells.
//
// Session is a two-state machine (Idle, Dragging). A pointer-down opens a
// drag at a cell; every pointer-hold rolls back what the drag staged so far,
// finds a path from the drag start to the pointer and stages a dead-end road
// on every free cell of it; pointer-up commits the staged cells. Each step
// finishes staging before any cell is re-tiled, so tiles are always chosen
// against a complete neighbourhood.
//
// Usage:
//
//	s := road.NewSession(store, tiles.NewFixer(ts), deadEnd)
//	s.BeginOrContinue(grid.Point{X: 2, Y: 2}, false)
//	s.BeginOrContinue(grid.Point{X: 2, Y: 5}, false)
//	s.EndDrag()
package road

import (
	"slices"

	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/pathfind"
	"github.com/wricardo/roadgrid/game/placement"
	"github.com/wricardo/roadgrid/game/prefab"
	"github.com/wricardo/roadgrid/game/tiles"
)

// State is the placement mode of a session
type State int

const (
	Idle State = iota
	Dragging
)

// String returns the string representation of a state
func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Session owns the road-placement state for one grid and store
type Session struct {
	store    *placement.Store
	fixer    *tiles.Fixer
	deadEnd  prefab.Descriptor
	pathOpts pathfind.Options

	state   State
	start   grid.Point
	staged  []grid.Point
	pending []grid.Point

	onRemoved []func(*placement.Structure)
}

// NewSession creates an idle session. deadEnd is the prefab staged on every
// new road cell before it is re-tiled.
func NewSession(store *placement.Store, fixer *tiles.Fixer, deadEnd prefab.Descriptor) *Session {
	return &Session{
		store:   store,
		fixer:   fixer,
		deadEnd: deadEnd,
		start:   grid.Invalid,
	}
}

// SetPathOptions changes how drag paths are searched
func (s *Session) SetPathOptions(opts pathfind.Options) {
	s.pathOpts = opts
}

// OnObjectCreated registers fn for every structure committed by EndDrag
func (s *Session) OnObjectCreated(fn func(*placement.Structure)) {
	s.store.OnObjectCreated(fn)
}

// OnObjectRemoved registers fn to be called just before RemoveRoad removes
// a structure
func (s *Session) OnObjectRemoved(fn func(*placement.Structure)) {
	s.onRemoved = append(s.onRemoved, fn)
}

// State returns the current placement mode
func (s *Session) State() State {
	return s.state
}

// Start returns the drag start, or grid.Invalid when idle
func (s *Session) Start() grid.Point {
	return s.start
}

// Staged returns the cells covered by the open drag, goal first
func (s *Session) Staged() []grid.Point {
	return slices.Clone(s.staged)
}

// Pending returns the committed cells waiting to be re-tiled
func (s *Session) Pending() []grid.Point {
	return slices.Clone(s.pending)
}

// BeginOrContinue handles a pointer-down or pointer-hold at pos.
//
// When idle, or when force is set, it opens a new drag at pos. While
// dragging it re-stages the path from the drag start to pos. An out of
// bounds pos abandons the drag and returns to Idle without committing.
func (s *Session) BeginOrContinue(pos grid.Point, force bool) {
	if !s.store.InBounds(pos) {
		s.abort()
		return
	}

	if s.state == Idle || force {
		if s.state == Dragging {
			s.rollback()
			s.store.PruneCrosswalks()
		}
		s.staged = nil
		s.pending = nil
		s.state = Dragging
		s.start = pos

		s.staged = append(s.staged, pos)
		s.stage(pos)
	} else {
		s.rollback()

		s.staged = pathfind.FindPathWith(s.store.Grid(), s.start, pos, s.pathOpts)
		for _, p := range s.staged {
			s.stage(p)
		}
	}

	s.retile()
}

// EndDrag commits the open drag and returns to Idle. It is a no-op when idle.
func (s *Session) EndDrag() []*placement.Structure {
	if s.state != Dragging {
		return nil
	}

	committed := s.store.Commit()
	// Flags toggled on cells the final path no longer covers
	s.store.PruneCrosswalks()
	s.reset()
	return committed
}

// RemoveRoad removes whatever occupies pos and re-tiles the roads around it.
// It returns the removed structure, or nil when pos was free.
func (s *Session) RemoveRoad(pos grid.Point) *placement.Structure {
	if !s.store.InBounds(pos) || s.store.IsFree(pos) {
		return nil
	}
	st, ok := s.store.Lookup(pos)
	if !ok {
		return nil
	}

	for _, fn := range s.onRemoved {
		fn(st)
	}
	s.store.RemoveStructure(pos)

	g := s.store.Grid()
	s.fixer.FixAll(s.store, g.NeighborsOfType(pos.X, pos.Y, grid.Road))
	return st
}

// ToggleCrosswalk flips the crosswalk flag of the road at pos and re-tiles
// it. It reports the new flag and whether pos was a road.
func (s *Session) ToggleCrosswalk(pos grid.Point) (on bool, ok bool) {
	g := s.store.Grid()
	if !g.ContainsPoint(pos) || g.At(pos) != grid.Road {
		return false, false
	}

	on = s.store.ToggleCrosswalk(pos)
	s.fixer.Fix(s.store, pos)
	return on, true
}

// ClearScene empties the store and returns to Idle
func (s *Session) ClearScene() {
	s.store.ClearScene()
	s.reset()
}

// stage places a dead-end on pos when free, otherwise queues pos for re-tiling
func (s *Session) stage(pos grid.Point) {
	if !s.store.IsFree(pos) {
		s.markPending(pos)
		return
	}
	// pos is in bounds and free, so staging cannot fail
	_ = s.store.PlaceTemp(pos, s.deadEnd, grid.Road)
}

// retile fixes every staged cell, queues their road neighbours and then
// fixes everything pending
func (s *Session) retile() {
	g := s.store.Grid()
	for _, p := range s.staged {
		s.fixer.Fix(s.store, p)
		for _, n := range g.NeighborsOfType(p.X, p.Y, grid.Road) {
			s.markPending(n)
		}
	}
	s.fixer.FixAll(s.store, s.pending)
}

// rollback removes everything staged and restores the tiles of the cells
// that were re-tiled around it
func (s *Session) rollback() {
	s.store.RemoveAllTemp()
	s.fixer.FixAll(s.store, s.pending)
	s.staged = nil
	s.pending = nil
}

// abort abandons the open drag. Holds keep crosswalk flags on staged cells
// so a re-staged path shows them again; once the drag is gone they go too.
func (s *Session) abort() {
	if s.state == Dragging {
		s.rollback()
		s.store.PruneCrosswalks()
	}
	s.reset()
}

func (s *Session) reset() {
	s.state = Idle
	s.start = grid.Invalid
	s.staged = nil
	s.pending = nil
}

func (s *Session) markPending(pos grid.Point) {
	if !slices.Contains(s.pending, pos) {
		s.pending = append(s.pending, pos)
	}
}
