// Package placement tracks what occupies each grid cell, staged or committed.
//
// Placement happens in two phases. Objects laid during an open drag are
// staged in the temp map; when the drag ends they are committed into the
// permanent map. Rolling back a drag destroys every staged object and frees
// its cells, leaving committed objects untouched. A grid point is never held
// in both maps at once.
package placement

import (
	"errors"
	"fmt"
	"sort"

	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/prefab"
)

var (
	ErrOutOfBounds     = errors.New("position out of bounds")
	ErrAlreadyOccupied = errors.New("position already occupied")
)

// Structure is the placement record for one grid point
type Structure struct {
	Position  grid.Point    `json:"position"`
	Elevation float32       `json:"elevation"`
	Tag       string        `json:"tag"`
	Type      grid.CellType `json:"type"`
	Prefab    string        `json:"prefab"`
	Rotation  int           `json:"rotation"` // degrees around the vertical axis
	Model     ModelHandle   `json:"-"`
}

// IsRoad reports whether the structure was laid by the road tool
func (s *Structure) IsRoad() bool {
	return s.Tag == prefab.TagRoad
}

// Store owns the staged and committed structure maps and the crosswalk flags
type Store struct {
	grid      *grid.Grid
	factory   ModelFactory
	temp      map[grid.Point]*Structure
	permanent map[grid.Point]*Structure
	crosswalk map[grid.Point]bool

	onCreated []func(*Structure)
	onSwapped []func(*Structure)
}

// NewStore creates a store over g. A nil factory uses a HeadlessFactory.
func NewStore(g *grid.Grid, factory ModelFactory) *Store {
	if factory == nil {
		factory = NewHeadlessFactory()
	}
	return &Store{
		grid:      g,
		factory:   factory,
		temp:      make(map[grid.Point]*Structure),
		permanent: make(map[grid.Point]*Structure),
		crosswalk: make(map[grid.Point]bool),
	}
}

// OnObjectCreated registers fn to be called for every newly committed structure
func (s *Store) OnObjectCreated(fn func(*Structure)) {
	s.onCreated = append(s.onCreated, fn)
}

// OnModelSwapped registers fn to be called after SwapModel replaces a model
func (s *Store) OnModelSwapped(fn func(*Structure)) {
	s.onSwapped = append(s.onSwapped, fn)
}

// Grid returns the grid the store writes to
func (s *Store) Grid() *grid.Grid {
	return s.grid
}

// InBounds reports whether pos lies on the grid
func (s *Store) InBounds(pos grid.Point) bool {
	return s.grid.ContainsPoint(pos)
}

// IsFree reports whether pos is in bounds and empty
func (s *Store) IsFree(pos grid.Point) bool {
	return s.InBounds(pos) && s.grid.At(pos) == grid.Empty
}

// PlaceTemp stages a new structure at pos and writes t into the grid
func (s *Store) PlaceTemp(pos grid.Point, p prefab.Descriptor, t grid.CellType) error {
	if !s.InBounds(pos) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, pos)
	}
	if s.has(pos) {
		return fmt.Errorf("%w: %v", ErrAlreadyOccupied, pos)
	}

	s.grid.SetPoint(pos, t)
	s.temp[pos] = s.newStructure(pos, p, t, 0)
	return nil
}

// PlacePermanent places a committed structure directly, bypassing staging.
// It is used for structures dropped onto the grid and for imported scenes.
func (s *Store) PlacePermanent(pos grid.Point, p prefab.Descriptor, t grid.CellType, rotation int) (*Structure, error) {
	if !s.InBounds(pos) {
		return nil, fmt.Errorf("%w: %v", ErrOutOfBounds, pos)
	}
	if s.has(pos) || s.grid.At(pos) != grid.Empty {
		return nil, fmt.Errorf("%w: %v", ErrAlreadyOccupied, pos)
	}

	s.grid.SetPoint(pos, t)
	st := s.newStructure(pos, p, t, rotation)
	s.permanent[pos] = st
	s.notify(s.onCreated, st)
	return st, nil
}

// RemoveStructure frees pos, destroying its model and crosswalk flag. It
// returns the removed structure, or nil when nothing was there.
func (s *Store) RemoveStructure(pos grid.Point) *Structure {
	var removed *Structure
	if st, ok := s.temp[pos]; ok {
		removed = st
		delete(s.temp, pos)
	} else if st, ok := s.permanent[pos]; ok {
		removed = st
		delete(s.permanent, pos)
	} else {
		return nil
	}

	s.grid.SetPoint(pos, grid.Empty)
	s.factory.Destroy(removed.Model)
	removed.Model = nil
	delete(s.crosswalk, pos)
	return removed
}

// SwapModel replaces the model of whichever record holds pos without
// touching the grid or the record's staged/committed status.
func (s *Store) SwapModel(pos grid.Point, prefabName string, rotation int) bool {
	st, ok := s.Lookup(pos)
	if !ok {
		return false
	}
	if st.Prefab == prefabName && st.Rotation == rotation && st.Model != nil {
		return true
	}

	s.factory.Destroy(st.Model)
	st.Model = s.factory.Instantiate(prefabName, pos, rotation)
	st.Prefab = prefabName
	st.Rotation = rotation
	s.notify(s.onSwapped, st)
	return true
}

// RemoveAllTemp rolls back every staged structure
func (s *Store) RemoveAllTemp() {
	for pos, st := range s.temp {
		s.grid.SetPoint(pos, grid.Empty)
		s.factory.Destroy(st.Model)
		st.Model = nil
	}
	s.temp = make(map[grid.Point]*Structure)
}

// Commit moves every staged structure into the permanent map, notifying
// OnObjectCreated once per newly committed structure in row order.
func (s *Store) Commit() []*Structure {
	positions := sortedKeys(s.temp)
	committed := make([]*Structure, 0, len(positions))

	for _, pos := range positions {
		if _, exists := s.permanent[pos]; exists {
			continue
		}
		st := s.temp[pos]
		s.permanent[pos] = st
		committed = append(committed, st)
	}
	s.temp = make(map[grid.Point]*Structure)

	for _, st := range committed {
		s.notify(s.onCreated, st)
	}
	return committed
}

// ToggleCrosswalk flips the crosswalk flag for pos and returns the new value.
// Callers are expected to pass road cells.
func (s *Store) ToggleCrosswalk(pos grid.Point) bool {
	s.crosswalk[pos] = !s.crosswalk[pos]
	return s.crosswalk[pos]
}

// PruneCrosswalks drops the crosswalk flag of every cell that no longer
// holds a road and returns the cleared positions in row order
func (s *Store) PruneCrosswalks() []grid.Point {
	var cleared []grid.Point
	for pos := range s.crosswalk {
		if !s.grid.ContainsPoint(pos) || s.grid.At(pos) != grid.Road {
			delete(s.crosswalk, pos)
			cleared = append(cleared, pos)
		}
	}
	sort.Slice(cleared, func(i, j int) bool { return cleared[i].Less(cleared[j]) })
	return cleared
}

// IsCrosswalk reports the crosswalk flag for pos; absent means false
func (s *Store) IsCrosswalk(pos grid.Point) bool {
	return s.crosswalk[pos]
}

// ClearScene rolls back staged structures, destroys every committed one and
// empties the grid and crosswalk flags.
func (s *Store) ClearScene() {
	s.RemoveAllTemp()
	for _, st := range s.permanent {
		s.factory.Destroy(st.Model)
		st.Model = nil
	}
	s.permanent = make(map[grid.Point]*Structure)
	s.crosswalk = make(map[grid.Point]bool)
	s.grid.Clear()
}

// Lookup returns the staged or committed structure at pos
func (s *Store) Lookup(pos grid.Point) (*Structure, bool) {
	if st, ok := s.temp[pos]; ok {
		return st, true
	}
	st, ok := s.permanent[pos]
	return st, ok
}

// IsTemp reports whether pos holds a staged structure
func (s *Store) IsTemp(pos grid.Point) bool {
	_, ok := s.temp[pos]
	return ok
}

// IsPermanent reports whether pos holds a committed structure
func (s *Store) IsPermanent(pos grid.Point) bool {
	_, ok := s.permanent[pos]
	return ok
}

// TempPositions returns the staged positions in row order
func (s *Store) TempPositions() []grid.Point {
	return sortedKeys(s.temp)
}

// Permanent returns the committed structures in row order
func (s *Store) Permanent() []*Structure {
	positions := sortedKeys(s.permanent)
	out := make([]*Structure, 0, len(positions))
	for _, pos := range positions {
		out = append(out, s.permanent[pos])
	}
	return out
}

// Crosswalks returns every position whose crosswalk flag is set, in row order
func (s *Store) Crosswalks() []grid.Point {
	var out []grid.Point
	for pos, on := range s.crosswalk {
		if on {
			out = append(out, pos)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func (s *Store) has(pos grid.Point) bool {
	_, inTemp := s.temp[pos]
	_, inPermanent := s.permanent[pos]
	return inTemp || inPermanent
}

func (s *Store) newStructure(pos grid.Point, p prefab.Descriptor, t grid.CellType, rotation int) *Structure {
	return &Structure{
		Position:  pos,
		Elevation: p.Elevation,
		Tag:       p.Tag,
		Type:      t,
		Prefab:    p.Name,
		Rotation:  rotation,
		Model:     s.factory.Instantiate(p.Name, pos, rotation),
	}
}

func (s *Store) notify(fns []func(*Structure), st *Structure) {
	for _, fn := range fns {
		fn(st)
	}
}

func sortedKeys(m map[grid.Point]*Structure) []grid.Point {
	out := make([]grid.Point, 0, len(m))
	for pos := range m {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
