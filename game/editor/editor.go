// Package editor ties the grid, placement store, road session and metadata
// book into one object that serves a single scene.
//
// Every exported method takes the editor's mutex, so an Editor may be driven
// from several goroutines; the packages underneath assume one caller at a
// time.
package editor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/pathfind"
	"github.com/wricardo/roadgrid/game/placement"
	"github.com/wricardo/roadgrid/game/prefab"
	"github.com/wricardo/roadgrid/game/road"
	"github.com/wricardo/roadgrid/game/scene"
	"github.com/wricardo/roadgrid/game/tiles"
)

var (
	ErrNotFound      = errors.New("no object at position")
	ErrNotRoad       = errors.New("position is not a road")
	ErrNotStructure  = errors.New("prefab is a road tile")
	ErrRoadTransform = errors.New("road tiles are rotated by the autotiler")
	ErrOutOfBounds   = placement.ErrOutOfBounds
	ErrOccupied      = placement.ErrAlreadyOccupied
	ErrUnknownPrefab = prefab.ErrUnknownPrefab
)

// Config describes the scene an Editor serves
type Config struct {
	Width   int
	Height  int
	Tiles   tiles.TileSet
	Prefabs []prefab.Descriptor

	// LegacyHeuristic searches drag paths with the skewed
	// |gx-x| + |gx-y| estimate instead of Manhattan distance
	LegacyHeuristic bool

	// Factory creates models; nil uses a HeadlessFactory
	Factory placement.ModelFactory
}

// Editor is one editable scene
type Editor struct {
	mu       sync.Mutex
	grid     *grid.Grid
	store    *placement.Store
	session  *road.Session
	fixer    *tiles.Fixer
	registry *prefab.Registry
	tiles    tiles.TileSet
	book     *scene.Book
}

// New creates an empty scene
func New(cfg Config) (*Editor, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", cfg.Width, cfg.Height)
	}
	if err := cfg.Tiles.Validate(); err != nil {
		return nil, err
	}

	registry, err := buildRegistry(cfg.Tiles, cfg.Prefabs)
	if err != nil {
		return nil, err
	}
	deadEnd, err := registry.Lookup(cfg.Tiles.DeadEnd)
	if err != nil {
		return nil, err
	}

	g := grid.New(cfg.Width, cfg.Height)
	store := placement.NewStore(g, cfg.Factory)
	fixer := tiles.NewFixer(cfg.Tiles)
	session := road.NewSession(store, fixer, deadEnd)
	if cfg.LegacyHeuristic {
		session.SetPathOptions(pathfind.Options{Heuristic: pathfind.LegacyManhattan})
	}

	e := &Editor{
		grid:     g,
		store:    store,
		session:  session,
		fixer:    fixer,
		registry: registry,
		tiles:    cfg.Tiles,
		book:     scene.NewBook(),
	}
	store.OnObjectCreated(e.objectCreated)
	store.OnModelSwapped(e.modelSwapped)
	session.OnObjectRemoved(e.objectRemoved)
	return e, nil
}

// buildRegistry registers the road tiles and then the configured prefabs.
// A configured prefab named like a tile overrides the tile's elevation and
// color but stays tagged as a road.
func buildRegistry(ts tiles.TileSet, prefabs []prefab.Descriptor) (*prefab.Registry, error) {
	byName := make(map[string]prefab.Descriptor)
	var order []string
	for _, d := range ts.Descriptors() {
		byName[d.Name] = d
		order = append(order, d.Name)
	}
	for _, d := range prefabs {
		if tile, ok := byName[d.Name]; ok && tile.IsRoad() {
			d.Tag = prefab.TagRoad
			byName[d.Name] = d
			continue
		}
		if _, ok := byName[d.Name]; !ok {
			order = append(order, d.Name)
		}
		byName[d.Name] = d
	}

	r, err := prefab.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, name := range order {
		if err := r.Register(byName[name]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// PointerDown opens a drag at p, or re-stages an open one
func (e *Editor) PointerDown(p grid.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.BeginOrContinue(p, false)
}

// PointerHold extends the open drag to p
func (e *Editor) PointerHold(p grid.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.BeginOrContinue(p, false)
}

// PointerUp commits the open drag and returns the number of new roads
func (e *Editor) PointerUp() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.endDrag()
}

// DrawRoad performs a full press, drag and release along points
func (e *Editor) DrawRoad(points ...grid.Point) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, p := range points {
		e.session.BeginOrContinue(p, i == 0)
	}
	return e.endDrag()
}

// endDrag commits the open drag. Roads re-tiled around it kept their
// committed tiles in the book while the drag was open, so they are
// refreshed now that their live tiles are the committed ones.
func (e *Editor) endDrag() int {
	committed := e.session.EndDrag()
	for _, st := range committed {
		p := st.Position
		for _, n := range e.grid.NeighborsOfType(p.X, p.Y, grid.Road) {
			if nst, ok := e.store.Lookup(n); ok {
				e.modelSwapped(nst)
			}
		}
	}
	return len(committed)
}

// Remove deletes whatever occupies p. It reports whether anything was removed.
func (e *Editor) Remove(p grid.Point) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.RemoveRoad(p) != nil
}

// ToggleCrosswalk flips the crosswalk flag of the road at p
func (e *Editor) ToggleCrosswalk(p grid.Point) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.toggleCrosswalk(p)
}

func (e *Editor) toggleCrosswalk(p grid.Point) (bool, error) {
	on, ok := e.session.ToggleCrosswalk(p)
	if !ok {
		return false, fmt.Errorf("%w: %v", ErrNotRoad, p)
	}
	e.book.Update(p, func(m *scene.ObjectMetadata) { m.Variant = on })
	return on, nil
}

// PlaceStructure drops a non-road prefab on p with the given yaw
func (e *Editor) PlaceStructure(name string, p grid.Point, rotation int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, err := e.registry.Lookup(name)
	if err != nil {
		return err
	}
	if d.IsRoad() {
		return fmt.Errorf("%w: %s", ErrNotStructure, name)
	}
	_, err = e.store.PlacePermanent(p, d, grid.Structure, normalizeDegrees(rotation))
	return err
}

// ObjectUpdate carries the editable properties of a placed object. Nil
// fields are left unchanged.
type ObjectUpdate struct {
	Color    *prefab.Color
	Rotation *int
}

// UpdateObject changes the color or rotation of the committed object at p
func (e *Editor) UpdateObject(p grid.Point, u ObjectUpdate) (scene.ObjectMetadata, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.store.Lookup(p)
	if !ok || !e.store.IsPermanent(p) {
		return scene.ObjectMetadata{}, fmt.Errorf("%w: %v", ErrNotFound, p)
	}
	if u.Rotation != nil {
		if st.IsRoad() {
			return scene.ObjectMetadata{}, ErrRoadTransform
		}
		e.store.SwapModel(p, st.Prefab, normalizeDegrees(*u.Rotation))
	}
	if u.Color != nil {
		c := *u.Color
		e.book.Update(p, func(m *scene.ObjectMetadata) { m.SetColor(c) })
	}

	m, _ := e.book.Get(p)
	return m, nil
}

// ClearScene removes every object and metadata record
func (e *Editor) ClearScene() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearScene()
}

func (e *Editor) clearScene() {
	e.session.ClearScene()
	e.book.Clear()
}

// Records returns the metadata of every committed object in row order
func (e *Editor) Records() []scene.ObjectMetadata {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Records()
}

// PrefabNames returns every prefab the editor can place
func (e *Editor) PrefabNames() []string {
	return e.registry.Names()
}

func (e *Editor) objectCreated(st *placement.Structure) {
	color := prefab.White
	if d, err := e.registry.Lookup(st.Prefab); err == nil {
		color = d.DefaultColor()
	}
	e.book.Put(st.Position, scene.NewObjectMetadata(
		st.Position, st.Elevation, st.Prefab, st.Rotation, color,
		st.IsRoad() && e.store.IsCrosswalk(st.Position),
	))
}

// modelSwapped keeps committed metadata in step with the committed scene.
// While a drag is open a committed road's live tile may account for staged
// neighbours; the book records the tile it has without them.
func (e *Editor) modelSwapped(st *placement.Structure) {
	name, rotation := st.Prefab, st.Rotation
	if st.IsRoad() && e.store.IsPermanent(st.Position) {
		name, rotation = e.fixer.Committed(e.store, st.Position)
	}
	e.book.Update(st.Position, func(m *scene.ObjectMetadata) {
		m.PrefabName = name
		m.SetRotation(scene.YawQuaternion(rotation))
		m.Variant = st.IsRoad() && e.store.IsCrosswalk(st.Position)
	})
}

func (e *Editor) objectRemoved(st *placement.Structure) {
	e.book.Remove(st.Position)
}

func normalizeDegrees(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
