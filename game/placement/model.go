package placement

import (
	"sync"

	"github.com/wricardo/roadgrid/game/grid"
)

// ModelHandle is whatever the renderer uses to identify an instantiated model
type ModelHandle any

// ModelFactory instantiates and destroys visual models. Rendering lives
// outside the editor core; the store only keeps the handles it is given.
type ModelFactory interface {
	Instantiate(prefab string, pos grid.Point, rotation int) ModelHandle
	Destroy(h ModelHandle)
}

// Model is the handle produced by HeadlessFactory
type Model struct {
	ID       uint64     `json:"id"`
	Prefab   string     `json:"prefab"`
	Position grid.Point `json:"position"`
	Rotation int        `json:"rotation"`
}

// HeadlessFactory creates plain Model values and tracks which are alive.
// It lets the editor run on a server with no renderer attached.
type HeadlessFactory struct {
	mu     sync.Mutex
	nextID uint64
	live   map[uint64]*Model
}

// NewHeadlessFactory creates an empty factory
func NewHeadlessFactory() *HeadlessFactory {
	return &HeadlessFactory{live: make(map[uint64]*Model)}
}

// Instantiate implements ModelFactory
func (f *HeadlessFactory) Instantiate(prefab string, pos grid.Point, rotation int) ModelHandle {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	m := &Model{ID: f.nextID, Prefab: prefab, Position: pos, Rotation: rotation}
	f.live[m.ID] = m
	return m
}

// Destroy implements ModelFactory
func (f *HeadlessFactory) Destroy(h ModelHandle) {
	m, ok := h.(*Model)
	if !ok || m == nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.live, m.ID)
}

// Live returns the number of models instantiated and not yet destroyed
func (f *HeadlessFactory) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}
