package editor

import (
	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/prefab"
)

// Object describes one placed object in a snapshot
type Object struct {
	Position  grid.Point   `json:"position"`
	Prefab    string       `json:"prefab"`
	Type      string       `json:"type"`
	Rotation  int          `json:"rotation"`
	Crosswalk bool         `json:"crosswalk,omitempty"`
	Staged    bool         `json:"staged,omitempty"`
	Color     prefab.Color `json:"color"`
}

// Snapshot is a point-in-time copy of the scene
type Snapshot struct {
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	State      string       `json:"state"`
	DragStart  *grid.Point  `json:"drag_start,omitempty"`
	Rows       []string     `json:"rows"`
	Roads      int          `json:"roads"`
	Structures int          `json:"structures"`
	Objects    []Object     `json:"objects"`
	Staged     []grid.Point `json:"staged,omitempty"`
	Crosswalks []grid.Point `json:"crosswalks,omitempty"`
}

// Snapshot returns the current scene
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Width:      e.grid.Width(),
		Height:     e.grid.Height(),
		State:      e.session.State().String(),
		Rows:       e.grid.Rows(),
		Roads:      e.grid.Count(grid.Road),
		Structures: e.grid.Count(grid.Structure),
		Staged:     e.store.TempPositions(),
		Crosswalks: e.store.Crosswalks(),
	}
	if start := e.session.Start(); start != grid.Invalid {
		snap.DragStart = &start
	}

	for _, st := range e.store.Permanent() {
		obj := Object{
			Position:  st.Position,
			Prefab:    st.Prefab,
			Type:      st.Type.String(),
			Rotation:  st.Rotation,
			Crosswalk: e.store.IsCrosswalk(st.Position),
			Color:     prefab.White,
		}
		if m, ok := e.book.Get(st.Position); ok {
			obj.Color = m.Color()
		}
		snap.Objects = append(snap.Objects, obj)
	}
	for _, p := range snap.Staged {
		st, _ := e.store.Lookup(p)
		snap.Objects = append(snap.Objects, Object{
			Position:  p,
			Prefab:    st.Prefab,
			Type:      st.Type.String(),
			Rotation:  st.Rotation,
			Crosswalk: e.store.IsCrosswalk(p),
			Staged:    true,
			Color:     prefab.White,
		})
	}
	return snap
}
