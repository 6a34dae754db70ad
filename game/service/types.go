package service

import (
	"time"

	"github.com/wricardo/roadgrid/game/editor"
	"github.com/wricardo/roadgrid/game/grid"
)

// SessionInfo provides information about an editing session
type SessionInfo struct {
	ID             string           `json:"id"`
	ConfigName     string           `json:"config_name"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	Scene          *editor.Snapshot `json:"scene"`
	Config         *editor.Settings `json:"config"`
}

// ActionResult contains the outcome of one editing action
type ActionResult struct {
	Action    string           `json:"action"`
	Changed   bool             `json:"changed"`
	Message   string           `json:"message"`
	Position  *grid.Point      `json:"position,omitempty"`
	Committed int              `json:"committed,omitempty"`
	Crosswalk *bool            `json:"crosswalk,omitempty"`
	Scene     *editor.Snapshot `json:"scene"`
}

// ImportResult contains the outcome of a scene import
type ImportResult struct {
	editor.ImportResult
	Error string           `json:"error,omitempty"`
	Scene *editor.Snapshot `json:"scene"`
}

// ConfigInfo provides information about a scene configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Prefabs     int    `json:"prefabs"`
}
