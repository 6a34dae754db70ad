package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/wricardo/roadgrid/game/editor"
	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/scene"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidRequest  = errors.New("invalid request")
)

// EditorService defines all scene-editing operations
type EditorService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Road tool
	PointerDown(ctx context.Context, sessionID string, p grid.Point) (*ActionResult, error)
	PointerHold(ctx context.Context, sessionID string, p grid.Point) (*ActionResult, error)
	PointerUp(ctx context.Context, sessionID string) (*ActionResult, error)
	DrawRoad(ctx context.Context, sessionID string, points []grid.Point) (*ActionResult, error)
	ToggleCrosswalk(ctx context.Context, sessionID string, p grid.Point) (*ActionResult, error)

	// Objects
	RemoveObject(ctx context.Context, sessionID string, p grid.Point) (*ActionResult, error)
	PlaceStructure(ctx context.Context, sessionID, prefabName string, p grid.Point, rotation int) (*ActionResult, error)
	UpdateObject(ctx context.Context, sessionID string, p grid.Point, update editor.ObjectUpdate) (*scene.ObjectMetadata, error)
	ClearScene(ctx context.Context, sessionID string) (*ActionResult, error)

	// Scene
	GetScene(ctx context.Context, sessionID string) (*editor.Snapshot, error)
	ExportScene(ctx context.Context, sessionID string, w io.Writer) error
	ImportScene(ctx context.Context, sessionID string, r io.Reader) (*ImportResult, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*editor.Settings, error)
	SaveConfig(ctx context.Context, configName string, config *editor.Settings) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *editor.Settings) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *editor.Settings) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles scene configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*editor.Settings, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *editor.Settings
	SaveConfig(name string, config *editor.Settings) error
}

// Session represents an open editing session
type Session struct {
	ID             string
	Editor         *editor.Editor
	Config         *editor.Settings
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
