package session

import (
	"fmt"
	"time"

	"github.com/wricardo/roadgrid/game/editor"
	"github.com/wricardo/roadgrid/game/scene"
	"github.com/wricardo/roadgrid/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the header stored next to a session's scene
// records. The settings are embedded so a session survives its config file
// being renamed or edited.
type PersistedSessionData struct {
	ID             string           `json:"id"`
	ConfigName     string           `json:"config_name"`
	Config         *editor.Settings `json:"config,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	Objects        int              `json:"objects"`
}

// header builds the persisted header of a session
func header(session *service.Session, configID string, objects int) PersistedSessionData {
	return PersistedSessionData{
		ID:             session.ID,
		ConfigName:     configID,
		Config:         session.Config,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Objects:        objects,
	}
}

// restore rebuilds a session from its header and scene records. Settings
// missing from the header are looked up by config name.
func restore(data PersistedSessionData, records []scene.ObjectMetadata, configs service.ConfigManager) (*service.Session, error) {
	settings := data.Config
	if settings == nil {
		if configs == nil {
			return nil, fmt.Errorf("session %s has no embedded config", data.ID)
		}
		var err error
		settings, err = configs.LoadConfig(data.ConfigName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigName, err)
		}
	}

	ed, err := editor.NewFromSettings(settings, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create editor: %w", err)
	}
	if _, err := ed.ImportRecords(records); err != nil {
		return nil, fmt.Errorf("failed to restore scene: %w", err)
	}

	return &service.Session{
		ID:             data.ID,
		Editor:         ed,
		Config:         settings,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

// configIDFromName returns the config ID (filename without extension) for a
// display name
func configIDFromName(configs service.ConfigManager, displayName string) string {
	if configs == nil {
		return displayName
	}
	list, err := configs.ListConfigs()
	if err != nil {
		return displayName
	}
	for _, config := range list {
		if config.Name == displayName {
			return config.ConfigID
		}
	}

	// If not found, assume the displayName is already the config ID
	return displayName
}
