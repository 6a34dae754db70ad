package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/wricardo/roadgrid/game/editor"
	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/scene"
)

// editorServiceImpl implements the EditorService interface
type editorServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewEditorService creates a new editor service instance
func NewEditorService(sessions SessionManager, configs ConfigManager) EditorService {
	return &editorServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *editorServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if configName == "" {
		return "default"
	}
	return configName
}

// CreateSession opens a new editing session on a configured scene
func (s *editorServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *editor.Settings
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v", configName, configIDs)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations", configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	info := s.sessionInfo(session)
	info.ConfigName = configID
	return info, nil
}

// GetSession retrieves session information
func (s *editorServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, s.wrapSessionErr(err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *editorServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *editorServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return s.wrapSessionErr(err)
	}
	return nil
}

// PointerDown opens or re-stages a drag
func (s *editorServiceImpl) PointerDown(ctx context.Context, sessionID string, p grid.Point) (*ActionResult, error) {
	return s.act(sessionID, "pointer_down", false, func(e *editor.Editor) (*ActionResult, error) {
		e.PointerDown(p)
		return &ActionResult{Position: &p, Changed: true, Message: fmt.Sprintf("Pointer down at %v", p)}, nil
	})
}

// PointerHold extends the open drag
func (s *editorServiceImpl) PointerHold(ctx context.Context, sessionID string, p grid.Point) (*ActionResult, error) {
	return s.act(sessionID, "pointer_hold", false, func(e *editor.Editor) (*ActionResult, error) {
		e.PointerHold(p)
		return &ActionResult{Position: &p, Changed: true, Message: fmt.Sprintf("Drag extended to %v", p)}, nil
	})
}

// PointerUp commits the open drag
func (s *editorServiceImpl) PointerUp(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.act(sessionID, "pointer_up", true, func(e *editor.Editor) (*ActionResult, error) {
		n := e.PointerUp()
		return &ActionResult{
			Changed:   n > 0,
			Committed: n,
			Message:   fmt.Sprintf("Committed %d road cells", n),
		}, nil
	})
}

// DrawRoad performs a complete drag through points
func (s *editorServiceImpl) DrawRoad(ctx context.Context, sessionID string, points []grid.Point) (*ActionResult, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: at least one point is required", ErrInvalidRequest)
	}
	return s.act(sessionID, "draw_road", true, func(e *editor.Editor) (*ActionResult, error) {
		n := e.DrawRoad(points...)
		return &ActionResult{
			Changed:   n > 0,
			Committed: n,
			Message:   fmt.Sprintf("Committed %d road cells", n),
		}, nil
	})
}

// ToggleCrosswalk flips the crosswalk flag of a road cell
func (s *editorServiceImpl) ToggleCrosswalk(ctx context.Context, sessionID string, p grid.Point) (*ActionResult, error) {
	return s.act(sessionID, "toggle_crosswalk", true, func(e *editor.Editor) (*ActionResult, error) {
		on, err := e.ToggleCrosswalk(p)
		if err != nil {
			return nil, err
		}
		return &ActionResult{
			Position:  &p,
			Changed:   true,
			Crosswalk: &on,
			Message:   fmt.Sprintf("Crosswalk at %v set to %v", p, on),
		}, nil
	})
}

// RemoveObject deletes whatever occupies a cell
func (s *editorServiceImpl) RemoveObject(ctx context.Context, sessionID string, p grid.Point) (*ActionResult, error) {
	return s.act(sessionID, "remove", true, func(e *editor.Editor) (*ActionResult, error) {
		removed := e.Remove(p)
		msg := fmt.Sprintf("Nothing to remove at %v", p)
		if removed {
			msg = fmt.Sprintf("Removed object at %v", p)
		}
		return &ActionResult{Position: &p, Changed: removed, Message: msg}, nil
	})
}

// PlaceStructure drops a prefab onto a free cell
func (s *editorServiceImpl) PlaceStructure(ctx context.Context, sessionID, prefabName string, p grid.Point, rotation int) (*ActionResult, error) {
	return s.act(sessionID, "place_structure", true, func(e *editor.Editor) (*ActionResult, error) {
		if err := e.PlaceStructure(prefabName, p, rotation); err != nil {
			return nil, err
		}
		return &ActionResult{
			Position: &p,
			Changed:  true,
			Message:  fmt.Sprintf("Placed %s at %v", prefabName, p),
		}, nil
	})
}

// UpdateObject changes the color or rotation of a placed object
func (s *editorServiceImpl) UpdateObject(ctx context.Context, sessionID string, p grid.Point, update editor.ObjectUpdate) (*scene.ObjectMetadata, error) {
	var out scene.ObjectMetadata
	_, err := s.act(sessionID, "update_object", true, func(e *editor.Editor) (*ActionResult, error) {
		m, err := e.UpdateObject(p, update)
		if err != nil {
			return nil, err
		}
		out = m
		return &ActionResult{Position: &p, Changed: true}, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearScene removes every object from the scene
func (s *editorServiceImpl) ClearScene(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.act(sessionID, "clear", true, func(e *editor.Editor) (*ActionResult, error) {
		e.ClearScene()
		return &ActionResult{Changed: true, Message: "Scene cleared"}, nil
	})
}

// GetScene returns the current scene of a session
func (s *editorServiceImpl) GetScene(ctx context.Context, sessionID string) (*editor.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, s.wrapSessionErr(err)
	}
	snap := sess.Editor.Snapshot()
	return &snap, nil
}

// ExportScene writes the committed scene as newline-delimited records
func (s *editorServiceImpl) ExportScene(ctx context.Context, sessionID string, w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return s.wrapSessionErr(err)
	}
	return sess.Editor.Export(w)
}

// ImportScene replaces the scene with the records read from r. On an aborted
// import the partial result is returned together with the error.
func (s *editorServiceImpl) ImportScene(ctx context.Context, sessionID string, r io.Reader) (*ImportResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, s.wrapSessionErr(err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	res, importErr := sess.Editor.Import(r)
	snap := sess.Editor.Snapshot()
	result := &ImportResult{ImportResult: res, Scene: &snap}
	if importErr != nil {
		result.Error = importErr.Error()
	}

	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after import: %v\n", sessionID, err)
	}
	return result, importErr
}

// ListConfigs returns all available scene configurations
func (s *editorServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific scene configuration
func (s *editorServiceImpl) LoadConfig(ctx context.Context, configName string) (*editor.Settings, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a scene configuration to disk
func (s *editorServiceImpl) SaveConfig(ctx context.Context, configName string, config *editor.Settings) error {
	return s.configs.SaveConfig(configName, config)
}

// act runs fn against a session's editor, fills in the scene snapshot and
// persists the session when persist is set
func (s *editorServiceImpl) act(sessionID, action string, persist bool, fn func(*editor.Editor) (*ActionResult, error)) (*ActionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, s.wrapSessionErr(err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result, err := fn(sess.Editor)
	if err != nil {
		return nil, err
	}
	result.Action = action
	snap := sess.Editor.Snapshot()
	result.Scene = &snap

	// Auto-save once the scene has settled
	if persist && result.Changed {
		if err := s.sessions.Save(sessionID); err != nil {
			fmt.Printf("Warning: Failed to persist session %s after %s: %v\n", sessionID, action, err)
		}
	}
	return result, nil
}

func (s *editorServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	snap := sess.Editor.Snapshot()
	configName := ""
	if sess.Config != nil {
		configName = sess.Config.Name
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(configName),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Scene:          &snap,
		Config:         sess.Config,
	}
}

// wrapSessionErr passes not-found through and keeps storage failures
// distinguishable from a missing session
func (s *editorServiceImpl) wrapSessionErr(err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return fmt.Errorf("failed to get session: %w", err)
}
