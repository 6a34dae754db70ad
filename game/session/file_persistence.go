package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/roadgrid/game/scene"
	"github.com/wricardo/roadgrid/game/service"
)

// FilePersistence implements SessionPersistence using file system storage.
// Each session is stored as <id>.json holding the header and
// <id>.jsonl.zst holding the zstd compressed scene records.
type FilePersistence struct {
	sessionsDir   string
	configManager service.ConfigManager
}

// NewFilePersistence creates a new file-based session persistence layer.
// configManager may be nil when every header embeds its settings.
func NewFilePersistence(sessionsDir string, configManager service.ConfigManager) (*FilePersistence, error) {
	// Create sessions directory if it doesn't exist
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FilePersistence{
		sessionsDir:   sessionsDir,
		configManager: configManager,
	}, nil
}

// Save persists a session header and its scene
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	records := session.Editor.Records()
	if err := fp.writeScene(session.ID, records); err != nil {
		return err
	}

	configID := ""
	if session.Config != nil {
		configID = configIDFromName(fp.configManager, session.Config.Name)
	}
	data := header(session, configID, len(records))

	// Marshal to JSON with indentation for readability
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := os.WriteFile(fp.headerPath(session.ID), jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (fp *FilePersistence) writeScene(id string, records []scene.ObjectMetadata) error {
	tmp := fp.scenePath(id) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create scene file: %w", err)
	}

	zw, err := scene.NewZstdWriter(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to create scene encoder: %w", err)
	}
	writeErr := scene.WriteAll(zw, records)
	if err := zw.Close(); writeErr == nil {
		writeErr = err
	}
	if err := f.Close(); writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write scene file: %w", writeErr)
	}

	if err := os.Rename(tmp, fp.scenePath(id)); err != nil {
		return fmt.Errorf("failed to replace scene file: %w", err)
	}
	return nil
}

// Load retrieves a session from its files
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	filePath := fp.headerPath(id)

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, ErrSessionNotFound
	}

	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	records, err := fp.readScene(id)
	if err != nil {
		return nil, err
	}
	return restore(data, records, fp.configManager)
}

func (fp *FilePersistence) readScene(id string) ([]scene.ObjectMetadata, error) {
	f, err := os.Open(fp.scenePath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer f.Close()

	r, err := scene.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene stream: %w", err)
	}
	defer r.Close()

	records, err := scene.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	return records, nil
}

// Delete removes a session's files
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}

	if err := os.Remove(fp.headerPath(id)); err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	if err := os.Remove(fp.scenePath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove scene file: %w", err)
	}
	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			sessionIDs = append(sessionIDs, strings.TrimSuffix(name, ".json"))
		}
	}

	return sessionIDs, nil
}

// Exists checks if a session file exists
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.headerPath(id))
	return err == nil
}

func (fp *FilePersistence) headerPath(id string) string {
	return filepath.Join(fp.sessionsDir, fmt.Sprintf("%s.json", id))
}

func (fp *FilePersistence) scenePath(id string) string {
	return filepath.Join(fp.sessionsDir, id+scene.ZstdExt)
}
