package session

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/wricardo/roadgrid/game/config"
	"github.com/wricardo/roadgrid/game/scene"
)

func newTestSQLite(t *testing.T) (*SQLitePersistence, *config.Manager) {
	t.Helper()
	configManager, err := config.NewManager("../../configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}

	persistence, err := NewSQLitePersistence(filepath.Join(t.TempDir(), "data", "sessions.db"), configManager)
	if err != nil {
		t.Fatalf("Failed to open sqlite persistence: %v", err)
	}
	t.Cleanup(func() { persistence.Close() })
	return persistence, configManager
}

func TestSQLitePersistence(t *testing.T) {
	persistence, configManager := newTestSQLite(t)
	exercisePersistence(t, persistence, configManager.GetDefault())
}

func TestSQLitePersistence_Reopen(t *testing.T) {
	configManager, err := config.NewManager("../../configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	path := filepath.Join(t.TempDir(), "sessions.db")

	first, err := NewSQLitePersistence(path, configManager)
	if err != nil {
		t.Fatalf("Failed to open sqlite persistence: %v", err)
	}
	session := newEditedSession(t, "keep", configManager.GetDefault())
	if err := first.Save(session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	first.Close()

	second, err := NewSQLitePersistence(path, configManager)
	if err != nil {
		t.Fatalf("Failed to reopen sqlite persistence: %v", err)
	}
	defer second.Close()

	loaded, err := second.Load("keep")
	if err != nil {
		t.Fatalf("Failed to load session after reopen: %v", err)
	}
	if len(loaded.Editor.Records()) != len(session.Editor.Records()) {
		t.Errorf("Expected %d records, got %d", len(session.Editor.Records()), len(loaded.Editor.Records()))
	}
}

func TestSQLitePersistence_CorruptRecord(t *testing.T) {
	persistence, configManager := newTestSQLite(t)

	session := newEditedSession(t, "bad", configManager.GetDefault())
	if err := persistence.Save(session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	if _, err := persistence.db.Exec(`UPDATE objects SET record = '{"prefabName":""}' WHERE session_id = ? AND seq = 0`, "bad"); err != nil {
		t.Fatalf("Failed to corrupt record: %v", err)
	}

	if _, err := persistence.Load("bad"); !errors.Is(err, scene.ErrMalformedRecord) {
		t.Errorf("Expected ErrMalformedRecord, got %v", err)
	}
}

func TestSQLitePersistence_EmptyPath(t *testing.T) {
	if _, err := NewSQLitePersistence("", nil); err == nil {
		t.Error("Expected error for empty db path")
	}
}
