package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/roadgrid/api"
	"github.com/wricardo/roadgrid/game/session"
	"github.com/wricardo/roadgrid/transport/mcp"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Road Grid Scene Editor" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

// withFlags points the storage flags at a temp dir for the duration of a test
func withFlags(t *testing.T, storeName string) string {
	t.Helper()
	dir := t.TempDir()

	origConfig, origSessions, origStore, origDB, origDefault := *configDir, *sessionsDir, *store, *dbPath, *defaultCfg
	*configDir = "configs"
	*defaultCfg = ""
	*sessionsDir = filepath.Join(dir, "sessions")
	*store = storeName
	*dbPath = filepath.Join(dir, "sessions.db")
	t.Cleanup(func() {
		*configDir, *sessionsDir, *store, *dbPath, *defaultCfg = origConfig, origSessions, origStore, origDB, origDefault
	})
	return dir
}

func TestInitializeServices(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}

	for _, storeName := range []string{StoreFile, StoreSQLite} {
		t.Run(storeName, func(t *testing.T) {
			withFlags(t, storeName)

			svc, err := initializeServices()
			if err != nil {
				t.Fatalf("Failed to initialize services: %v", err)
			}
			defer svc.shutdown()

			if svc.editor == nil || svc.sessions == nil || svc.persistence == nil {
				t.Fatal("Expected services to be initialized")
			}
			if storeName == StoreSQLite && len(svc.closers) != 1 {
				t.Errorf("Expected the sqlite store to be closed on shutdown")
			}
		})
	}
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	withFlags(t, StoreFile)
	*configDir = "/non/existent/path"

	if _, err := initializeServices(); err == nil {
		t.Error("Expected error for non-existent config directory")
	}
}

func TestInitializeServices_UnknownStore(t *testing.T) {
	withFlags(t, "redis")

	_, err := initializeServices()
	if err == nil || !strings.Contains(err.Error(), "unknown session store") {
		t.Errorf("Expected unknown store error, got %v", err)
	}
}

func TestInitializeServices_DefaultConfig(t *testing.T) {
	dir := withFlags(t, StoreFile)
	*configDir = filepath.Join(dir, "configs")
	if err := os.MkdirAll(*configDir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, width := range map[string]int{"alpha": 6, "beta": 9} {
		body := fmt.Sprintf(`{"name": %q, "width": %d, "height": 5}`, name, width)
		if err := os.WriteFile(filepath.Join(*configDir, name+".json"), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("Selected config backs new sessions", func(t *testing.T) {
		*defaultCfg = "beta"
		svc, err := initializeServices()
		if err != nil {
			t.Fatalf("Failed to initialize services: %v", err)
		}
		defer svc.shutdown()

		sess, err := svc.editor.CreateSession(context.Background(), "")
		if err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
		if sess.Scene.Width != 9 {
			t.Errorf("Expected the beta config (width 9), got width %d", sess.Scene.Width)
		}
	})

	t.Run("Unknown config", func(t *testing.T) {
		*defaultCfg = "gamma"
		if _, err := initializeServices(); err == nil {
			t.Error("Expected error for unknown default config")
		}
	})
}

func TestFlagDefaults(t *testing.T) {
	if *port <= 0 || *port > 65535 {
		t.Errorf("Invalid default port: %d", *port)
	}
	if *host == "" {
		t.Error("Host should have a default value")
	}
	if *configDir == "" {
		t.Error("Config directory should have a default value")
	}
	if *store != StoreFile && *store != StoreSQLite {
		t.Errorf("Unexpected default store %s", *store)
	}
}

func TestEnvDefault(t *testing.T) {
	t.Setenv("ROADGRID_TEST_VALUE", "from-env")
	if got := envDefault("ROADGRID_TEST_VALUE", "fallback"); got != "from-env" {
		t.Errorf("Expected from-env, got %s", got)
	}
	if got := envDefault("ROADGRID_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %s", got)
	}
}

func TestPruneOrphans(t *testing.T) {
	withFlags(t, StoreFile)

	svc, err := initializeServices()
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.shutdown()

	ctx := context.Background()
	kept, err := svc.editor.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	gone, err := svc.editor.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := svc.persistence.Delete(gone.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if pruned := pruneOrphans(svc.sessions, svc.persistence); pruned != 1 {
		t.Errorf("Expected 1 pruned session, got %d", pruned)
	}
	if _, err := svc.sessions.Get(kept.ID); err != nil {
		t.Errorf("Kept session should still exist: %v", err)
	}
	if _, err := svc.sessions.Get(gone.ID); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Expected pruned session to be gone, got %v", err)
	}
}

func TestRouter(t *testing.T) {
	withFlags(t, StoreFile)

	svc, err := initializeServices()
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.shutdown()

	router := newRouter(api.NewServer(svc.editor, nil), mcp.NewClient("http://localhost:0"))

	t.Run("API is mounted at the root", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}
	})

	t.Run("MCP endpoint rejects GET", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/mcp", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", w.Code)
		}
	})

	t.Run("MCP endpoint answers tools/list", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/mcp", bytes.NewBufferString(body)))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "draw_road") {
			t.Errorf("Expected draw_road in tool list, got %s", w.Body.String())
		}
	})
}
