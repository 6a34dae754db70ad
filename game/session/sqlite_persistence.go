package session

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/wricardo/roadgrid/game/scene"
	"github.com/wricardo/roadgrid/game/service"
)

// SQLitePersistence implements SessionPersistence on a single SQLite
// database. Headers live in the sessions table and every scene record is a
// row of the objects table.
type SQLitePersistence struct {
	db            *sql.DB
	configManager service.ConfigManager
}

// NewSQLitePersistence opens (or creates) the database at path
func NewSQLitePersistence(path string, configManager service.ConfigManager) (*SQLitePersistence, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLitePersistence{db: db, configManager: configManager}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			header TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS objects (
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			record TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("failed to initialise schema: %w", err)
		}
	}
	return nil
}

// Close closes the database
func (sp *SQLitePersistence) Close() error {
	return sp.db.Close()
}

// Save replaces the stored header and scene of a session
func (sp *SQLitePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	records := session.Editor.Records()
	configID := ""
	if session.Config != nil {
		configID = configIDFromName(sp.configManager, session.Config.Name)
	}
	headerJSON, err := json.Marshal(header(session, configID, len(records)))
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	tx, err := sp.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO sessions(id, header) VALUES(?, ?)
		 ON CONFLICT(id) DO UPDATE SET header = excluded.header`,
		session.ID, string(headerJSON),
	); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM objects WHERE session_id = ?`, session.ID); err != nil {
		return fmt.Errorf("failed to clear scene: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO objects(session_id, seq, record) VALUES(?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare scene insert: %w", err)
	}
	defer stmt.Close()
	for i, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record %d: %w", i+1, err)
		}
		if _, err := stmt.Exec(session.ID, i, string(b)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// Load retrieves a session and its scene
func (sp *SQLitePersistence) Load(id string) (*service.Session, error) {
	var headerJSON string
	err := sp.db.QueryRow(`SELECT header FROM sessions WHERE id = ?`, id).Scan(&headerJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal([]byte(headerJSON), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	rows, err := sp.db.Query(`SELECT record FROM objects WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	defer rows.Close()

	// Stored rows go through the same decoder as imported files
	var buf bytes.Buffer
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		buf.WriteString(raw)
		buf.WriteByte('\n')
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}

	records, err := scene.ReadAll(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stored scene: %w", err)
	}

	return restore(data, records, sp.configManager)
}

// Delete removes a session and its scene
func (sp *SQLitePersistence) Delete(id string) error {
	if _, err := sp.db.Exec(`DELETE FROM objects WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete scene: %w", err)
	}
	res, err := sp.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all persisted session IDs
func (sp *SQLitePersistence) ListAll() ([]string, error) {
	rows, err := sp.db.Query(`SELECT id FROM sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists checks if a session is stored
func (sp *SQLitePersistence) Exists(id string) bool {
	var n int
	err := sp.db.QueryRow(`SELECT COUNT(1) FROM sessions WHERE id = ?`, id).Scan(&n)
	return err == nil && n > 0
}
