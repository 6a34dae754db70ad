// Package session provides session management for the road grid editor.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session persistence to files or SQLite
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each service.Session owns its own editor.Editor, so scenes never share
// state.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters from crypto/rand. Caller supplied IDs
// are matched case-insensitively and may only contain letters, digits, '-'
// and '_', which keeps them safe as file names and database keys.
//
// Persistence:
//
// FilePersistence writes <id>.json with the session header (including the
// settings the scene was created from) and <id>.jsonl.zst with the scene
// records. SQLitePersistence keeps the same header in a sessions table and
// one row per record in an objects table. Both restore a session by
// replaying its records into a fresh editor.
//
// Access times only reach storage with a save. CleanupExpiredSessions saves
// each session it evicts, and a later Get loads it back.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", configMgr)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Printf("Warning: %v", err)
//	}
//
//	sess, err := manager.Create("", settings)
package session
