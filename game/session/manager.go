package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/roadgrid/game/editor"
	"github.com/wricardo/roadgrid/game/placement"
	"github.com/wricardo/roadgrid/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Manager keeps the editing sessions in memory and mirrors them to an
// optional SessionPersistence. Session IDs are case-insensitive.
type Manager struct {
	sessions    map[string]*service.Session
	persistence SessionPersistence
	factory     placement.ModelFactory
	mu          sync.RWMutex
}

// NewManager creates a memory-only session manager
func NewManager() *Manager {
	return NewManagerWithPersistence(nil)
}

// NewManagerWithPersistence creates a session manager backed by persistence
func NewManagerWithPersistence(persistence SessionPersistence) *Manager {
	return &Manager{
		sessions:    make(map[string]*service.Session),
		persistence: persistence,
	}
}

// SetModelFactory sets the factory new editors instantiate models with.
// Nil, the default, keeps editors headless.
func (m *Manager) SetModelFactory(f placement.ModelFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factory = f
}

func key(id string) string {
	return strings.ToLower(id)
}

// Create builds an editor from config and registers it under id. An empty id
// gets a generated one. The new session is saved straight away.
func (m *Manager) Create(id string, config *editor.Settings) (*service.Session, error) {
	generated := id == ""
	if generated {
		id = generateSessionID()
	}
	if !validSessionID(id) {
		return nil, ErrInvalidSessionID
	}
	if config == nil {
		return nil, fmt.Errorf("%w: config is required", service.ErrInvalidRequest)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		_, exists := m.sessions[key(id)]
		if generated && !exists && m.persistence != nil {
			exists = m.persistence.Exists(id)
		}
		if !exists {
			break
		}
		if !generated {
			return nil, ErrSessionAlreadyExists
		}
		id = generateSessionID()
	}

	ed, err := editor.NewFromSettings(config, m.factory)
	if err != nil {
		return nil, fmt.Errorf("failed to create editor: %w", err)
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		Editor:         ed,
		Config:         config,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[key(id)] = session

	if m.persistence != nil {
		if err := m.persistence.Save(session); err != nil {
			fmt.Printf("Warning: Failed to persist session %s: %v\n", id, err)
		}
	}
	return session, nil
}

// Get returns the session with id, loading it from persistence when it is
// not in memory
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	session, exists := m.sessions[key(id)]
	m.mu.RUnlock()
	if exists {
		return session, nil
	}

	if m.persistence == nil || !validSessionID(id) || !m.persistence.Exists(id) {
		return nil, ErrSessionNotFound
	}

	loaded, err := m.persistence.Load(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have loaded it meanwhile
	if session, exists := m.sessions[key(id)]; exists {
		return session, nil
	}
	m.sessions[key(id)] = loaded
	return loaded, nil
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id string, config *editor.Settings) (*service.Session, error) {
	session, err := m.Get(id)
	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, config)
	}
	return session, err
}

// List returns the sessions in memory ordered by ID
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return key(result[i].ID) < key(result[j].ID)
	})
	return result
}

// Delete removes a session from memory and from persistence
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, inMemory := m.sessions[key(id)]
	delete(m.sessions, key(id))

	if m.persistence != nil && validSessionID(id) && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteFromMemory drops a session from memory and leaves storage alone
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[key(id)]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, key(id))
	return nil
}

// UpdateLastAccessed marks a session as used now
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[key(id)]
	if !exists {
		return ErrSessionNotFound
	}

	// Only the in-memory time moves here; it reaches storage with the next
	// Save so that drags do not rewrite the scene on every pointer event.
	session.LastAccessedAt = time.Now()
	return nil
}

// Save writes one session to persistence
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	session, exists := m.sessions[key(id)]
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	return m.persistence.Save(session)
}

// CleanupExpiredSessions evicts sessions not accessed within maxAge and
// reports how many went. Evicted sessions are saved first so a later Get
// restores them with their latest access time.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var expired []*service.Session
	for k, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			expired = append(expired, session)
			delete(m.sessions, k)
		}
	}
	m.mu.Unlock()

	if m.persistence != nil {
		for _, session := range expired {
			if err := m.persistence.Save(session); err != nil {
				fmt.Printf("Warning: Failed to save expired session %s: %v\n", session.ID, err)
			}
		}
	}
	return len(expired)
}

// Count returns the number of sessions in memory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID returns 4 random hex characters
func generateSessionID() string {
	b := make([]byte, 2)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// validSessionID reports whether id is safe to use as a storage key. IDs
// are limited to letters, digits, '-' and '_'.
func validSessionID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// LoadPersistedSessions loads every stored session that is not already in
// memory. Sessions that fail to load are skipped with a warning.
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded := 0
	for _, id := range ids {
		if _, exists := m.sessions[key(id)]; exists {
			continue
		}

		session, err := m.persistence.Load(id)
		if err != nil {
			fmt.Printf("Warning: Failed to load persisted session %s: %v\n", id, err)
			continue
		}
		m.sessions[key(id)] = session
		loaded++
	}

	if loaded > 0 {
		fmt.Printf("Loaded %d persisted sessions from storage\n", loaded)
	}
	return nil
}

// SaveAllSessions writes every in-memory session to persistence
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	failed := 0
	for _, session := range m.List() {
		if err := m.persistence.Save(session); err != nil {
			fmt.Printf("Warning: Failed to save session %s: %v\n", session.ID, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to save %d sessions", failed)
	}
	return nil
}
