package scanner

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("scan session not found or already closed")

// Session is one live scan. It stands in for the client's camera stream plus
// sampling timer: the server only ever tracks one per user, so restarting a
// scan can never leak a previous stream.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	StartedAt time.Time `json:"started_at"`

	lastFrameAt time.Time
}

type Manager struct {
	mu          sync.Mutex
	byID        map[uuid.UUID]*Session
	byUser      map[uuid.UUID]*Session
	idleTimeout time.Duration

	done     chan struct{}
	doneOnce sync.Once
}

func NewManager(idleTimeout time.Duration) *Manager {
	m := &Manager{
		byID:        make(map[uuid.UUID]*Session),
		byUser:      make(map[uuid.UUID]*Session),
		idleTimeout: idleTimeout,
		done:        make(chan struct{}),
	}
	go m.reapLoop()
	return m
}

// Default is the process-wide manager used by the scan handlers.
var Default = NewManager(2 * time.Minute)

// Start opens a new session for the user. Any previous session for the same
// user is closed first, never left running alongside the new one.
func (m *Manager) Start(userID uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.byUser[userID]; ok {
		log.Printf("Closing previous scan session %s for user %s", prev.ID, userID)
		delete(m.byID, prev.ID)
	}

	session := &Session{
		ID:          uuid.New(),
		UserID:      userID,
		StartedAt:   time.Now(),
		lastFrameAt: time.Now(),
	}
	m.byID[session.ID] = session
	m.byUser[userID] = session
	return session
}

// Touch records frame activity on a session owned by the user.
func (m *Manager) Touch(sessionID, userID uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.byID[sessionID]
	if !ok || session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	session.lastFrameAt = time.Now()
	return session, nil
}

// Stop closes a session. Stopping an already-closed session is a no-op.
func (m *Manager) Stop(sessionID, userID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.byID[sessionID]
	if !ok || session.UserID != userID {
		return false
	}
	delete(m.byID, sessionID)
	if current, ok := m.byUser[session.UserID]; ok && current.ID == sessionID {
		delete(m.byUser, session.UserID)
	}
	return true
}

// Active returns the user's live session, if any.
func (m *Manager) Active(userID uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.byUser[userID]
	return session, ok
}

func (m *Manager) Shutdown() {
	m.doneOnce.Do(func() { close(m.done) })
}

func (m *Manager) reapLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.reap()
		}
	}
}

func (m *Manager) reap() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-m.idleTimeout)
	for id, session := range m.byID {
		if session.lastFrameAt.Before(cutoff) {
			log.Printf("Expiring idle scan session %s for user %s", id, session.UserID)
			delete(m.byID, id)
			if current, ok := m.byUser[session.UserID]; ok && current.ID == id {
				delete(m.byUser, session.UserID)
			}
		}
	}
}
