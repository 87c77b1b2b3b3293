package scanner

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	m := NewManager(time.Minute)
	m.Shutdown()
	return m
}

func TestStartClosesPreviousSession(t *testing.T) {
	m := newTestManager()
	userID := uuid.New()

	first := m.Start(userID)
	second := m.Start(userID)
	require.NotEqual(t, first.ID, second.ID)

	// Only the new session is alive; frames against the old one are rejected.
	_, err := m.Touch(first.ID, userID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.Touch(second.ID, userID)
	assert.NoError(t, err)

	active, ok := m.Active(userID)
	require.True(t, ok)
	assert.Equal(t, second.ID, active.ID)
}

func TestStopIsIdempotent(t *testing.T) {
	m := newTestManager()
	userID := uuid.New()

	session := m.Start(userID)
	assert.True(t, m.Stop(session.ID, userID))
	assert.False(t, m.Stop(session.ID, userID))

	_, ok := m.Active(userID)
	assert.False(t, ok)
}

func TestTouchRejectsOtherUsersSession(t *testing.T) {
	m := newTestManager()
	owner := uuid.New()
	intruder := uuid.New()

	session := m.Start(owner)
	_, err := m.Touch(session.ID, intruder)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.False(t, m.Stop(session.ID, intruder))
	_, ok := m.Active(owner)
	assert.True(t, ok)
}

func TestReapExpiresIdleSessions(t *testing.T) {
	m := newTestManager()
	userID := uuid.New()

	session := m.Start(userID)
	session.lastFrameAt = time.Now().Add(-2 * time.Minute)
	m.reap()

	_, err := m.Touch(session.ID, userID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, ok := m.Active(userID)
	assert.False(t, ok)
}

func TestSessionsIndependentAcrossUsers(t *testing.T) {
	m := newTestManager()
	alice := uuid.New()
	bob := uuid.New()

	a := m.Start(alice)
	b := m.Start(bob)

	// Bob restarting must not touch Alice's session.
	m.Start(bob)
	_, err := m.Touch(a.ID, alice)
	assert.NoError(t, err)
	_, err = m.Touch(b.ID, bob)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
