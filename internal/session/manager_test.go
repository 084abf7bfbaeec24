package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/cover-letter-agent/internal/common"
	"github.com/justsurfingit/cover-letter-agent/internal/logging"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
	"github.com/justsurfingit/cover-letter-agent/internal/services"
	"github.com/justsurfingit/cover-letter-agent/internal/workflow"
)

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, models.GenerationRequest, workflow.ProgressFunc) (string, error) {
	return "letter", nil
}

var (
	alice = models.User{ID: "alice", Email: "alice@example.com"}
	bob   = models.User{ID: "bob"}
)

func newManager(ttl time.Duration) (*Manager, *time.Time) {
	m := NewManager(services.NewMemoryStore(), stubGenerator{}, ttl, logging.Discard())
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestManager_OpenGet(t *testing.T) {
	m, _ := newManager(time.Minute)

	ctrl := m.Open(alice, "da-DK")
	require.NotEmpty(t, ctrl.ID())
	assert.Equal(t, "da-DK", ctrl.Locale())

	got, err := m.Get("alice", ctrl.ID())
	require.NoError(t, err)
	assert.Same(t, ctrl, got)

	_, err = m.Get("bob", ctrl.ID())
	assert.ErrorIs(t, err, common.ErrNotFound, "sessions are private to their owner")

	_, err = m.Get("alice", "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestManager_Close(t *testing.T) {
	m, _ := newManager(time.Minute)
	ctrl := m.Open(alice, "en")

	assert.ErrorIs(t, m.Close("bob", ctrl.ID()), common.ErrNotFound)
	assert.True(t, ctrl.Alive())

	require.NoError(t, m.Close("alice", ctrl.ID()))
	assert.False(t, ctrl.Alive())
	assert.Equal(t, 0, m.Len())
	assert.ErrorIs(t, m.Close("alice", ctrl.ID()), common.ErrNotFound)
}

func TestManager_Sweep(t *testing.T) {
	m, now := newManager(10 * time.Minute)

	stale := m.Open(alice, "en")
	*now = now.Add(8 * time.Minute)
	fresh := m.Open(bob, "en")

	*now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, m.Sweep())

	assert.False(t, stale.Alive())
	assert.True(t, fresh.Alive())
	_, err := m.Get("alice", stale.ID())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestManager_GetRefreshesIdleTimer(t *testing.T) {
	m, now := newManager(10 * time.Minute)
	ctrl := m.Open(alice, "en")

	*now = now.Add(9 * time.Minute)
	_, err := m.Get("alice", ctrl.ID())
	require.NoError(t, err)

	*now = now.Add(9 * time.Minute)
	assert.Equal(t, 0, m.Sweep())
	assert.True(t, ctrl.Alive())
}

func TestManager_CloseAll(t *testing.T) {
	m, _ := newManager(time.Minute)
	a := m.Open(alice, "en")
	b := m.Open(bob, "en")

	m.CloseAll()

	assert.False(t, a.Alive())
	assert.False(t, b.Alive())
	assert.Equal(t, 0, m.Len())
}
