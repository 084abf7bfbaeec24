// Package session keeps the live workflow sessions of this process.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justsurfingit/cover-letter-agent/internal/common"
	"github.com/justsurfingit/cover-letter-agent/internal/logging"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
	"github.com/justsurfingit/cover-letter-agent/internal/workflow"
)

type entry struct {
	ctrl     *workflow.Controller
	lastSeen time.Time
}

// Manager owns one workflow.Controller per open session. A session belongs
// to the user that created it; lookups by anyone else report NotFound.
type Manager struct {
	store     workflow.Store
	generator workflow.Generator
	logger    logging.Logger
	idleTTL   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewManager(store workflow.Store, generator workflow.Generator, idleTTL time.Duration, logger logging.Logger) *Manager {
	return &Manager{
		store:     store,
		generator: generator,
		logger:    logger,
		idleTTL:   idleTTL,
		now:       time.Now,
		sessions:  make(map[string]*entry),
	}
}

// Open creates a fresh session for user.
func (m *Manager) Open(user models.User, locale string) *workflow.Controller {
	id := uuid.NewString()
	ctrl := workflow.New(user, m.store, m.generator,
		workflow.WithID(id),
		workflow.WithLocale(locale),
		workflow.WithLogger(m.logger),
	)

	m.mu.Lock()
	m.sessions[id] = &entry{ctrl: ctrl, lastSeen: m.now()}
	m.mu.Unlock()

	m.logger.Info(context.Background(), "session opened", "session", id, "user_id", user.ID)
	return ctrl
}

// Get returns the session and marks it as recently used.
func (m *Manager) Get(userID, id string) (*workflow.Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok || e.ctrl.User().ID != userID {
		return nil, fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	e.lastSeen = m.now()
	return e.ctrl, nil
}

// Close tears the session down. Calls still in flight finish, but their
// results are discarded.
func (m *Manager) Close(userID, id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok || e.ctrl.User().ID != userID {
		m.mu.Unlock()
		return fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	e.ctrl.Close()
	return nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes every session idle for longer than the TTL. Sessions with an
// operation in flight are never considered idle.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	var expired []*entry
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) && !e.ctrl.State().Busy() {
			expired = append(expired, e)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, e := range expired {
		e.ctrl.Close()
	}
	if len(expired) > 0 {
		m.logger.Info(context.Background(), "expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// StartJanitor sweeps on every interval until ctx is done.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if m.idleTTL <= 0 {
		m.logger.Warn(ctx, "session expiry disabled")
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}

// CloseAll shuts every session down, used on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range all {
		e.ctrl.Close()
	}
}
