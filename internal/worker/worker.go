// Package worker moves journal entries from tank controllers to the storage backend
// through buffered dispatcher queues, so a slow backend never stalls a tick.
package worker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SmartTank/extension/internal/dispatcher"
	"github.com/SmartTank/extension/internal/model"
	"github.com/SmartTank/extension/internal/storage"
	"github.com/SmartTank/extension/pkg/core"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNoSession is returned by EndSession when no session is open
var ErrNoSession = errors.New("no session open")

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Logger           zerolog.Logger
	ExtensionVersion string
	// Now replaces time.Now for session timestamps.
	Now func() time.Time
}

// Manager owns the journal session and forwards entries to the backend
type Manager struct {
	deps    Dependencies
	backend storage.Backend

	mu         sync.RWMutex
	dispatcher *dispatcher.Dispatcher
	session    *core.Session
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

// StartSession opens a new journal session with a fresh ID. A session that is
// still open is ended first.
func (m *Manager) StartSession(meta map[string]any) (*core.Session, error) {
	m.mu.RLock()
	open := m.session != nil
	m.mu.RUnlock()
	if open {
		if err := m.EndSession(); err != nil {
			m.deps.Logger.Warn().Err(err).Msg("Failed to end previous session")
		}
	}

	s := &core.Session{
		ID:               uuid.NewString(),
		StartedAt:        m.deps.Now(),
		ExtensionVersion: m.deps.ExtensionVersion,
		Meta:             meta,
	}
	if err := m.backend.StartSession(s); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
	m.deps.Logger.Info().Str("session", s.ID).Msg("Journal session started")
	return s, nil
}

// Session returns the open session, or nil.
func (m *Manager) Session() *core.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// SessionID returns the open session's ID, or "".
func (m *Manager) SessionID() string {
	if s := m.Session(); s != nil {
		return s.ID
	}
	return ""
}

// EndSession ends the open session. Close the dispatcher first to have every
// queued entry written before the session is closed.
func (m *Manager) EndSession() error {
	m.mu.Lock()
	s := m.session
	m.session = nil
	m.mu.Unlock()

	if s == nil {
		return ErrNoSession
	}
	if err := m.backend.EndSession(); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	log := m.deps.Logger.Info().Str("session", s.ID)
	if exp, ok := m.backend.(storage.Exportable); ok && exp.GetExportedFilePath() != "" {
		log = log.Str("export", exp.GetExportedFilePath())
	}
	log.Msg("Journal session ended")
	return nil
}

// QueueLengthProvider is an optional interface that backends can implement
// to expose how many entries still wait to be written.
type QueueLengthProvider interface {
	QueueLengths() model.WriteQueueLengths
}

// QueueLengths returns the backend's pending entries.
// Returns false if the backend doesn't support this metric.
func (m *Manager) QueueLengths() (model.WriteQueueLengths, bool) {
	if p, ok := m.backend.(QueueLengthProvider); ok {
		return p.QueueLengths(), true
	}
	return model.WriteQueueLengths{}, false
}
