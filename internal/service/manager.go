package service

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/email-composer/internal/history"
	"github.com/capitalize-ai/email-composer/pkg/logger"
	"github.com/capitalize-ai/email-composer/pkg/metrics"
)

// DefaultMaxSessions bounds the number of live sessions.
const DefaultMaxSessions = 1000

// ErrSessionNotFound is returned for unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

// ManagerConfig controls session creation.
type ManagerConfig struct {
	MaxSessions  int
	HistoryLimit int
	DefaultModel string
}

// SessionManager owns the live sessions. When full, creating a session
// evicts the oldest one.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string

	composer *Composer
	cfg      ManagerConfig
	logger   *logger.Logger
}

// NewSessionManager creates an empty manager.
func NewSessionManager(composer *Composer, cfg ManagerConfig, log *logger.Logger) *SessionManager {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = history.DefaultLimit
	}
	cfg.DefaultModel = composer.DefaultModel(cfg.DefaultModel)

	return &SessionManager{
		sessions: make(map[string]*Session),
		composer: composer,
		cfg:      cfg,
		logger:   log,
	}
}

// Composer returns the shared pipeline.
func (m *SessionManager) Composer() *Composer {
	return m.composer
}

// Create starts a new session.
func (m *SessionManager) Create() *Session {
	id := uuid.Must(uuid.NewV7()).String()
	sess := newSession(id, m.composer, m.cfg.HistoryLimit, m.cfg.DefaultModel, m.logger)

	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.order) >= m.cfg.MaxSessions {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.sessions, oldest)
		m.logger.Info("session evicted", zap.String("session_id", oldest))
	}

	m.sessions[id] = sess
	m.order = append(m.order, id)
	metrics.SessionsActive.Set(float64(len(m.sessions)))

	m.logger.Debug("session created", zap.String("session_id", id))
	return sess
}

// Get returns the session with the given ID.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes a session.
func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	for i, sid := range m.order {
		if sid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	return nil
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
