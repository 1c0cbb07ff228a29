package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gocrm-io/gocrm-ce/internal/repository"
)

// SessionRepository provides an in-memory implementation of
// repository.SessionRepository.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*repository.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*repository.Session)}
}

func (r *SessionRepository) Create(_ context.Context, session *repository.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *SessionRepository) Get(_ context.Context, id string) (*repository.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *session
	return &cp, nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *SessionRepository) Touch(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[id]; ok {
		session.LastRequest = at
	}
	return nil
}

var _ repository.SessionRepository = (*SessionRepository)(nil)
