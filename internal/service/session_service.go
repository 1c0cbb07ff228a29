package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gocrm-io/gocrm-ce/internal/repository"
)

// SessionService manages the legacy generic-session records behind the
// session_id cookie. Older routes consume these directly; newer routes
// go through the agent token.
type SessionService struct {
	sessions repository.SessionRepository
	lifetime time.Duration
}

func NewSessionService(sessions repository.SessionRepository, lifetime time.Duration) *SessionService {
	return &SessionService{sessions: sessions, lifetime: lifetime}
}

// CreateSession records a new legacy session and returns its id.
func (s *SessionService) CreateSession(ctx context.Context, agentID int64, username, ip, userAgent string) (string, error) {
	now := time.Now()
	session := &repository.Session{
		ID:          uuid.NewString(),
		AgentID:     agentID,
		Username:    username,
		IP:          ip,
		UserAgent:   userAgent,
		CreateTime:  now,
		LastRequest: now,
		ExpiresAt:   now.Add(s.lifetime),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", err
	}
	return session.ID, nil
}

// GetSession returns the session row, or repository.ErrNotFound when it
// does not exist or has expired.
func (s *SessionService) GetSession(ctx context.Context, id string) (*repository.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, id)
		return nil, repository.ErrNotFound
	}
	return session, nil
}

// KillSession removes a session record.
func (s *SessionService) KillSession(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// TouchSession updates the last request time for activity tracking.
func (s *SessionService) TouchSession(ctx context.Context, id string) error {
	return s.sessions.Touch(ctx, id, time.Now())
}
