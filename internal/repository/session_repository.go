package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// DBSessionRepository persists legacy generic-session rows.
type DBSessionRepository struct {
	db *sqlx.DB
}

func NewDBSessionRepository(db *sqlx.DB) *DBSessionRepository {
	return &DBSessionRepository{db: db}
}

func (r *DBSessionRepository) Create(ctx context.Context, session *Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, agent_id, username, ip, user_agent, create_time, last_request, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, session.ID, session.AgentID, session.Username, session.IP, session.UserAgent,
		session.CreateTime, session.LastRequest, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *DBSessionRepository) Get(ctx context.Context, id string) (*Session, error) {
	session := &Session{}
	err := r.db.GetContext(ctx, session, `
		SELECT id, agent_id, username, ip, user_agent, create_time, last_request, expires_at
		FROM sessions
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

func (r *DBSessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *DBSessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET last_request = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

var _ SessionRepository = (*DBSessionRepository)(nil)
