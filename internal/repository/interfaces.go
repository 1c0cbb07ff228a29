package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gocrm-io/gocrm-ce/internal/models"
)

var ErrNotFound = errors.New("not found")

// AgentRepository defines persistence operations for agents and their
// relational attachments: assigned roles and individual permission
// grants.
type AgentRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Agent, error)
	GetByUsername(ctx context.Context, username string) (*models.Agent, error)
	ListRoles(ctx context.Context, agentID int64) ([]models.Role, error)
	ListGrants(ctx context.Context, agentID int64) ([]models.PermissionGrant, error)
	// ReplaceGrants replaces all individual grants for an agent in one
	// call: delete-all-for-agent, then re-insert.
	ReplaceGrants(ctx context.Context, agentID int64, grants []models.PermissionGrant) error
	// SetRoles replaces the agent's role assignments wholesale.
	SetRoles(ctx context.Context, agentID int64, roleIDs []int64) error
	UpdateLastLogin(ctx context.Context, agentID int64, at time.Time) error
}

// RoleRepository defines persistence operations for roles.
type RoleRepository interface {
	List(ctx context.Context) ([]models.Role, error)
	GetByID(ctx context.Context, id int64) (*models.Role, error)
	GetByName(ctx context.Context, name string) (*models.Role, error)
	Create(ctx context.Context, role *models.Role) error
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id int64) error
	// AssignmentCount returns the number of agents currently holding the
	// role; deletes are rejected while it is non-zero.
	AssignmentCount(ctx context.Context, roleID int64) (int, error)
}

// Session is a legacy generic-session row backing the session_id cookie.
type Session struct {
	ID          string    `db:"id"`
	AgentID     int64     `db:"agent_id"`
	Username    string    `db:"username"`
	IP          string    `db:"ip"`
	UserAgent   string    `db:"user_agent"`
	CreateTime  time.Time `db:"create_time"`
	LastRequest time.Time `db:"last_request"`
	ExpiresAt   time.Time `db:"expires_at"`
}

// SessionRepository defines persistence for legacy generic sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	Touch(ctx context.Context, id string, at time.Time) error
}
