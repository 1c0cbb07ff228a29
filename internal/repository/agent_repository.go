package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gocrm-io/gocrm-ce/internal/models"
)

// DBAgentRepository implements AgentRepository on PostgreSQL.
type DBAgentRepository struct {
	db *sqlx.DB
}

func NewDBAgentRepository(db *sqlx.DB) *DBAgentRepository {
	return &DBAgentRepository{db: db}
}

func (r *DBAgentRepository) GetByID(ctx context.Context, id int64) (*models.Agent, error) {
	agent := &models.Agent{}
	err := r.db.GetContext(ctx, agent, `
		SELECT id, username, password_hash, email, full_name, phone_number, status,
		       profile_image, company_logo, imap_settings, last_login, create_time, change_time
		FROM agents
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return agent, nil
}

func (r *DBAgentRepository) GetByUsername(ctx context.Context, username string) (*models.Agent, error) {
	agent := &models.Agent{}
	err := r.db.GetContext(ctx, agent, `
		SELECT id, username, password_hash, email, full_name, phone_number, status,
		       profile_image, company_logo, imap_settings, last_login, create_time, change_time
		FROM agents
		WHERE username = $1
	`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get agent by username: %w", err)
	}
	return agent, nil
}

func (r *DBAgentRepository) ListRoles(ctx context.Context, agentID int64) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.SelectContext(ctx, &roles, `
		SELECT r.id, r.name, r.description, r.permissions, r.create_time, r.change_time
		FROM roles r
		INNER JOIN agent_roles ar ON r.id = ar.role_id
		WHERE ar.agent_id = $1
		ORDER BY r.name
	`, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent roles: %w", err)
	}
	return roles, nil
}

func (r *DBAgentRepository) ListGrants(ctx context.Context, agentID int64) ([]models.PermissionGrant, error) {
	var grants []models.PermissionGrant
	err := r.db.SelectContext(ctx, &grants, `
		SELECT agent_id, module, permission
		FROM agent_permissions
		WHERE agent_id = $1
		ORDER BY module, permission
	`, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent grants: %w", err)
	}
	return grants, nil
}

// ReplaceGrants replaces all individual grants for an agent:
// delete-all-for-agent, then re-insert. The delete and inserts run in
// one transaction, but a crash between commit attempts still leaves the
// replace-all semantics, not a diff.
func (r *DBAgentRepository) ReplaceGrants(ctx context.Context, agentID int64, grants []models.PermissionGrant) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM agent_permissions WHERE agent_id = $1`, agentID); err != nil {
		return fmt.Errorf("failed to clear agent grants: %w", err)
	}

	for _, g := range grants {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO agent_permissions (agent_id, module, permission)
			VALUES ($1, $2, $3)
		`, agentID, g.Module, g.Permission)
		if err != nil {
			return fmt.Errorf("failed to insert agent grant: %w", err)
		}
	}

	return tx.Commit()
}

// SetRoles replaces the agent's role assignments wholesale.
func (r *DBAgentRepository) SetRoles(ctx context.Context, agentID int64, roleIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM agent_roles WHERE agent_id = $1`, agentID); err != nil {
		return fmt.Errorf("failed to clear agent roles: %w", err)
	}

	for _, roleID := range roleIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO agent_roles (agent_id, role_id)
			VALUES ($1, $2)
		`, agentID, roleID)
		if err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}
	}

	return tx.Commit()
}

func (r *DBAgentRepository) UpdateLastLogin(ctx context.Context, agentID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE agents SET last_login = $1, change_time = $1 WHERE id = $2
	`, at, agentID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

var _ AgentRepository = (*DBAgentRepository)(nil)
